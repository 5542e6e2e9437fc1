package handler

import (
	"sync"

	"gigsbot/internal/domain"
	"gigsbot/internal/payment"
	"gigsbot/internal/referral"
	"gigsbot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Backend is the marketplace API used for payments and referrals
type Backend interface {
	payment.Gateway
	referral.Gateway
}

// Options configure the onboarding flow
type Options struct {
	Payment    payment.Options
	ProfileURL string
}

// Handler manages all bot interactions
type Handler struct {
	bot             *tele.Bot
	sender          sender
	identityService *service.IdentityService
	attemptService  *service.AttemptService
	backend         Backend
	paymentOpts     payment.Options
	profileURL      string
	logger          *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex

	sessions   map[int64]*session
	sessionMux sync.RWMutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	identityService *service.IdentityService,
	attemptService *service.AttemptService,
	backend Backend,
	opts Options,
	logger *zap.Logger,
) *Handler {
	if opts.Payment.CountryCode == "" {
		opts.Payment.CountryCode = domain.DefaultCountryCode
	}
	h := &Handler{
		bot:             bot,
		identityService: identityService,
		attemptService:  attemptService,
		backend:         backend,
		paymentOpts:     opts.Payment,
		profileURL:      opts.ProfileURL,
		logger:          logger,
		states:          make(map[int64]*domain.StateData),
		sessions:        make(map[int64]*session),
	}
	if bot != nil {
		h.sender = bot
	}
	return h
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/join", h.handleJoin)
	h.bot.Handle("/cancel", h.handleCancel)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnJoin, h.handleJoin)
	h.bot.Handle(&btnPay, h.handlePay)
	h.bot.Handle(&btnRetry, h.handleRetry)
	h.bot.Handle(&btnCancel, h.handleCancel)
	h.bot.Handle(&btnSkipReferral, h.handleSkipReferral)
	h.bot.Handle(&btnContinue, h.handleContinue)
	h.bot.Handle(&btnMainMenu, h.handleStart)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// Shutdown closes every open session and waits for their final writes
func (h *Handler) Shutdown() {
	h.sessionMux.Lock()
	sessions := h.sessions
	h.sessions = make(map[int64]*session)
	h.sessionMux.Unlock()

	var pending []<-chan struct{}
	for _, s := range sessions {
		pending = append(pending, s.close())
	}
	for _, done := range pending {
		<-done
	}
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

// Inline keyboard buttons
var (
	btnJoin = tele.Btn{
		Unique: "join",
		Text:   "🚀 Become a Freelancer",
	}
	btnPay = tele.Btn{
		Unique: "pay",
		Text:   "💳 Pay with M-Pesa",
	}
	btnRetry = tele.Btn{
		Unique: "retry",
		Text:   "🔄 Try again",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Cancel",
	}
	btnSkipReferral = tele.Btn{
		Unique: "skip_referral",
		Text:   "I don't have a code",
	}
	btnContinue = tele.Btn{
		Unique: "continue",
		Text:   "➡️ Continue",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)

const (
	mainMenuText = "🏠 MyGigs Africa\n\nGet paid for your skills. Join as a freelancer to start receiving gigs."
	signInText   = "👋 Welcome to MyGigs Africa!\n\nSign in on the website and tap \"Become a Freelancer\" to open this bot with your account."
	errorText    = "Something went wrong. Please try again later."
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnJoin),
	)
	return menu
}
