package handler

import (
	"sync"

	"gigsbot/internal/domain"
	"gigsbot/internal/payment"
	"gigsbot/internal/referral"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// session is one onboarding run of a user: payment, then referral
type session struct {
	userID      int64
	queue       *queue
	writes      *queue
	view        *chatView
	orch        *payment.Orchestrator
	flow        *referral.Flow
	store       *referral.Store
	unsubscribe func()
}

// close ends the session. The returned channel is closed once its
// pending attempt writes are stored.
func (s *session) close() <-chan struct{} {
	s.orch.Close()
	s.unsubscribe()
	s.queue.stop()
	return s.writes.drain()
}

// startSession replaces any previous session of the user with a new one
func (h *Handler) startSession(userID int64, chat tele.Recipient, externalID, clientName string) *session {
	q := newQueue()
	logger := h.logger.With(zap.Int64("user_id", userID))
	store := referral.NewStore()

	s := &session{
		userID: userID,
		queue:  q,
		writes: newQueue(),
		store:  store,
		flow:   referral.NewFlow(h.backend, store, externalID, logger),
	}
	s.view = newChatView(h.sender, chat, h.paymentOpts.CountryCode, q, func(n domain.Navigation) {
		h.onNavigate(s, n)
	}, logger)

	recorder := &attemptRecorder{
		attempts:    h.attemptService,
		store:       store,
		queue:       s.writes,
		userID:      userID,
		externalID:  externalID,
		clientName:  clientName,
		countryCode: h.paymentOpts.CountryCode,
		logger:      logger,
	}

	opts := h.paymentOpts
	opts.Logger = logger
	s.orch = payment.New(h.backend, externalID, payment.Listeners{s.view, recorder}, opts)

	var (
		savedMux sync.Mutex
		saved    string
	)
	s.unsubscribe = store.Subscribe(func(m domain.ReferralMetadata) {
		savedMux.Lock()
		defer savedMux.Unlock()

		if m.Code == "" || m.Code == saved {
			return
		}
		saved = m.Code
		if err := h.identityService.SaveReferral(userID, m.Code, m.Organic); err != nil {
			logger.Error("Failed to save referral", zap.String("code", m.Code), zap.Error(err))
		}
	})

	h.sessionMux.Lock()
	old := h.sessions[userID]
	h.sessions[userID] = s
	h.sessionMux.Unlock()

	if old != nil {
		old.close()
	}
	return s
}

// getSession returns the user's current session, or nil
func (h *Handler) getSession(userID int64) *session {
	h.sessionMux.RLock()
	defer h.sessionMux.RUnlock()
	return h.sessions[userID]
}

// endSession drops s if it is still the user's current session
func (h *Handler) endSession(s *session) {
	h.sessionMux.Lock()
	if h.sessions[s.userID] == s {
		delete(h.sessions, s.userID)
	}
	h.sessionMux.Unlock()

	s.close()
}
