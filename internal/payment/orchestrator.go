// Package payment drives an M-Pesa push payment from phone entry to a
// confirmed or failed outcome.
package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"gigsbot/internal/clock"
	"gigsbot/internal/domain"
	"gigsbot/internal/gateway"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTickInterval     = time.Second
	DefaultPollInterval     = 3 * time.Second
	DefaultSuccessDelay     = 2500 * time.Millisecond
	DefaultCountdownSeconds = 60
)

// DefaultAmount is the subscription fee in KES
var DefaultAmount = decimal.NewFromInt(250)

const (
	msgInitiateFailed = "Failed to initiate M-Pesa prompt."
	msgNetwork        = "Check your connection and try again."
	msgPaymentFailed  = "The payment was cancelled or could not be completed."
	msgTimeout        = "We did not receive a confirmation in time. Please try again."
	msgPinPrompt      = "Enter your M-Pesa PIN on your phone."
)

var (
	// ErrClosed is returned for operations on a session that is not open
	ErrClosed = errors.New("payment: session is closed")
	// ErrInvalidTransition is returned when the current step does not allow the operation
	ErrInvalidTransition = errors.New("payment: invalid step transition")
)

// Gateway is the backend used to start and track push payments
type Gateway interface {
	InitiatePush(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error)
	PaymentStatus(ctx context.Context, trackingID string) (domain.PaymentStatus, error)
}

// Options tune an Orchestrator. Zero values take the defaults.
type Options struct {
	Amount           decimal.Decimal
	CountryCode      string
	TickInterval     time.Duration
	PollInterval     time.Duration
	SuccessDelay     time.Duration
	CountdownSeconds int
	Clock            clock.Clock
	Logger           *zap.Logger
}

func (o Options) withDefaults() Options {
	if !o.Amount.IsPositive() {
		o.Amount = DefaultAmount
	}
	if o.CountryCode == "" {
		o.CountryCode = domain.DefaultCountryCode
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SuccessDelay <= 0 {
		o.SuccessDelay = DefaultSuccessDelay
	}
	if o.CountdownSeconds <= 0 {
		o.CountdownSeconds = DefaultCountdownSeconds
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// scope owns everything acquired for one processing attempt. Releasing it
// is the only way timers and in-flight requests of the attempt end.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	timers []clock.Stopper
}

func newScope() *scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &scope{ctx: ctx, cancel: cancel}
}

func (s *scope) add(t clock.Stopper) {
	s.timers = append(s.timers, t)
}

func (s *scope) release() {
	s.cancel()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// Orchestrator is the state machine behind one payment dialog
type Orchestrator struct {
	gateway    Gateway
	externalID string
	listener   Listener
	opts       Options
	logger     *zap.Logger

	mu           sync.Mutex
	open         bool
	gen          uint64
	session      domain.PaymentSession
	ticks        int
	scope        *scope
	successTimer clock.Stopper
}

// New creates a closed orchestrator paying on behalf of externalID
func New(gw Gateway, externalID string, listener Listener, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	if listener == nil {
		listener = NopListener{}
	}
	return &Orchestrator{
		gateway:    gw,
		externalID: externalID,
		listener:   listener,
		opts:       opts,
		logger:     opts.Logger.With(zap.String("clerk_id", externalID)),
		session:    domain.PaymentSession{Amount: opts.Amount, Step: domain.StepInput},
	}
}

// Open starts a fresh session, discarding anything left from a previous one
func (o *Orchestrator) Open() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closeLocked()
	o.open = true
	o.ticks = 0
	o.session = domain.PaymentSession{
		Amount:           o.opts.Amount,
		Step:             domain.StepInput,
		CountdownSeconds: o.opts.CountdownSeconds,
	}

	o.logger.Debug("Payment session opened")
	o.listener.OnUpdate(o.session)
}

// Close tears the session down without a navigation signal. Safe to call
// at any time and more than once.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked()
}

// Cancel closes the session and signals the caller to close the dialog
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	wasOpen := o.open
	o.closeLocked()
	if wasOpen {
		o.listener.OnNavigate(domain.NavigateClose)
	}
}

// Snapshot returns the current session state
func (o *Orchestrator) Snapshot() domain.PaymentSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// IsOpen reports whether the session is open
func (o *Orchestrator) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// SetPhone stores the normalized form of raw and returns it
func (o *Orchestrator) SetPhone(raw string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.open {
		return "", ErrClosed
	}
	if o.session.Step != domain.StepInput {
		return o.session.PhoneNumber, ErrInvalidTransition
	}

	o.session.PhoneNumber = domain.NormalizePhone(raw, o.opts.CountryCode)
	o.listener.OnUpdate(o.session)
	return o.session.PhoneNumber, nil
}

// CanSubmit reports whether Submit would be accepted
func (o *Orchestrator) CanSubmit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open && o.session.Step == domain.StepInput &&
		domain.ValidatePhone(o.session.PhoneNumber) == nil
}

// Submit requests the push payment and, once accepted, starts polling for
// the outcome. Validation failures are returned as *domain.ValidationError.
// Gateway rejections and transport failures are not returned: they move the
// session to failed and are reported through the Listener.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()

	if !o.open {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.session.Step != domain.StepInput {
		o.mu.Unlock()
		return ErrInvalidTransition
	}
	if err := domain.ValidatePhone(o.session.PhoneNumber); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			o.listener.OnNotice(Notice{Level: NoticeError, Title: "Invalid Number", Message: verr.Message})
		}
		o.mu.Unlock()
		return err
	}

	o.ticks = 0
	o.session.ProgressPercent = 0
	o.session.CountdownSeconds = o.opts.CountdownSeconds
	o.session.FailureMessage = ""
	o.setStepLocked(domain.StepProcessing)

	sc := o.acquireLocked()
	req := gateway.NewInitiateRequest(
		domain.InternationalPhone(o.opts.CountryCode, o.session.PhoneNumber),
		o.opts.Amount,
		o.externalID,
	)
	o.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(sc.ctx, cancel)
	result, err := o.gateway.InitiatePush(reqCtx, req)
	stop()
	cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.scope != sc {
		o.logger.Debug("Ignoring STK push response for a finished attempt")
		return nil
	}

	if err != nil {
		o.logger.Error("STK push request failed", zap.Error(err))
		o.failLocked("Network Error", msgNetwork)
		return nil
	}

	switch r := result.(type) {
	case gateway.InitiateAccepted:
		if r.TrackingID == "" {
			o.failLocked("Payment Error", msgInitiateFailed)
			return nil
		}
		o.session.TrackingID = r.TrackingID
		sc.add(o.opts.Clock.Every(o.opts.PollInterval, func() { o.poll(sc) }))

		o.logger.Info("STK push sent", zap.String("tracking_id", r.TrackingID))
		o.listener.OnUpdate(o.session)
		o.listener.OnNotice(Notice{Level: NoticeInfo, Title: "STK Push Sent", Message: msgPinPrompt})
	case gateway.InitiateRejected:
		msg := r.Message
		if msg == "" {
			msg = msgInitiateFailed
		}
		o.logger.Warn("STK push rejected", zap.Int("status", r.StatusCode), zap.String("message", r.Message))
		o.failLocked("Payment Error", msg)
	default:
		o.failLocked("Payment Error", msgInitiateFailed)
	}

	return nil
}

// Retry returns a failed session to phone entry
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.open {
		return ErrClosed
	}
	if o.session.Step != domain.StepFailed {
		return ErrInvalidTransition
	}

	o.ticks = 0
	o.session.TrackingID = ""
	o.session.ProgressPercent = 0
	o.session.CountdownSeconds = o.opts.CountdownSeconds
	o.session.FailureMessage = ""
	o.setStepLocked(domain.StepInput)
	return nil
}

// acquireLocked starts the processing scope with its progress tick
func (o *Orchestrator) acquireLocked() *scope {
	sc := newScope()
	sc.add(o.opts.Clock.Every(o.opts.TickInterval, func() { o.tick(sc) }))
	o.scope = sc
	return sc
}

// releaseLocked ends the processing scope, if any
func (o *Orchestrator) releaseLocked() {
	if o.scope != nil {
		o.scope.release()
		o.scope = nil
	}
}

func (o *Orchestrator) teardownLocked() {
	o.releaseLocked()
	if o.successTimer != nil {
		o.successTimer.Stop()
		o.successTimer = nil
	}
}

func (o *Orchestrator) closeLocked() {
	o.teardownLocked()
	if o.open {
		o.logger.Debug("Payment session closed", zap.String("step", string(o.session.Step)))
		o.listener.OnClose(o.session)
	}
	o.open = false
	o.gen++
}

func (o *Orchestrator) setStepLocked(to domain.PaymentStep) {
	from := o.session.Step
	if !domain.CanTransition(from, to) {
		o.logger.Error("Refusing invalid step transition",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return
	}
	o.session.Step = to
	o.listener.OnUpdate(o.session)
}

func (o *Orchestrator) failLocked(title, message string) {
	o.releaseLocked()
	o.session.FailureMessage = message
	o.setStepLocked(domain.StepFailed)
	o.listener.OnNotice(Notice{Level: NoticeError, Title: title, Message: message})
}

func (o *Orchestrator) succeedLocked() {
	o.releaseLocked()
	o.session.ProgressPercent = 100
	o.setStepLocked(domain.StepSuccess)
	o.logger.Info("Payment confirmed", zap.String("tracking_id", o.session.TrackingID))

	gen := o.gen
	o.successTimer = o.opts.Clock.AfterFunc(o.opts.SuccessDelay, func() { o.finish(gen) })
}

func (o *Orchestrator) finish(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen || !o.open || o.session.Step != domain.StepSuccess {
		return
	}
	o.closeLocked()
	o.listener.OnNavigate(domain.NavigateProfileCreation)
}

func (o *Orchestrator) tick(sc *scope) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.scope != sc {
		return
	}

	o.ticks++
	o.session.CountdownSeconds = max(0, o.opts.CountdownSeconds-o.ticks)
	o.session.ProgressPercent = min(100, o.ticks*100/o.opts.CountdownSeconds)
	o.listener.OnTick(o.session)

	if o.session.CountdownSeconds == 0 {
		o.logger.Warn("Payment confirmation timed out", zap.String("tracking_id", o.session.TrackingID))
		o.failLocked("Payment Timed Out", msgTimeout)
	}
}

func (o *Orchestrator) poll(sc *scope) {
	o.mu.Lock()
	if o.scope != sc || o.session.TrackingID == "" {
		o.mu.Unlock()
		return
	}
	trackingID := o.session.TrackingID
	o.mu.Unlock()

	status, err := o.gateway.PaymentStatus(sc.ctx, trackingID)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.scope != sc {
		return
	}
	if err != nil {
		o.logger.Debug("Status poll failed, still pending",
			zap.String("tracking_id", trackingID),
			zap.Error(err),
		)
		return
	}

	switch status {
	case domain.PaymentSuccess:
		o.succeedLocked()
	case domain.PaymentFailed:
		o.failLocked("Payment Failed", msgPaymentFailed)
	}
}
