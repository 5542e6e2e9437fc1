package handler

import (
	"gigsbot/internal/domain"
	"gigsbot/internal/payment"
	"gigsbot/internal/referral"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// attemptStore is the part of the attempt service the recorder uses
type attemptStore interface {
	Record(userID int64, externalID, trackingID, phone string, amount decimal.Decimal) (*domain.PaymentAttempt, error)
	Finish(trackingID string, status domain.PaymentStatus) error
}

// attemptRecorder keeps the audit trail of accepted pushes and publishes
// the paying client into the referral store. Its queue is drained, not
// stopped, when the session ends so the last outcome is always written.
type attemptRecorder struct {
	payment.NopListener

	attempts    attemptStore
	store       *referral.Store
	queue       *queue
	userID      int64
	externalID  string
	clientName  string
	countryCode string
	logger      *zap.Logger
	// guarded by the orchestrator, which serializes listener calls
	tracking string
}

func (r *attemptRecorder) OnUpdate(s domain.PaymentSession) {
	switch s.Step {
	case domain.StepProcessing:
		if s.TrackingID == "" || s.TrackingID == r.tracking {
			return
		}
		r.tracking = s.TrackingID
		trackingID := s.TrackingID
		phone := domain.InternationalPhone(r.countryCode, s.PhoneNumber)
		amount := s.Amount

		r.queue.push(func() {
			if _, err := r.attempts.Record(r.userID, r.externalID, trackingID, phone, amount); err != nil {
				r.logger.Error("Failed to record payment attempt",
					zap.Int64("user_id", r.userID),
					zap.String("tracking_id", trackingID),
					zap.Error(err),
				)
			}
			r.store.SetClient(r.clientName, phone)
		})

	default:
		if !s.Step.Terminal() || r.tracking == "" {
			return
		}
		trackingID := r.tracking
		r.tracking = ""
		status := domain.PaymentFailed
		if s.Step == domain.StepSuccess {
			status = domain.PaymentSuccess
		}

		r.queue.push(func() { r.finish(trackingID, status) })
	}
}

// OnClose abandons an attempt that is still waiting for its outcome
func (r *attemptRecorder) OnClose(domain.PaymentSession) {
	if r.tracking == "" {
		return
	}
	trackingID := r.tracking
	r.tracking = ""

	r.queue.push(func() { r.finish(trackingID, domain.PaymentAbandoned) })
}

func (r *attemptRecorder) finish(trackingID string, status domain.PaymentStatus) {
	if err := r.attempts.Finish(trackingID, status); err != nil {
		r.logger.Error("Failed to store payment outcome",
			zap.String("tracking_id", trackingID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
