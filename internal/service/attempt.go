package service

import (
	"fmt"
	"time"

	"gigsbot/internal/domain"
	"gigsbot/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AttemptService keeps the audit trail of push payments
type AttemptService struct {
	attemptRepo repository.AttemptRepository
	logger      *zap.Logger
}

// NewAttemptService creates a new attempt service
func NewAttemptService(attemptRepo repository.AttemptRepository, logger *zap.Logger) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		logger:      logger,
	}
}

// Record stores a newly accepted push payment as pending
func (s *AttemptService) Record(userID int64, externalID, trackingID, phone string, amount decimal.Decimal) (*domain.PaymentAttempt, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("tracking id cannot be empty")
	}

	attempt := &domain.PaymentAttempt{
		ID:          uuid.New(),
		UserID:      userID,
		ExternalID:  externalID,
		TrackingID:  trackingID,
		PhoneNumber: phone,
		Amount:      amount,
		Status:      domain.PaymentPending,
	}
	if err := s.attemptRepo.CreateAttempt(attempt); err != nil {
		return nil, fmt.Errorf("record attempt %s: %w", trackingID, err)
	}

	s.logger.Info("Payment attempt recorded",
		zap.Int64("user_id", userID),
		zap.String("tracking_id", trackingID),
		zap.String("attempt_id", attempt.ID.String()),
	)
	return attempt, nil
}

// Finish stores the final outcome of an attempt
func (s *AttemptService) Finish(trackingID string, status domain.PaymentStatus) error {
	if status == domain.PaymentPending {
		return fmt.Errorf("attempt %s: pending is not a final status", trackingID)
	}
	return s.attemptRepo.FinishAttempt(trackingID, status)
}

// Cleanup abandons attempts left pending for longer than staleAfter, then
// deletes attempts created more than retentionDays ago
func (s *AttemptService) Cleanup(staleAfter time.Duration, retentionDays int) error {
	if staleAfter <= 0 || retentionDays <= 0 {
		return fmt.Errorf("invalid cleanup window: stale after %s, retention %d days", staleAfter, retentionDays)
	}

	s.logger.Info("Starting cleanup of payment attempts",
		zap.Duration("stale_after", staleAfter),
		zap.Int("retention_days", retentionDays),
	)

	expired, err := s.attemptRepo.ExpirePendingAttempts(staleAfter)
	if err != nil {
		s.logger.Error("Failed to expire pending attempts", zap.Error(err))
		return fmt.Errorf("expire pending attempts: %w", err)
	}

	deleted, err := s.attemptRepo.CleanOldAttempts(retentionDays)
	if err != nil {
		s.logger.Error("Failed to delete old attempts", zap.Error(err))
		return fmt.Errorf("delete old attempts: %w", err)
	}

	s.logger.Info("Cleanup completed successfully",
		zap.Int64("abandoned", expired),
		zap.Int64("deleted", deleted),
	)
	return nil
}
