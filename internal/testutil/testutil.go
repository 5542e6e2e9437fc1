package testutil

import (
	"time"

	"gigsbot/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, externalID string) *domain.User {
	return &domain.User{
		UserID:     userID,
		ExternalID: externalID,
		CreatedAt:  time.Now(),
	}
}

// NewTestAttempt creates a pending payment attempt
func NewTestAttempt(userID int64, trackingID string) *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		ID:          uuid.New(),
		UserID:      userID,
		ExternalID:  "user_2abc",
		TrackingID:  trackingID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(250),
		Status:      domain.PaymentPending,
		CreatedAt:   time.Now(),
	}
}
