package repository

import (
	"errors"
	"time"

	"gigsbot/internal/domain"
)

// ErrExternalIDTaken is returned when a concurrent link claimed the identity first
var ErrExternalIDTaken = errors.New("external id is linked to another user")

// UserRepository defines user data operations
type UserRepository interface {
	EnsureUserExists(userID int64) error
	GetUser(userID int64) (*domain.User, error)
	LinkExternalID(userID int64, externalID string) (moved bool, err error)
	SaveReferral(userID int64, code string, organic bool) error
}

// AttemptRepository defines payment attempt data operations
type AttemptRepository interface {
	CreateAttempt(attempt *domain.PaymentAttempt) error
	FinishAttempt(trackingID string, status domain.PaymentStatus) error
	ExpirePendingAttempts(olderThan time.Duration) (int64, error)
	CleanOldAttempts(days int) (int64, error)
}
