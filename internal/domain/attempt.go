package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAttempt is the audit record of an accepted push payment
type PaymentAttempt struct {
	ID          uuid.UUID
	UserID      int64
	ExternalID  string
	TrackingID  string
	PhoneNumber string
	Amount      decimal.Decimal
	Status      PaymentStatus
	CreatedAt   time.Time
	FinishedAt  *time.Time
}
