package domain

import "time"

// User represents a bot user linked (or not yet) to a marketplace account
type User struct {
	UserID       int64
	ExternalID   string
	ReferralCode string
	Organic      bool
	CreatedAt    time.Time
}

// Linked reports whether the identity provider reference is known
func (u *User) Linked() bool {
	return u != nil && u.ExternalID != ""
}

// UserState represents user's current conversation state
type UserState string

const (
	StateIdle             UserState = "idle"
	StateAwaitingPhone    UserState = "awaiting_phone"
	StateAwaitingReferral UserState = "awaiting_referral"
)

// StateData holds temporary data for user's current state
type StateData struct {
	State     UserState
	MessageID int // For editing messages
}
