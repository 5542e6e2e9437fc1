package domain

import "github.com/shopspring/decimal"

// PaymentStep is the state of a push-payment attempt
type PaymentStep string

const (
	StepInput      PaymentStep = "input"
	StepProcessing PaymentStep = "processing"
	StepSuccess    PaymentStep = "success"
	StepFailed     PaymentStep = "failed"
)

var stepTransitions = map[PaymentStep][]PaymentStep{
	StepInput:      {StepProcessing},
	StepProcessing: {StepSuccess, StepFailed},
	StepFailed:     {StepInput},
	StepSuccess:    nil,
}

// CanTransition reports whether from -> to is a legal step change within a session.
// Reopening a session is a reset, not a transition.
func CanTransition(from, to PaymentStep) bool {
	for _, next := range stepTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the step ends the current attempt
func (s PaymentStep) Terminal() bool {
	return s == StepSuccess || s == StepFailed
}

// PaymentSession is a point-in-time view of the orchestrator state
type PaymentSession struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	Step             PaymentStep
	TrackingID       string
	ProgressPercent  int
	CountdownSeconds int
	FailureMessage   string
}

// PaymentStatus is the gateway-reported state of a push payment
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	// PaymentAbandoned marks an attempt whose session closed before an outcome
	PaymentAbandoned PaymentStatus = "abandoned"
)

// ParsePaymentStatus maps a raw status; anything unrecognised is still pending
func ParsePaymentStatus(raw string) PaymentStatus {
	switch PaymentStatus(raw) {
	case PaymentSuccess:
		return PaymentSuccess
	case PaymentFailed:
		return PaymentFailed
	default:
		return PaymentPending
	}
}
