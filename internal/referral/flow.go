// Package referral runs the optional referral step between payment and
// profile creation.
package referral

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gigsbot/internal/domain"
	"gigsbot/internal/gateway"

	"go.uber.org/zap"
)

const msgInvalidCode = "The referral code you entered is not valid"

var (
	// ErrVerificationUnavailable is returned when the lookup itself failed
	ErrVerificationUnavailable = errors.New("referral: verification unavailable")
	ErrAlreadyVerified         = errors.New("referral: already verified")
	ErrNotVerified             = errors.New("referral: not verified")
	ErrAlreadyProceeded        = errors.New("referral: already proceeded")
	ErrInProgress              = errors.New("referral: verification in progress")
)

// RejectionError means the backend did not accept the code
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("referral code %q rejected: %s", e.Code, e.Message)
}

// Gateway is the backend used to verify and record referrals
type Gateway interface {
	VerifyReferralCode(ctx context.Context, code string) (gateway.VerifyResult, error)
	ConfirmReferral(ctx context.Context, req gateway.ConfirmRequest) error
}

// Flow is the referral step of one onboarding session
type Flow struct {
	gateway    Gateway
	store      *Store
	externalID string
	logger     *zap.Logger

	mu        sync.Mutex
	state     domain.ReferralVerification
	verifying bool
	proceeded bool
}

// NewFlow creates an unverified flow publishing into store
func NewFlow(gw Gateway, store *Store, externalID string, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		gateway:    gw,
		store:      store,
		externalID: externalID,
		logger:     logger.With(zap.String("clerk_id", externalID)),
	}
}

// State returns the current verification state
func (f *Flow) State() domain.ReferralVerification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit verifies a referral code. An empty code is a *domain.ValidationError,
// an unknown code a *RejectionError. Both leave the flow unverified.
func (f *Flow) Submit(ctx context.Context, raw string) (domain.ReferralVerification, error) {
	code := domain.NormalizeReferralCode(raw)

	f.mu.Lock()
	if f.state.Verified {
		defer f.mu.Unlock()
		return f.state, ErrAlreadyVerified
	}
	if f.verifying {
		defer f.mu.Unlock()
		return f.state, ErrInProgress
	}
	f.state.Code = code

	if code == "" {
		defer f.mu.Unlock()
		return f.state, &domain.ValidationError{Field: "referral_code", Message: "Please enter a referral code"}
	}

	if code == domain.SentinelReferralCode {
		f.state = domain.ReferralVerification{
			Code:            code,
			Verified:        true,
			IsCompanyCode:   true,
			SalesPersonName: domain.PlatformName,
		}
		state := f.state
		f.mu.Unlock()

		f.logger.Info("Organic signup selected")
		f.store.SetReferral(code, "", domain.PlatformName, true)
		return state, nil
	}

	f.verifying = true
	f.mu.Unlock()

	result, err := f.gateway.VerifyReferralCode(ctx, code)

	f.mu.Lock()
	f.verifying = false

	if err != nil {
		state := f.state
		f.mu.Unlock()
		f.logger.Error("Referral verification failed", zap.String("code", code), zap.Error(err))
		return state, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}

	switch r := result.(type) {
	case gateway.VerifyValid:
		f.state = domain.ReferralVerification{
			Code:            code,
			Verified:        true,
			SalesPersonName: r.SalesPerson.Name,
		}
		state := f.state
		f.mu.Unlock()

		f.logger.Info("Referral code verified",
			zap.String("code", code),
			zap.String("sales_person_id", r.SalesPerson.ID),
		)
		f.store.SetReferral(code, r.SalesPerson.ID, r.SalesPerson.Name, false)
		return state, nil
	case gateway.VerifyInvalid:
		state := f.state
		f.mu.Unlock()

		msg := r.Message
		if msg == "" {
			msg = msgInvalidCode
		}
		f.logger.Info("Referral code rejected", zap.String("code", code))
		return state, &RejectionError{Code: code, Message: msg}
	default:
		state := f.state
		f.mu.Unlock()
		return state, &RejectionError{Code: code, Message: msgInvalidCode}
	}
}

// Skip takes the organic path without a code
func (f *Flow) Skip(ctx context.Context) (domain.ReferralVerification, error) {
	return f.Submit(ctx, domain.SentinelReferralCode)
}

// Proceed hands off to profile creation. It succeeds once, and only after
// verification. Recording the referral on the backend is best effort.
func (f *Flow) Proceed(ctx context.Context) (domain.Navigation, error) {
	f.mu.Lock()
	if !f.state.Verified {
		f.mu.Unlock()
		return domain.NavigateNone, ErrNotVerified
	}
	if f.proceeded {
		f.mu.Unlock()
		return domain.NavigateNone, ErrAlreadyProceeded
	}
	f.proceeded = true
	code := f.state.Code
	f.mu.Unlock()

	if f.externalID != "" {
		err := f.gateway.ConfirmReferral(ctx, gateway.ConfirmRequest{ReferralCode: code, ClerkID: f.externalID})
		var cerr *gateway.ConfirmError
		switch {
		case err == nil:
			f.logger.Info("Referral confirmed", zap.String("code", code))
		case errors.As(err, &cerr) && cerr.Code == "ALREADY_CONFIRMED":
			f.logger.Info("Referral was already confirmed", zap.String("code", code))
		default:
			f.logger.Warn("Failed to confirm referral", zap.String("code", code), zap.Error(err))
		}
	}

	return domain.NavigateProfileCreation, nil
}
