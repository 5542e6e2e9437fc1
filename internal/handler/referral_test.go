package handler

import (
	"fmt"
	"testing"

	"gigsbot/internal/domain"
	"gigsbot/internal/referral"

	"github.com/stretchr/testify/assert"
)

func TestReferralMessage(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.ReferralVerification
		err      error
		contains string
		button   string
	}{
		{
			name:     "company code",
			state:    domain.ReferralVerification{Code: domain.SentinelReferralCode, Verified: true, IsCompanyCode: true},
			contains: "Welcome to MyGigs Africa!",
			button:   btnContinue.Unique,
		},
		{
			name:     "sales referral",
			state:    domain.ReferralVerification{Code: "AB12CD", Verified: true, SalesPersonName: "Jane Wanjiku"},
			contains: "Thanks for being referred by Jane Wanjiku",
			button:   btnContinue.Unique,
		},
		{
			name:     "already verified",
			state:    domain.ReferralVerification{Code: "AB12CD", Verified: true, SalesPersonName: "Jane Wanjiku"},
			err:      referral.ErrAlreadyVerified,
			contains: "Referral Applied!",
			button:   btnContinue.Unique,
		},
		{
			name:     "empty code",
			err:      &domain.ValidationError{Field: "referral_code", Message: "Please enter a referral code"},
			contains: "Please enter a referral code",
			button:   btnSkipReferral.Unique,
		},
		{
			name:     "rejected code",
			state:    domain.ReferralVerification{Code: "BOGUS1"},
			err:      &referral.RejectionError{Code: "BOGUS1", Message: "The referral code you entered is not valid"},
			contains: "Invalid Code",
			button:   btnSkipReferral.Unique,
		},
		{
			name:     "lookup failure",
			state:    domain.ReferralVerification{Code: "AB12CD"},
			err:      fmt.Errorf("%w: timeout", referral.ErrVerificationUnavailable),
			contains: "Could not verify the code. Please try again.",
			button:   btnSkipReferral.Unique,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, markup := referralMessage(tt.state, tt.err)

			assert.Contains(t, text, tt.contains)
			if assert.NotNil(t, markup) && assert.Len(t, markup.InlineKeyboard, 1) {
				assert.Equal(t, tt.button, markup.InlineKeyboard[0][0].Unique)
			}
		})
	}
}

func TestReferralMessage_InProgress(t *testing.T) {
	text, markup := referralMessage(domain.ReferralVerification{}, referral.ErrInProgress)

	assert.Contains(t, text, "Checking your code")
	assert.Nil(t, markup)
}
