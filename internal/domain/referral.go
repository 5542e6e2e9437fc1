package domain

import "strings"

const (
	// SentinelReferralCode marks an organic signup with no sales attribution
	SentinelReferralCode = "MYGIGS-DEFAULT"
	// PlatformName is credited for organic signups
	PlatformName = "MyGigs Africa"
)

// ReferralVerification is the state of the referral step for one visit
type ReferralVerification struct {
	Code            string
	Verified        bool
	IsCompanyCode   bool
	SalesPersonName string
}

// ReferralMetadata is shared between the components of one onboarding session
type ReferralMetadata struct {
	Code            string
	SalesPersonID   string
	SalesPersonName string
	Organic         bool
	ClientName      string
	ClientPhone     string
}

// NormalizeReferralCode trims and upper-cases a code
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsSentinelCode reports whether code is the reserved organic code
func IsSentinelCode(code string) bool {
	return NormalizeReferralCode(code) == SentinelReferralCode
}
