package domain

import (
	"strings"
	"unicode"
)

// LocalPhoneDigits is the length of a local mobile number without country code
const LocalPhoneDigits = 9

// DefaultCountryCode is the Kenyan dialing prefix
const DefaultCountryCode = "254"

// NormalizePhone keeps digits only and caps the result at LocalPhoneDigits.
// Over-long input starting with the country code or a trunk zero is
// shortened from the left first, so "+254 712 345 678" and "0712345678"
// both become "712345678".
func NormalizePhone(raw, countryCode string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			return r
		}
		return -1
	}, raw)

	if len(digits) > LocalPhoneDigits {
		switch {
		case countryCode != "" && strings.HasPrefix(digits, countryCode):
			digits = strings.TrimPrefix(digits, countryCode)
		case strings.HasPrefix(digits, "0"):
			digits = digits[1:]
		}
	}

	if len(digits) > LocalPhoneDigits {
		digits = digits[:LocalPhoneDigits]
	}
	return digits
}

// ValidatePhone checks a normalized local number
func ValidatePhone(local string) error {
	if len(local) < LocalPhoneDigits {
		return &ValidationError{
			Field:   "phone_number",
			Message: "Please enter a valid M-Pesa number",
		}
	}
	return nil
}

// InternationalPhone prefixes the local number with the country code
func InternationalPhone(countryCode, local string) string {
	return countryCode + local
}

// FormatPhoneDisplay groups local digits as "712 345 678"
func FormatPhoneDisplay(local string) string {
	switch {
	case len(local) <= 3:
		return local
	case len(local) <= 6:
		return local[:3] + " " + local[3:]
	default:
		return local[:3] + " " + local[3:6] + " " + local[6:]
	}
}
