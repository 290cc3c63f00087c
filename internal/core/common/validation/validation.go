package validation

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	errors "github.com/frahmantamala/payment-gateway/internal"
)

// Bounds shared by every provider adapter. Validation happens once, at value
// contract construction, so adapters never re-check these.
const (
	MaxAmount        = 999999.99
	MaxOrderIDLength = 255
	MaxDescription   = 500
	MaxStatusLength  = 50
	MaxIDLength      = 255
	MaxMessageLength = 1000
)

var statusPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Amount accepts amounts in major units with minor-unit precision. The upper
// bound is inclusive: 999999.99 passes, one cent more does not.
func Amount(amount float64) *errors.PaymentError {
	if amount <= 0 {
		return errors.NewInvalidAmountError(amount, "amount must be greater than zero")
	}
	if amount > MaxAmount {
		return errors.NewInvalidAmountError(amount, "amount exceeds maximum allowed")
	}
	return nil
}

// Currency requires exactly 3 alphabetic characters (ISO 4217). Case is
// accepted but not normalized here; adapters lower/upper as their wire needs.
func Currency(currency string) *errors.PaymentError {
	if len(currency) != 3 {
		return errors.NewInvalidCurrencyError(currency)
	}
	for _, r := range currency {
		if !unicode.IsLetter(r) {
			return errors.NewInvalidCurrencyError(currency)
		}
	}
	return nil
}

func OrderID(orderID string) *errors.PaymentError {
	if orderID == "" {
		return errors.NewInvalidOrderIDError(orderID, "order ID is required")
	}
	if strings.TrimSpace(orderID) == "" {
		return errors.NewInvalidOrderIDError(orderID, "order ID cannot be whitespace only")
	}
	if len(orderID) > MaxOrderIDLength {
		return errors.NewInvalidOrderIDError(orderID, "order ID exceeds 255 characters")
	}
	return nil
}

// URL checks the value parses with an http(s) scheme and a host.
func URL(field, rawURL string) *errors.PaymentError {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewInvalidURLError(field, rawURL)
	}
	return nil
}

func Email(email string) *errors.PaymentError {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.NewInvalidEmailError(email)
	}
	return nil
}

func MaxLength(field, value string, max int) *errors.PaymentError {
	if len(value) > max {
		return errors.NewFieldLengthError(field, len(value), max)
	}
	return nil
}

// Status accepts any non-empty string from the safe character class, up to 50
// characters. Providers may emit proprietary status strings, so membership in
// the known list is deliberately not required.
func Status(status string) *errors.PaymentError {
	if status == "" {
		return errors.NewMissingFieldError("status")
	}
	if len(status) > MaxStatusLength {
		return errors.NewFieldLengthError("status", len(status), MaxStatusLength)
	}
	if !statusPattern.MatchString(status) {
		return errors.NewValidationError("status", "status contains characters outside [A-Za-z0-9_-]")
	}
	return nil
}
