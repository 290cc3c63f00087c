package payment

import (
	"strings"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/common/validation"
)

// Common status values. Providers may emit proprietary statuses outside this
// list; anything matching the safe character class is accepted.
const (
	StatusCompleted    = "completed"
	StatusPending      = "pending"
	StatusProcessing   = "processing"
	StatusAuthorized   = "authorized"
	StatusFailed       = "failed"
	StatusRefunded     = "refunded"
	StatusCancelled    = "cancelled"
	StatusExpired      = "expired"
	StatusUnavailable  = "unavailable"
	StatusNotSupported = "not_supported"
)

var knownStatuses = map[string]struct{}{
	StatusCompleted:    {},
	StatusPending:      {},
	StatusProcessing:   {},
	StatusAuthorized:   {},
	StatusFailed:       {},
	StatusRefunded:     {},
	StatusCancelled:    {},
	StatusExpired:      {},
	StatusUnavailable:  {},
	StatusNotSupported: {},
}

// NormalizeStatus folds case and the '-'/'_' distinction so provider spellings
// like "Not-Supported" compare equal to the known list.
func NormalizeStatus(status string) string {
	return strings.ReplaceAll(strings.ToLower(status), "-", "_")
}

func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[NormalizeStatus(status)]
	return ok
}

// Result is the terminal artifact of a capture, refund, status or verify
// operation, handed to the caller for side-effect dispatch.
type Result struct {
	Success       bool
	Status        string
	PaymentID     string
	TransactionID string
	Message       string
	Data          map[string]any
}

// NewResult validates and returns an owned copy. A successful result must
// carry at least one identifying handle; one without is rejected outright.
func NewResult(res Result) (*Result, error) {
	if err := validation.Status(res.Status); err != nil {
		return nil, err
	}
	if err := validation.MaxLength("payment_id", res.PaymentID, validation.MaxIDLength); err != nil {
		return nil, err
	}
	if err := validation.MaxLength("transaction_id", res.TransactionID, validation.MaxIDLength); err != nil {
		return nil, err
	}
	if err := validation.MaxLength("message", res.Message, validation.MaxMessageLength); err != nil {
		return nil, err
	}
	if res.Success && res.PaymentID == "" && res.TransactionID == "" {
		return nil, errors.NewValidationError("payment_id", "successful result requires a payment or transaction identifier")
	}

	if res.Data != nil {
		data := make(map[string]any, len(res.Data))
		for k, v := range res.Data {
			data[k] = v
		}
		res.Data = data
	}

	return &res, nil
}
