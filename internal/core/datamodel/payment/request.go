package payment

import (
	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/common/validation"
)

// Request describes a single payment attempt. Build it through NewRequest and
// treat it as immutable afterwards: a Request that exists has already passed
// validation, so adapters never re-check its fields.
type Request struct {
	Amount          float64
	Currency        string
	OrderID         string
	Metadata        map[string]string
	ReturnURL       string
	CancelURL       string
	NotificationURL string
	Method          Method
}

// NewRequest validates the given parameters and returns an owned copy.
// Construction fails fast with the specific validation code for the first
// offending field.
func NewRequest(req Request) (*Request, error) {
	if err := validation.Amount(req.Amount); err != nil {
		return nil, err
	}
	if err := validation.Currency(req.Currency); err != nil {
		return nil, err
	}
	if err := validation.OrderID(req.OrderID); err != nil {
		return nil, err
	}
	if desc, ok := req.Metadata["description"]; ok {
		if err := validation.MaxLength("description", desc, validation.MaxDescription); err != nil {
			return nil, err
		}
	}
	if email, ok := req.Metadata["customer_email"]; ok {
		if err := validation.Email(email); err != nil {
			return nil, err
		}
	}
	for field, raw := range map[string]string{
		"return_url":       req.ReturnURL,
		"cancel_url":       req.CancelURL,
		"notification_url": req.NotificationURL,
	} {
		if raw == "" {
			continue
		}
		if err := validation.URL(field, raw); err != nil {
			return nil, err
		}
	}
	if req.Method != "" && !req.Method.Valid() {
		return nil, errors.NewUnsupportedMethodError(string(req.Method), "gateway")
	}

	if req.Metadata != nil {
		meta := make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			meta[k] = v
		}
		req.Metadata = meta
	}

	return &req, nil
}

// Description returns the metadata description or a fallback derived from the
// order ID, matching what providers display to the payer.
func (r *Request) Description() string {
	if desc, ok := r.Metadata["description"]; ok && desc != "" {
		return desc
	}
	return "Order " + r.OrderID
}
