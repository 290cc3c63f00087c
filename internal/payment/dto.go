package payment

import (
	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

// InitiateRequest is the transport payload for starting a payment. Field
// validation beyond presence happens in the datamodel constructor.
type InitiateRequest struct {
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	OrderID         string            `json:"order_id"`
	PaymentMethod   string            `json:"payment_method,omitempty"`
	ReturnURL       string            `json:"return_url,omitempty"`
	CancelURL       string            `json:"cancel_url,omitempty"`
	NotificationURL string            `json:"notification_url,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func (r *InitiateRequest) Validate() error {
	if r.OrderID == "" {
		return errors.NewMissingFieldError("order_id")
	}
	if r.Currency == "" {
		return errors.NewMissingFieldError("currency")
	}
	return nil
}

// ToRequest converts the payload into the datamodel shape.
func (r *InitiateRequest) ToRequest() payment.Request {
	return payment.Request{
		Amount:          r.Amount,
		Currency:        r.Currency,
		OrderID:         r.OrderID,
		Metadata:        r.Metadata,
		ReturnURL:       r.ReturnURL,
		CancelURL:       r.CancelURL,
		NotificationURL: r.NotificationURL,
		Method:          payment.Method(r.PaymentMethod),
	}
}

// InitiateResponse mirrors the gateway response for JSON transport.
type InitiateResponse struct {
	Provider     string         `json:"provider"`
	Type         string         `json:"type"`
	RedirectURL  string         `json:"redirect_url,omitempty"`
	ClientSecret string         `json:"client_secret,omitempty"`
	FormHTML     string         `json:"form_html,omitempty"`
	Data         map[string]any `json:"data"`
}

func NewInitiateResponse(provider string, resp *payment.Response) *InitiateResponse {
	return &InitiateResponse{
		Provider:     provider,
		Type:         string(resp.Type),
		RedirectURL:  resp.RedirectURL,
		ClientSecret: resp.ClientSecret,
		FormHTML:     resp.FormHTML,
		Data:         resp.Data,
	}
}

// RefundRequest carries an optional partial amount; absent means full refund.
type RefundRequest struct {
	Amount *float64 `json:"amount,omitempty"`
}

func (r *RefundRequest) Validate() error {
	if r.Amount != nil && *r.Amount <= 0 {
		return errors.NewInvalidAmountError(*r.Amount, "refund amount must be positive")
	}
	return nil
}

// ResultResponse mirrors an operation result for JSON transport.
type ResultResponse struct {
	Provider      string         `json:"provider"`
	Success       bool           `json:"success"`
	Status        string         `json:"status"`
	PaymentID     string         `json:"payment_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Message       string         `json:"message,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

func NewResultResponse(provider string, result *payment.Result) *ResultResponse {
	return &ResultResponse{
		Provider:      provider,
		Success:       result.Success,
		Status:        result.Status,
		PaymentID:     result.PaymentID,
		TransactionID: result.TransactionID,
		Message:       result.Message,
		Data:          result.Data,
	}
}
