package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

const (
	providerName   = "stripe"
	defaultBaseURL = "https://api.stripe.com"
)

// Gateway drives payments through the Stripe Payment Intents API. Initiation
// returns a client secret the frontend confirms with Stripe.js; server-side
// calls use the form-encoded REST API with bearer authentication.
type Gateway struct {
	cfg        internal.StripeConfig
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg internal.StripeConfig, logger *slog.Logger) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, internal.NewMissingCredentialsError("stripe", "secret_key")
	}

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Gateway{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

type paymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Created      int64  `json:"created"`
	LatestCharge string `json:"latest_charge"`
}

type refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiError struct {
	httpStatus int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("stripe api error (%d): %s", e.httpStatus, e.Message)
}

func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Initiate creates a payment intent with automatic payment methods enabled.
func (g *Gateway) Initiate(ctx context.Context, req *payment.Request) (*payment.Response, error) {
	g.logger.Info("initiating stripe payment",
		"order_id", req.OrderID,
		"amount", req.Amount,
		"currency", req.Currency)

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountToCents(req.Amount), 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[order_id]", req.OrderID)
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent paymentIntent
	if err := g.call(ctx, http.MethodPost, "/v1/payment_intents", form, &intent); err != nil {
		return nil, g.wrapError(err, "")
	}

	return payment.NewResponse(payment.Response{
		Type: payment.TypeAPI,
		Data: map[string]any{
			"payment_intent_id": intent.ID,
			"amount":            req.Amount,
			"currency":          req.Currency,
		},
		ClientSecret: intent.ClientSecret,
	})
}

// Capture confirms the intent reached its terminal succeeded state. Stripe
// captures automatically with default intents, so this is a status read.
func (g *Gateway) Capture(ctx context.Context, paymentID string) (*payment.Result, error) {
	var intent paymentIntent
	if err := g.call(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(paymentID), nil, &intent); err != nil {
		return nil, g.wrapError(err, paymentID)
	}

	succeeded := intent.Status == "succeeded"
	status := intent.Status
	message := "Payment not completed. Current status: " + intent.Status
	if succeeded {
		status = payment.StatusCompleted
		message = "Payment captured successfully."
	}

	txID := intent.LatestCharge
	if txID == "" {
		txID = paymentID
	}

	return payment.NewResult(payment.Result{
		Success:       succeeded,
		Status:        status,
		PaymentID:     paymentID,
		TransactionID: txID,
		Message:       message,
	})
}

// Refund reverses a payment by intent or charge identifier. The pi_ and ch_
// prefixes select the refund target; unknown prefixes are treated as intents.
func (g *Gateway) Refund(ctx context.Context, paymentID string, amount *float64) (*payment.Result, error) {
	form := url.Values{}
	switch {
	case strings.HasPrefix(paymentID, "ch_"):
		form.Set("charge", paymentID)
	default:
		form.Set("payment_intent", paymentID)
	}
	if amount != nil {
		form.Set("amount", strconv.FormatInt(amountToCents(*amount), 10))
	}

	var ref refund
	if err := g.call(ctx, http.MethodPost, "/v1/refunds", form, &ref); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "has already been refunded") {
			return nil, internal.NewRefundNotAvailableError(providerName, "payment has already been refunded")
		}
		return nil, g.wrapError(err, paymentID)
	}

	succeeded := ref.Status == "succeeded"
	status := ref.Status
	message := "Refund status: " + ref.Status
	if succeeded {
		status = payment.StatusRefunded
		message = "Refund processed successfully."
	}

	return payment.NewResult(payment.Result{
		Success:       succeeded,
		Status:        status,
		TransactionID: ref.ID,
		Message:       message,
	})
}

// GetStatus reads the intent and reports Stripe's own status string.
func (g *Gateway) GetStatus(ctx context.Context, paymentID string) (*payment.Result, error) {
	var intent paymentIntent
	if err := g.call(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(paymentID), nil, &intent); err != nil {
		return nil, g.wrapError(err, paymentID)
	}

	return payment.NewResult(payment.Result{
		Success:       intent.Status == "succeeded",
		Status:        intent.Status,
		PaymentID:     paymentID,
		TransactionID: intent.LatestCharge,
		Data: map[string]any{
			"amount":   float64(intent.Amount) / 100,
			"currency": strings.ToUpper(intent.Currency),
			"created":  time.Unix(intent.Created, 0).UTC().Format(time.RFC3339),
		},
	})
}

// VerifyCallback reports not_supported: Stripe confirms payments through
// signed webhooks, not redirect callbacks.
func (g *Gateway) VerifyCallback(data map[string]string) (*payment.Result, error) {
	return payment.NewResult(payment.Result{
		Success: false,
		Status:  payment.StatusNotSupported,
		Message: "Stripe uses webhooks instead of callbacks",
	})
}

func (g *Gateway) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error apiError `json:"error"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Error.Message == "" {
			wrapper.Error.Message = http.StatusText(resp.StatusCode)
		}
		wrapper.Error.httpStatus = resp.StatusCode
		return &wrapper.Error
	}

	return json.Unmarshal(raw, out)
}

// wrapError maps transport and API failures onto the gateway error taxonomy.
func (g *Gateway) wrapError(err error, paymentID string) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.httpStatus == http.StatusNotFound {
			return internal.NewPaymentNotFoundError(providerName, paymentID)
		}
		g.logger.Error("stripe api error",
			"status", apiErr.httpStatus,
			"code", apiErr.Code,
			"message", apiErr.Message)
		return internal.NewProviderAPIError(providerName, apiErr.Message, apiErr.Code).WithCause(err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return internal.NewTimeoutError(providerName).WithCause(err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return internal.NewConnectionError(providerName).WithCause(err)
	}
	return internal.NewInvalidResponseError(providerName, err.Error()).WithCause(err)
}
