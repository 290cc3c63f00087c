package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

const (
	providerName = "paypal"

	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
)

// Gateway drives payments through the PayPal Orders v2 API. Initiation
// creates an order and redirects the payer to the approve link; the caller
// captures the order when the payer returns.
type Gateway struct {
	cfg        internal.PayPalConfig
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(cfg internal.PayPalConfig, logger *slog.Logger) (*Gateway, error) {
	if cfg.ClientID == "" {
		return nil, internal.NewMissingCredentialsError("paypal", "client_id")
	}
	if cfg.ClientSecret == "" {
		return nil, internal.NewMissingCredentialsError("paypal", "client_secret")
	}
	if cfg.Environment != "sandbox" && cfg.Environment != "live" {
		return nil, internal.NewInvalidEnvironmentError("paypal", cfg.Environment)
	}

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		if cfg.Environment == "live" {
			baseURL = liveBaseURL
		} else {
			baseURL = sandboxBaseURL
		}
	}

	return &Gateway{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

type orderLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type orderCapture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type purchaseUnit struct {
	ReferenceID string      `json:"reference_id,omitempty"`
	Amount      orderAmount `json:"amount"`
	Description string      `json:"description,omitempty"`
	Payments    *struct {
		Captures []orderCapture `json:"captures"`
	} `json:"payments,omitempty"`
}

type order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	Links         []orderLink    `json:"links"`
}

type apiError struct {
	httpStatus int
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("paypal api error (%d): %s: %s", e.httpStatus, e.Name, e.Message)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// Initiate creates a CAPTURE-intent order and returns the approve link the
// payer must visit.
func (g *Gateway) Initiate(ctx context.Context, req *payment.Request) (*payment.Response, error) {
	g.logger.Info("initiating paypal payment",
		"order_id", req.OrderID,
		"amount", req.Amount,
		"currency", req.Currency)

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": req.OrderID,
			"amount": map[string]string{
				"currency_code": strings.ToUpper(req.Currency),
				"value":         formatAmount(req.Amount),
			},
			"description": req.Description(),
		}},
		"application_context": map[string]string{
			"cancel_url":   req.CancelURL,
			"return_url":   req.ReturnURL,
			"landing_page": "BILLING",
			"user_action":  "PAY_NOW",
		},
	}

	var created order
	if err := g.call(ctx, http.MethodPost, "/v2/checkout/orders", body, &created); err != nil {
		return nil, g.wrapError(err, req.OrderID)
	}

	approveLink := ""
	for _, link := range created.Links {
		if link.Rel == "approve" {
			approveLink = link.Href
			break
		}
	}
	if approveLink == "" {
		return nil, internal.NewInvalidResponseError(providerName, "approval link not found in response")
	}

	return payment.NewResponse(payment.Response{
		Type: payment.TypeRedirect,
		Data: map[string]any{
			"order_id": created.ID,
			"status":   created.Status,
			"amount":   req.Amount,
			"currency": req.Currency,
		},
		RedirectURL: approveLink,
	})
}

// Capture settles an approved order.
func (g *Gateway) Capture(ctx context.Context, paymentID string) (*payment.Result, error) {
	var captured order
	path := "/v2/checkout/orders/" + url.PathEscape(paymentID) + "/capture"
	if err := g.call(ctx, http.MethodPost, path, map[string]any{}, &captured); err != nil {
		return nil, g.wrapError(err, paymentID)
	}

	success := captured.Status == "COMPLETED"
	status := captured.Status
	message := "Payment status: " + captured.Status
	if success {
		status = payment.StatusCompleted
		message = "Payment captured successfully"
	}

	return payment.NewResult(payment.Result{
		Success:       success,
		Status:        status,
		PaymentID:     paymentID,
		TransactionID: firstCaptureID(captured),
		Message:       message,
	})
}

// Refund looks up the order's capture and refunds it: fully when amount is
// nil, the stated EUR amount otherwise.
func (g *Gateway) Refund(ctx context.Context, paymentID string, amount *float64) (*payment.Result, error) {
	var ord order
	if err := g.call(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(paymentID), nil, &ord); err != nil {
		return nil, g.wrapError(err, paymentID)
	}

	captureID := firstCaptureID(ord)
	if captureID == "" {
		return nil, internal.NewRefundNotAvailableError(providerName, "no capture found for this payment")
	}

	var body map[string]any
	if amount != nil {
		body = map[string]any{
			"amount": map[string]string{
				"value":         formatAmount(*amount),
				"currency_code": "EUR",
			},
		}
	} else {
		body = map[string]any{}
	}

	var refunded struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := "/v2/payments/captures/" + url.PathEscape(captureID) + "/refund"
	if err := g.call(ctx, http.MethodPost, path, body, &refunded); err != nil {
		return nil, g.wrapError(err, paymentID)
	}

	success := refunded.Status == "COMPLETED"
	status := refunded.Status
	message := "Refund status: " + refunded.Status
	if success {
		status = payment.StatusRefunded
		message = "Refund processed successfully"
	}

	return payment.NewResult(payment.Result{
		Success:       success,
		Status:        status,
		TransactionID: refunded.ID,
		Message:       message,
	})
}

// GetStatus reads the order and reports PayPal's own status string.
func (g *Gateway) GetStatus(ctx context.Context, paymentID string) (*payment.Result, error) {
	var ord order
	if err := g.call(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(paymentID), nil, &ord); err != nil {
		return nil, g.wrapError(err, paymentID)
	}

	data := map[string]any{"status": ord.Status}
	if len(ord.PurchaseUnits) > 0 {
		data["amount"] = ord.PurchaseUnits[0].Amount.Value
		data["currency"] = ord.PurchaseUnits[0].Amount.CurrencyCode
	}

	return payment.NewResult(payment.Result{
		Success:       ord.Status == "COMPLETED",
		Status:        ord.Status,
		PaymentID:     paymentID,
		TransactionID: firstCaptureID(ord),
		Data:          data,
	})
}

// VerifyCallback reports not_supported: the payer returns with an order token
// in the URL and the caller captures it directly.
func (g *Gateway) VerifyCallback(data map[string]string) (*payment.Result, error) {
	return payment.NewResult(payment.Result{
		Success: false,
		Status:  payment.StatusNotSupported,
		Message: "PayPal uses order capture for callbacks",
	})
}

func firstCaptureID(ord order) string {
	if len(ord.PurchaseUnits) == 0 || ord.PurchaseUnits[0].Payments == nil {
		return ""
	}
	captures := ord.PurchaseUnits[0].Payments.Captures
	if len(captures) == 0 {
		return ""
	}
	return captures[0].ID
}

// token returns a cached OAuth access token, refreshing it through the
// client-credentials grant when expired.
func (g *Gateway) token(ctx context.Context) (string, error) {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()

	if g.accessToken != "" && time.Now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.cfg.ClientID, g.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized {
			return "", internal.NewInvalidAPIKeyError(providerName)
		}
		return "", parseAPIError(resp.StatusCode, raw)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", err
	}

	g.accessToken = tok.AccessToken
	// renew a minute early
	g.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return g.accessToken, nil
}

func (g *Gateway) call(ctx context.Context, method, path string, body any, out any) error {
	token, err := g.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

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
		return parseAPIError(resp.StatusCode, raw)
	}

	return json.Unmarshal(raw, out)
}

func parseAPIError(status int, raw []byte) *apiError {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	apiErr.httpStatus = status
	return &apiErr
}

func (g *Gateway) wrapError(err error, paymentID string) error {
	var pe *internal.PaymentError
	if errors.As(err, &pe) {
		return pe
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.httpStatus == http.StatusNotFound {
			return internal.NewPaymentNotFoundError(providerName, paymentID)
		}
		g.logger.Error("paypal api error",
			"status", apiErr.httpStatus,
			"name", apiErr.Name,
			"message", apiErr.Message)
		return internal.NewProviderAPIError(providerName, apiErr.Message,
			fmt.Sprintf("%d", apiErr.httpStatus)).WithCause(err)
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
