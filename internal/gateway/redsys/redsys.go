package redsys

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"
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
	providerName = "redsys"

	currencyEUR = "978"

	txTypeAuthorization = "0"
	txTypeRefund        = "3"

	formURLTest = "https://sis-t.redsys.es:25443/sis/realizarPago"
	formURLLive = "https://sis.redsys.es/sis/realizarPago"
	restURLTest = "https://sis-t.redsys.es:25443/sis/rest/trataPeticionREST"
	restURLLive = "https://sis.redsys.es/sis/rest/trataPeticionREST"
)

// merchantParameters is the request blob sent to the bank terminal, base64
// encoded and signed with the per-order key.
type merchantParameters struct {
	Amount          string `json:"DS_MERCHANT_AMOUNT"`
	Order           string `json:"DS_MERCHANT_ORDER"`
	MerchantCode    string `json:"DS_MERCHANT_MERCHANTCODE"`
	Currency        string `json:"DS_MERCHANT_CURRENCY"`
	TransactionType string `json:"DS_MERCHANT_TRANSACTIONTYPE"`
	Terminal        string `json:"DS_MERCHANT_TERMINAL"`
	MerchantURL     string `json:"DS_MERCHANT_MERCHANTURL,omitempty"`
	URLOK           string `json:"DS_MERCHANT_URLOK,omitempty"`
	URLKO           string `json:"DS_MERCHANT_URLKO,omitempty"`
	PayMethods      string `json:"DS_MERCHANT_PAYMETHODS,omitempty"`
	ProductDesc     string `json:"DS_MERCHANT_PRODUCTDESCRIPTION,omitempty"`
}

// Gateway talks to the Redsys bank terminal. Payment initiation produces an
// auto-submitting form for the hosted payment page; the terminal confirms the
// outcome through a signed notification callback.
type Gateway struct {
	cfg        internal.RedsysConfig
	secret     []byte
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg internal.RedsysConfig, logger *slog.Logger) (*Gateway, error) {
	if cfg.MerchantCode == "" {
		return nil, internal.NewMissingCredentialsError("redsys", "merchant_code")
	}
	if cfg.SecretKey == "" {
		return nil, internal.NewMissingCredentialsError("redsys", "secret_key")
	}
	if cfg.Environment != "test" && cfg.Environment != "live" {
		return nil, internal.NewInvalidEnvironmentError("redsys", cfg.Environment)
	}

	secret, err := decodeSecret(cfg.SecretKey)
	if err != nil {
		return nil, internal.NewInvalidAPIKeyError("redsys").WithCause(err)
	}

	return &Gateway{
		cfg:        cfg,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

func (g *Gateway) formURL() string {
	if g.cfg.FormBaseURL != "" {
		return g.cfg.FormBaseURL
	}
	if g.cfg.Environment == "live" {
		return formURLLive
	}
	return formURLTest
}

func (g *Gateway) restURL() string {
	if g.cfg.RestBaseURL != "" {
		return g.cfg.RestBaseURL
	}
	if g.cfg.Environment == "live" {
		return restURLLive
	}
	return restURLTest
}

// amountToCents converts a major-unit amount to the terminal's integer cents
// representation.
func amountToCents(amount float64) string {
	return strconv.FormatInt(int64(math.Round(amount*100)), 10)
}

func encodeParameters(params merchantParameters) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Initiate builds the signed hosted-payment form. The payer's browser submits
// it to the terminal; the outcome arrives later via VerifyCallback.
func (g *Gateway) Initiate(ctx context.Context, req *payment.Request) (*payment.Response, error) {
	methodCode := req.Method.RedsysCode()

	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = req.ReturnURL
	}

	params := merchantParameters{
		Amount:          amountToCents(req.Amount),
		Order:           req.OrderID,
		MerchantCode:    g.cfg.MerchantCode,
		Currency:        currencyEUR,
		TransactionType: txTypeAuthorization,
		Terminal:        g.cfg.Terminal,
		MerchantURL:     req.NotificationURL,
		URLOK:           req.ReturnURL,
		URLKO:           cancelURL,
		PayMethods:      methodCode,
		ProductDesc:     req.Description(),
	}

	encoded, err := encodeParameters(params)
	if err != nil {
		return nil, internal.NewProviderAPIError(providerName, "failed to encode merchant parameters", "").WithCause(err)
	}
	signature, err := sign(g.secret, req.OrderID, encoded)
	if err != nil {
		return nil, internal.NewProviderAPIError(providerName, "failed to sign merchant parameters", "").WithCause(err)
	}

	g.logger.Info("redsys payment form generated",
		"order_id", req.OrderID,
		"amount", req.Amount,
		"pay_methods", methodCode)

	return payment.NewResponse(payment.Response{
		Type: payment.TypeRedirect,
		Data: map[string]any{
			"order_id":       req.OrderID,
			"amount":         req.Amount,
			"merchant_code":  g.cfg.MerchantCode,
			"payment_method": methodCode,
		},
		FormHTML: buildForm(g.formURL(), encoded, signature),
	})
}

func buildForm(action, encodedParams, signature string) string {
	var b strings.Builder
	b.WriteString(`<form action="` + html.EscapeString(action) + `" method="post" id="redsys_payment_form" name="redsys_payment_form">`)
	b.WriteString(`<input type="hidden" name="Ds_SignatureVersion" value="` + signatureVersion + `"/>`)
	b.WriteString(`<input type="hidden" name="Ds_MerchantParameters" value="` + html.EscapeString(encodedParams) + `"/>`)
	b.WriteString(`<input type="hidden" name="Ds_Signature" value="` + html.EscapeString(signature) + `"/>`)
	b.WriteString(`</form>`)
	b.WriteString(`<script>document.forms["redsys_payment_form"].submit();</script>`)
	return b.String()
}

// Capture is a pass-through: the terminal confirms payments automatically, so
// there is no separate capture call.
func (g *Gateway) Capture(ctx context.Context, paymentID string) (*payment.Result, error) {
	return payment.NewResult(payment.Result{
		Success:       true,
		Status:        payment.StatusCompleted,
		TransactionID: paymentID,
		Message:       "Redsys payment confirmed.",
	})
}

// Refund issues a refund transaction through the REST endpoint. The terminal
// does not track the original amount, so the caller must state it.
func (g *Gateway) Refund(ctx context.Context, paymentID string, amount *float64) (*payment.Result, error) {
	if amount == nil {
		return nil, internal.NewRefundNotAvailableError(providerName,
			"refund amount is required: the terminal cannot derive the original amount")
	}

	params := merchantParameters{
		Amount:          amountToCents(*amount),
		Order:           paymentID,
		MerchantCode:    g.cfg.MerchantCode,
		Currency:        currencyEUR,
		TransactionType: txTypeRefund,
		Terminal:        g.cfg.Terminal,
	}

	encoded, err := encodeParameters(params)
	if err != nil {
		return nil, internal.NewProviderAPIError(providerName, "failed to encode merchant parameters", "").WithCause(err)
	}
	signature, err := sign(g.secret, paymentID, encoded)
	if err != nil {
		return nil, internal.NewProviderAPIError(providerName, "failed to sign merchant parameters", "").WithCause(err)
	}

	form := url.Values{}
	form.Set("Ds_SignatureVersion", signatureVersion)
	form.Set("Ds_MerchantParameters", encoded)
	form.Set("Ds_Signature", signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.restURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, internal.NewProviderAPIError(providerName, "failed to build refund request", "").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internal.NewInvalidResponseError(providerName, "failed to read refund response").WithCause(err)
	}

	var restResp struct {
		ErrorCode          string `json:"errorCode"`
		MerchantParameters string `json:"Ds_MerchantParameters"`
		Signature          string `json:"Ds_Signature"`
	}
	if err := json.Unmarshal(body, &restResp); err != nil {
		return nil, internal.NewInvalidResponseError(providerName, "refund response is not valid JSON").WithCause(err)
	}
	if restResp.ErrorCode != "" {
		return nil, internal.NewProviderAPIError(providerName, "refund failed", restResp.ErrorCode)
	}
	if restResp.MerchantParameters == "" || restResp.Signature == "" {
		return nil, internal.NewInvalidResponseError(providerName, "refund response missing signed parameters")
	}

	decoded, err := decodeParameters(restResp.MerchantParameters)
	if err != nil {
		return nil, internal.NewInvalidResponseError(providerName, "failed to decode refund parameters").WithCause(err)
	}

	ok, err := verifySignature(g.secret, decoded["Ds_Order"], restResp.MerchantParameters, restResp.Signature)
	if err != nil || !ok {
		return nil, internal.NewSignatureVerificationError(providerName)
	}

	dsResponse := responseCode(decoded)
	if dsResponse < 0 || dsResponse > 99 {
		return nil, internal.NewRefundNotAvailableError(providerName,
			fmt.Sprintf("response code: %d", dsResponse))
	}

	txID := decoded["Ds_AuthorisationCode"]
	if txID == "" {
		txID = paymentID
	}

	g.logger.Info("redsys refund processed", "order_id", paymentID, "amount", *amount)

	return payment.NewResult(payment.Result{
		Success:       true,
		Status:        payment.StatusRefunded,
		TransactionID: txID,
		Message:       "Refund processed successfully.",
	})
}

// GetStatus is unsupported: the terminal has no direct query API and reports
// outcomes only through the notification callback.
func (g *Gateway) GetStatus(ctx context.Context, paymentID string) (*payment.Result, error) {
	return payment.NewResult(payment.Result{
		Success: false,
		Status:  payment.StatusUnavailable,
		Message: "Redsys does not support direct status queries. Use notification callback.",
	})
}

// VerifyCallback authenticates a terminal notification and decodes the
// outcome. Response codes 0-99 are approvals. 9999 marks an unparseable
// response field and yields a failed result rather than a decline error.
func (g *Gateway) VerifyCallback(data map[string]string) (*payment.Result, error) {
	encoded, okParams := data["Ds_MerchantParameters"]
	receivedSig, okSig := data["Ds_Signature"]
	if !okParams || !okSig || encoded == "" || receivedSig == "" {
		return nil, internal.NewInvalidResponseError(providerName, "missing required parameters")
	}

	decoded, err := decodeParameters(encoded)
	if err != nil {
		return nil, internal.NewInvalidResponseError(providerName, "failed to decode merchant parameters").WithCause(err)
	}

	ok, err := verifySignature(g.secret, decoded["Ds_Order"], encoded, receivedSig)
	if err != nil || !ok {
		g.logger.Warn("redsys callback signature mismatch", "order_id", decoded["Ds_Order"])
		return nil, internal.NewSignatureVerificationError(providerName)
	}

	dsResponse := responseCode(decoded)
	success := dsResponse >= 0 && dsResponse <= 99

	if !success && dsResponse != 9999 {
		return nil, internal.NewPaymentDeclinedError(providerName,
			"payment declined by bank", strconv.Itoa(dsResponse))
	}

	message := "Payment failed"
	status := payment.StatusFailed
	if success {
		message = "Payment completed successfully"
		status = payment.StatusCompleted
	}

	resultData := make(map[string]any, len(decoded))
	for k, v := range decoded {
		resultData[k] = v
	}

	return payment.NewResult(payment.Result{
		Success:       success,
		Status:        status,
		PaymentID:     decoded["Ds_Order"],
		TransactionID: decoded["Ds_AuthorisationCode"],
		Message:       message,
		Data:          resultData,
	})
}

// decodeParameters unpacks the base64 JSON parameter blob. Values arrive
// URL-encoded from the terminal.
func decodeParameters(encoded string) (map[string]string, error) {
	raw, err := decodeAnyBase64(encoded)
	if err != nil {
		return nil, err
	}

	var params map[string]string
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}

	for k, v := range params {
		if unescaped, err := url.QueryUnescape(v); err == nil {
			params[k] = unescaped
		}
	}
	return params, nil
}

// responseCode parses Ds_Response, returning the 9999 sentinel when the field
// is missing or unparseable.
func responseCode(params map[string]string) int {
	raw, ok := params["Ds_Response"]
	if !ok {
		return 9999
	}
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 9999
	}
	return code
}

func classifyTransportError(err error) *internal.PaymentError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return internal.NewTimeoutError(providerName).WithCause(err)
	}
	return internal.NewConnectionError(providerName).WithCause(err)
}
