package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrorKindConfiguration ErrorKind = "CONFIGURATION_ERROR"
	ErrorKindProvider      ErrorKind = "PROVIDER_ERROR"
	ErrorKindValidation    ErrorKind = "VALIDATION_ERROR"
	ErrorKindInvalidState  ErrorKind = "INVALID_STATE_ERROR"
)

// Stable numeric error codes. The thousands digit encodes the kind:
// 1xxx configuration, 2xxx provider, 3xxx validation, 4xxx invalid state.
const (
	CodeMissingCredentials   = 1001
	CodeInvalidAPIKey        = 1002
	CodeInvalidEnvironment   = 1003
	CodeUnsupportedProvider  = 1004
	CodeInvalidConfiguration = 1005

	CodeAPIError           = 2001
	CodeConnectionError    = 2002
	CodeTimeout            = 2003
	CodeInvalidResponse    = 2004
	CodePaymentDeclined    = 2005
	CodeSignatureFailed    = 2006
	CodePaymentNotFound    = 2007
	CodeRefundNotAvailable = 2008

	CodeInvalidAmount      = 3001
	CodeInvalidCurrency    = 3002
	CodeInvalidOrderID     = 3003
	CodeInvalidURL         = 3004
	CodeUnsupportedMethod  = 3005
	CodeMissingField       = 3006
	CodeInvalidEmail       = 3007
	CodeInvalidFieldLength = 3008
	CodeValidationFailed   = 3009

	CodeCannotCapture       = 4001
	CodeCannotRefund        = 4002
	CodeCannotCancel        = 4003
	CodeAlreadyProcessed    = 4004
	CodePaymentExpired      = 4005
	CodeInvalidTransition   = 4006
	CodeAlreadyRefunded     = 4007
	CodeInvalidRefundAmount = 4008
)

// PaymentError is the single error type surfaced by the gateway core. Every
// raised error carries a machine-stable numeric code, a human-readable message
// and a context map sufficient to reconstruct what failed without re-deriving
// it from logs.
type PaymentError struct {
	Kind    ErrorKind      `json:"kind"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Cause   error          `json:"-"`
}

func (e *PaymentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

func (e *PaymentError) WithCause(cause error) *PaymentError {
	e.Cause = cause
	return e
}

func (e *PaymentError) WithContext(key string, value any) *PaymentError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error to a status hint for callers exposing the gateway
// over a web boundary.
func (e *PaymentError) HTTPStatus() int {
	switch e.Kind {
	case ErrorKindConfiguration:
		return http.StatusInternalServerError
	case ErrorKindValidation:
		return http.StatusUnprocessableEntity
	case ErrorKindInvalidState:
		return http.StatusConflict
	case ErrorKindProvider:
		switch e.Code {
		case CodePaymentDeclined:
			return http.StatusPaymentRequired
		case CodePaymentNotFound:
			return http.StatusNotFound
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func (e *PaymentError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    ErrorKind      `json:"kind"`
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Context map[string]any `json:"context,omitempty"`
	}{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Context: e.Context,
	})
}

func newError(kind ErrorKind, code int, message string, ctx map[string]any) *PaymentError {
	return &PaymentError{Kind: kind, Code: code, Message: message, Context: ctx}
}

// AsPaymentError unwraps err into a *PaymentError when possible.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsKind reports whether err is a PaymentError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	if pe, ok := AsPaymentError(err); ok {
		return pe.Kind == kind
	}
	return false
}

// IsCode reports whether err is a PaymentError with the given numeric code.
func IsCode(err error, code int) bool {
	if pe, ok := AsPaymentError(err); ok {
		return pe.Code == code
	}
	return false
}

// ---- configuration errors (1xxx) ----

func NewMissingCredentialsError(provider, credential string) *PaymentError {
	return newError(ErrorKindConfiguration, CodeMissingCredentials,
		fmt.Sprintf("missing %s for %s: configure it in the payments section", credential, provider),
		map[string]any{"provider": provider, "credential": credential})
}

func NewInvalidAPIKeyError(provider string) *PaymentError {
	return newError(ErrorKindConfiguration, CodeInvalidAPIKey,
		fmt.Sprintf("invalid API key for %s: check your credentials", provider),
		map[string]any{"provider": provider})
}

func NewInvalidEnvironmentError(provider, environment string) *PaymentError {
	return newError(ErrorKindConfiguration, CodeInvalidEnvironment,
		fmt.Sprintf("invalid environment %q for %s: expected test, sandbox or live", environment, provider),
		map[string]any{"provider": provider, "environment": environment})
}

func NewUnsupportedProviderError(provider string) *PaymentError {
	return newError(ErrorKindConfiguration, CodeUnsupportedProvider,
		fmt.Sprintf("payment provider %q is not supported", provider),
		map[string]any{"provider": provider})
}

func NewInvalidConfigurationError(provider, reason string) *PaymentError {
	return newError(ErrorKindConfiguration, CodeInvalidConfiguration,
		fmt.Sprintf("invalid configuration for %s: %s", provider, reason),
		map[string]any{"provider": provider, "reason": reason})
}

// ---- provider errors (2xxx) ----

func NewProviderAPIError(provider, message, providerCode string) *PaymentError {
	return newError(ErrorKindProvider, CodeAPIError,
		fmt.Sprintf("%s API error: %s", provider, message),
		map[string]any{"provider": provider, "provider_error_code": providerCode})
}

func NewConnectionError(provider string) *PaymentError {
	return newError(ErrorKindProvider, CodeConnectionError,
		fmt.Sprintf("failed to connect to %s payment gateway", provider),
		map[string]any{"provider": provider})
}

func NewTimeoutError(provider string) *PaymentError {
	return newError(ErrorKindProvider, CodeTimeout,
		fmt.Sprintf("request to %s timed out", provider),
		map[string]any{"provider": provider})
}

func NewInvalidResponseError(provider, reason string) *PaymentError {
	msg := fmt.Sprintf("invalid response from %s", provider)
	if reason != "" {
		msg += ": " + reason
	}
	return newError(ErrorKindProvider, CodeInvalidResponse, msg,
		map[string]any{"provider": provider, "reason": reason})
}

func NewPaymentDeclinedError(provider, reason, declineCode string) *PaymentError {
	return newError(ErrorKindProvider, CodePaymentDeclined,
		fmt.Sprintf("payment declined by %s: %s", provider, reason),
		map[string]any{"provider": provider, "reason": reason, "decline_code": declineCode})
}

// NewSignatureVerificationError marks a security-significant event: the
// callback MAC was not computed with the shared secret. Callers must be able
// to tell this apart from an ordinary decline.
func NewSignatureVerificationError(provider string) *PaymentError {
	return newError(ErrorKindProvider, CodeSignatureFailed,
		fmt.Sprintf("signature verification failed for %s: possible tampering", provider),
		map[string]any{"provider": provider})
}

func NewPaymentNotFoundError(provider, paymentID string) *PaymentError {
	return newError(ErrorKindProvider, CodePaymentNotFound,
		fmt.Sprintf("payment %q not found in %s", paymentID, provider),
		map[string]any{"provider": provider, "payment_id": paymentID})
}

func NewRefundNotAvailableError(provider, reason string) *PaymentError {
	return newError(ErrorKindProvider, CodeRefundNotAvailable,
		fmt.Sprintf("refund not available for %s: %s", provider, reason),
		map[string]any{"provider": provider, "reason": reason})
}

// ---- validation errors (3xxx) ----

func NewInvalidAmountError(amount float64, reason string) *PaymentError {
	msg := fmt.Sprintf("invalid payment amount: %.2f", amount)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return newError(ErrorKindValidation, CodeInvalidAmount, msg,
		map[string]any{"amount": amount, "reason": reason})
}

func NewInvalidCurrencyError(currency string) *PaymentError {
	return newError(ErrorKindValidation, CodeInvalidCurrency,
		fmt.Sprintf("invalid currency code %q: expected ISO 4217 format (e.g. EUR, USD)", currency),
		map[string]any{"currency": currency})
}

func NewInvalidOrderIDError(orderID, reason string) *PaymentError {
	msg := fmt.Sprintf("invalid order ID %q", orderID)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return newError(ErrorKindValidation, CodeInvalidOrderID, msg,
		map[string]any{"order_id": orderID, "reason": reason})
}

func NewInvalidURLError(field, rawURL string) *PaymentError {
	return newError(ErrorKindValidation, CodeInvalidURL,
		fmt.Sprintf("invalid or missing URL for %s", field),
		map[string]any{"field": field, "url": rawURL})
}

func NewUnsupportedMethodError(method, provider string) *PaymentError {
	return newError(ErrorKindValidation, CodeUnsupportedMethod,
		fmt.Sprintf("payment method %q is not supported by %s", method, provider),
		map[string]any{"payment_method": method, "provider": provider})
}

func NewMissingFieldError(field string) *PaymentError {
	return newError(ErrorKindValidation, CodeMissingField,
		fmt.Sprintf("required field %q is missing", field),
		map[string]any{"field": field})
}

func NewInvalidEmailError(email string) *PaymentError {
	return newError(ErrorKindValidation, CodeInvalidEmail,
		fmt.Sprintf("invalid email address %q", email),
		map[string]any{"email": email})
}

func NewFieldLengthError(field string, actual, max int) *PaymentError {
	return newError(ErrorKindValidation, CodeInvalidFieldLength,
		fmt.Sprintf("field %q exceeds maximum length of %d characters (actual: %d)", field, max, actual),
		map[string]any{"field": field, "actual_length": actual, "max_length": max})
}

func NewValidationError(field, reason string) *PaymentError {
	return newError(ErrorKindValidation, CodeValidationFailed,
		fmt.Sprintf("validation failed for %q: %s", field, reason),
		map[string]any{"field": field, "reason": reason})
}

// ---- invalid state errors (4xxx) ----

func NewCannotCaptureError(paymentID, currentState string) *PaymentError {
	return newError(ErrorKindInvalidState, CodeCannotCapture,
		fmt.Sprintf("cannot capture payment %q in state %q", paymentID, currentState),
		map[string]any{"payment_id": paymentID, "current_state": currentState})
}

func NewCannotRefundError(paymentID, currentState string) *PaymentError {
	return newError(ErrorKindInvalidState, CodeCannotRefund,
		fmt.Sprintf("cannot refund payment %q in state %q", paymentID, currentState),
		map[string]any{"payment_id": paymentID, "current_state": currentState})
}

func NewCannotCancelError(paymentID, currentState string) *PaymentError {
	return newError(ErrorKindInvalidState, CodeCannotCancel,
		fmt.Sprintf("cannot cancel payment %q in state %q: only pending payments can be cancelled", paymentID, currentState),
		map[string]any{"payment_id": paymentID, "current_state": currentState})
}

func NewAlreadyProcessedError(paymentID string) *PaymentError {
	return newError(ErrorKindInvalidState, CodeAlreadyProcessed,
		fmt.Sprintf("payment %q has already been processed", paymentID),
		map[string]any{"payment_id": paymentID})
}

func NewPaymentExpiredError(paymentID string) *PaymentError {
	return newError(ErrorKindInvalidState, CodePaymentExpired,
		fmt.Sprintf("payment %q has expired", paymentID),
		map[string]any{"payment_id": paymentID})
}

func NewInvalidTransitionError(paymentID, fromState, toState string) *PaymentError {
	return newError(ErrorKindInvalidState, CodeInvalidTransition,
		fmt.Sprintf("invalid state transition for payment %q: %s -> %s", paymentID, fromState, toState),
		map[string]any{"payment_id": paymentID, "from_state": fromState, "to_state": toState})
}

func NewAlreadyRefundedError(paymentID string) *PaymentError {
	return newError(ErrorKindInvalidState, CodeAlreadyRefunded,
		fmt.Sprintf("payment %q has already been refunded", paymentID),
		map[string]any{"payment_id": paymentID})
}

func NewInvalidRefundAmountError(paymentID string, requested, available float64) *PaymentError {
	return newError(ErrorKindInvalidState, CodeInvalidRefundAmount,
		fmt.Sprintf("cannot refund %.2f for payment %q: maximum refundable amount is %.2f", requested, paymentID, available),
		map[string]any{"payment_id": paymentID, "requested_amount": requested, "available_amount": available})
}
