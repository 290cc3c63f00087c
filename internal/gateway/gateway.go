package gateway

import (
	"context"

	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

// PaymentGateway is the capability contract every provider adapter satisfies.
// Operations that reach the provider take a context for cancellation;
// VerifyCallback is pure computation over an inbound notification payload.
type PaymentGateway interface {
	// Initiate starts a payment with the provider and describes how the
	// payer completes it.
	Initiate(ctx context.Context, req *payment.Request) (*payment.Response, error)

	// Capture confirms a previously initiated payment. Providers that
	// confirm via callback treat this as a pass-through.
	Capture(ctx context.Context, paymentID string) (*payment.Result, error)

	// Refund reverses a captured payment: full when amount is nil, partial
	// otherwise.
	Refund(ctx context.Context, paymentID string, amount *float64) (*payment.Result, error)

	// GetStatus queries the provider for the payment state. Providers
	// without a query API return a result with status "unavailable" rather
	// than an error.
	GetStatus(ctx context.Context, paymentID string) (*payment.Result, error)

	// VerifyCallback validates and decodes a provider-originated
	// notification. Providers without signed callbacks return a result with
	// status "not_supported".
	VerifyCallback(data map[string]string) (*payment.Result, error)
}
