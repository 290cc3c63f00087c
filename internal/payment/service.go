package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
	"github.com/frahmantamala/payment-gateway/internal/core/events"
	"github.com/frahmantamala/payment-gateway/internal/gateway"
)

// GatewayResolver resolves a provider identifier to its adapter.
type GatewayResolver interface {
	Driver(provider payment.Provider) (gateway.PaymentGateway, error)
}

// RepositoryAPI persists the audit trail of gateway operations.
type RepositoryAPI interface {
	Create(log *payment.Log) error
	GetByOrderID(orderID string) ([]*payment.Log, error)
	GetLatestByOrderID(orderID string) (*payment.Log, error)
}

// ServiceAPI is the operation surface the transport layer depends on.
type ServiceAPI interface {
	Initiate(ctx context.Context, provider string, req payment.Request) (*payment.Response, error)
	Capture(ctx context.Context, provider, paymentID string) (*payment.Result, error)
	Refund(ctx context.Context, provider, paymentID string, amount *float64) (*payment.Result, error)
	GetStatus(ctx context.Context, provider, paymentID string) (*payment.Result, error)
	VerifyCallback(ctx context.Context, provider string, data map[string]string) (*payment.Result, error)
	History(orderID string) ([]*payment.Log, error)
}

// Service orchestrates gateway operations: it resolves the adapter, runs the
// operation, records the audit log and publishes outcome events. Audit writes
// are best effort; a storage failure never masks the provider outcome.
type Service struct {
	registry GatewayResolver
	repo     RepositoryAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(registry GatewayResolver, repo RepositoryAPI, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *Service) Initiate(ctx context.Context, provider string, req payment.Request) (*payment.Response, error) {
	validated, err := payment.NewRequest(req)
	if err != nil {
		s.logger.Error("payment request rejected", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	gw, err := s.registry.Driver(payment.Provider(provider))
	if err != nil {
		return nil, err
	}

	resp, err := gw.Initiate(ctx, validated)
	if err != nil {
		s.logFailure(provider, "initiate", validated.OrderID, validated.Amount, validated.Currency, err)
		return nil, err
	}

	s.audit(&payment.Log{
		Provider:  provider,
		Operation: "initiate",
		OrderID:   validated.OrderID,
		Amount:    validated.Amount,
		Currency:  validated.Currency,
		Status:    payment.StatusPending,
		Success:   true,
		Payload:   marshalPayload(resp.Data),
	})

	s.logger.Info("payment initiated",
		"provider", provider,
		"order_id", validated.OrderID,
		"response_type", resp.Type)

	return resp, nil
}

func (s *Service) Capture(ctx context.Context, provider, paymentID string) (*payment.Result, error) {
	gw, err := s.registry.Driver(payment.Provider(provider))
	if err != nil {
		return nil, err
	}

	result, err := gw.Capture(ctx, paymentID)
	if err != nil {
		s.logFailure(provider, "capture", "", 0, "", err)
		return nil, err
	}

	s.auditResult(provider, "capture", result)
	s.publishOutcome(ctx, provider, result)
	return result, nil
}

func (s *Service) Refund(ctx context.Context, provider, paymentID string, amount *float64) (*payment.Result, error) {
	gw, err := s.registry.Driver(payment.Provider(provider))
	if err != nil {
		return nil, err
	}

	result, err := gw.Refund(ctx, paymentID, amount)
	if err != nil {
		s.logFailure(provider, "refund", "", 0, "", err)
		return nil, err
	}

	s.auditResult(provider, "refund", result)
	if result.Success {
		s.eventBus.Publish(ctx, events.NewPaymentRefundedEvent(
			provider, paymentID, result.TransactionID, amount))
	}
	return result, nil
}

func (s *Service) GetStatus(ctx context.Context, provider, paymentID string) (*payment.Result, error) {
	gw, err := s.registry.Driver(payment.Provider(provider))
	if err != nil {
		return nil, err
	}
	return gw.GetStatus(ctx, paymentID)
}

func (s *Service) VerifyCallback(ctx context.Context, provider string, data map[string]string) (*payment.Result, error) {
	gw, err := s.registry.Driver(payment.Provider(provider))
	if err != nil {
		return nil, err
	}

	result, err := gw.VerifyCallback(data)
	if err != nil {
		s.logFailure(provider, "callback", "", 0, "", err)
		return nil, err
	}

	s.auditResult(provider, "callback", result)
	s.publishOutcome(ctx, provider, result)
	return result, nil
}

// History returns the audit trail for an order. Without a repository the
// service keeps no trail, so the history is empty rather than an error.
func (s *Service) History(orderID string) ([]*payment.Log, error) {
	if orderID == "" {
		return nil, errors.NewMissingFieldError("order_id")
	}
	if s.repo == nil {
		return []*payment.Log{}, nil
	}
	return s.repo.GetByOrderID(orderID)
}

// publishOutcome emits completed/failed events for terminal results. Pending
// or provider-specific intermediate statuses stay silent.
func (s *Service) publishOutcome(ctx context.Context, provider string, result *payment.Result) {
	switch {
	case result.Success:
		amount, currency := amountFrom(result)
		event := events.NewPaymentCompletedEvent(
			provider, orderIDFrom(result), result.PaymentID, result.TransactionID,
			amount, currency, result.Status)
		if email, ok := result.Data["customer_email"].(string); ok && email != "" {
			event.Data["customer_email"] = email
		}
		s.eventBus.Publish(ctx, event)
	case payment.NormalizeStatus(result.Status) == payment.StatusFailed:
		s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
			provider, orderIDFrom(result), result.PaymentID, result.Status, result.Message))
	}
}

// amountFrom recovers the charged amount from the provider's result data.
// Adapters report it as a major-unit "amount"; the bank terminal reports
// Ds_Amount in cents and only ever charges euros.
func amountFrom(result *payment.Result) (float64, string) {
	if result.Data == nil {
		return 0, ""
	}
	if amount, ok := result.Data["amount"].(float64); ok {
		currency, _ := result.Data["currency"].(string)
		return amount, currency
	}
	if raw, ok := result.Data["Ds_Amount"].(string); ok {
		if cents, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return float64(cents) / 100, "EUR"
		}
	}
	return 0, ""
}

func orderIDFrom(result *payment.Result) string {
	if result.Data == nil {
		return ""
	}
	for _, key := range []string{"order_id", "Ds_Order"} {
		if v, ok := result.Data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *Service) auditResult(provider, operation string, result *payment.Result) {
	entry := &payment.Log{
		Provider:  provider,
		Operation: operation,
		OrderID:   orderIDFrom(result),
		Status:    result.Status,
		Success:   result.Success,
		Payload:   marshalPayload(result.Data),
	}
	if result.PaymentID != "" {
		entry.PaymentID = &result.PaymentID
	}
	if result.TransactionID != "" {
		entry.TransactionID = &result.TransactionID
	}
	if result.Message != "" {
		entry.Message = &result.Message
	}
	s.audit(entry)
}

func (s *Service) logFailure(provider, operation, orderID string, amount float64, currency string, opErr error) {
	s.logger.Error("gateway operation failed",
		"provider", provider,
		"operation", operation,
		"order_id", orderID,
		"error", opErr)

	message := opErr.Error()
	entry := &payment.Log{
		Provider:  provider,
		Operation: operation,
		OrderID:   orderID,
		Amount:    amount,
		Currency:  currency,
		Status:    payment.StatusFailed,
		Success:   false,
		Message:   &message,
	}
	if pe, ok := errors.AsPaymentError(opErr); ok {
		entry.Payload = marshalPayload(map[string]any{
			"kind":    pe.Kind,
			"code":    pe.Code,
			"context": pe.Context,
			"time":    time.Now().UTC(),
		})
	}
	s.audit(entry)
}

func (s *Service) audit(entry *payment.Log) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to persist payment log",
			"error", err,
			"provider", entry.Provider,
			"operation", entry.Operation)
	}
}

func marshalPayload(data map[string]any) json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return raw
}
