package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/frahmantamala/payment-gateway/internal/core/events"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`
<h2>Payment received</h2>
<p>Thank you, your payment has been processed.</p>
<ul>
  <li>Order: {{.OrderID}}</li>
  <li>Amount: {{printf "%.2f" .Amount}} {{.Currency}}</li>
  <li>Reference: {{.PaymentID}}</li>
</ul>
`))

var adminTemplate = template.Must(template.New("admin").Parse(`
<h2>Payment completed</h2>
<ul>
  <li>Provider: {{.Provider}}</li>
  <li>Order: {{.OrderID}}</li>
  <li>Amount: {{printf "%.2f" .Amount}} {{.Currency}}</li>
  <li>Payment ID: {{.PaymentID}}</li>
  <li>Customer: {{.CustomerEmail}}</li>
</ul>
`))

type emailData struct {
	Provider      string
	OrderID       string
	Amount        float64
	Currency      string
	PaymentID     string
	CustomerEmail string
}

// Listener wires payment outcome events to email side effects. Handler
// failures are logged by the event bus and never affect the payment outcome.
type Listener struct {
	mailer     Mailer
	adminEmail string
	logger     *slog.Logger
}

func NewListener(mailer Mailer, adminEmail string, logger *slog.Logger) *Listener {
	return &Listener{
		mailer:     mailer,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

func (l *Listener) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypePaymentCompleted, l.SendConfirmationEmail)
	bus.Subscribe(events.EventTypePaymentCompleted, l.SendAdminNotification)
	bus.Subscribe(events.EventTypePaymentFailed, l.LogFailedPayment)
}

// SendConfirmationEmail emails the customer when the payment carried a
// customer address; callbacks without one are skipped.
func (l *Listener) SendConfirmationEmail(ctx context.Context, event events.Event) error {
	data := extractEmailData(event)
	if data.CustomerEmail == "" {
		l.logger.Info("payment completed but no customer email provided",
			"order_id", data.OrderID)
		return nil
	}

	body, err := render(confirmationTemplate, data)
	if err != nil {
		return err
	}

	if err := l.mailer.Send(data.CustomerEmail, "Payment confirmation", body); err != nil {
		return fmt.Errorf("payment confirmation email: %w", err)
	}

	l.logger.Info("payment confirmation email sent",
		"order_id", data.OrderID,
		"customer_email", data.CustomerEmail)
	return nil
}

func (l *Listener) SendAdminNotification(ctx context.Context, event events.Event) error {
	if l.adminEmail == "" {
		return nil
	}

	data := extractEmailData(event)
	if data.CustomerEmail == "" {
		data.CustomerEmail = "N/A"
	}

	body, err := render(adminTemplate, data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Payment completed: %s (%s)", data.OrderID, strings.ToUpper(data.Provider))
	if err := l.mailer.Send(l.adminEmail, subject, body); err != nil {
		return fmt.Errorf("admin notification email: %w", err)
	}

	l.logger.Info("admin notification sent",
		"order_id", data.OrderID,
		"provider", data.Provider)
	return nil
}

func (l *Listener) LogFailedPayment(ctx context.Context, event events.Event) error {
	data := extractEmailData(event)
	l.logger.Warn("payment failed",
		"provider", data.Provider,
		"order_id", data.OrderID,
		"payment_id", data.PaymentID)
	return nil
}

func extractEmailData(event events.Event) emailData {
	data := emailData{}
	payload, ok := event.Payload().(map[string]interface{})
	if !ok {
		return data
	}

	data.Provider, _ = payload["provider"].(string)
	data.OrderID, _ = payload["order_id"].(string)
	data.Currency, _ = payload["currency"].(string)
	data.PaymentID, _ = payload["payment_id"].(string)
	data.CustomerEmail, _ = payload["customer_email"].(string)
	data.Amount, _ = payload["amount"].(float64)
	return data
}

func render(tmpl *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
