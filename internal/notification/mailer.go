package notification

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/payment-gateway/internal"
	mail "gopkg.in/mail.v2"
)

const maxRetries = 3

// Mailer sends notification emails. Implementations must be safe for
// concurrent use; event handlers run on separate goroutines.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
	logger *slog.Logger
}

func NewSMTPMailer(cfg internal.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := m.dialer.DialAndSend(msg); err != nil {
			lastErr = err
			m.logger.Warn("email send attempt failed",
				"to", to,
				"attempt", attempt,
				"error", err)
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
			continue
		}
		return nil
	}

	return fmt.Errorf("send email to %s after %d attempts: %w", to, maxRetries, lastErr)
}
