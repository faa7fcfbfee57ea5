package smtp

import (
	"context"
	"fmt"

	"github.com/go-marketplace-auth/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends plain-text email through an SMTP relay.
type Mailer struct {
	from string
	send func(m ...*gomail.Message) error
}

func NewMailer(cfg *config.Config) *Mailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &Mailer{from: cfg.SMTPFrom, send: dialer.DialAndSend}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	// gomail has no context support; at least skip the dial once cancelled.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.message(to, subject, body)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *Mailer) message(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}
