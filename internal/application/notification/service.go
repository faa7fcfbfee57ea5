package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
)

// SMSSender delivers text messages to a canonical phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Mailer delivers plain-text email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ServiceDeps holds the delivery channels. A nil channel makes codes for
// that method fail with domain.ErrBadRequest.
type ServiceDeps struct {
	SMS    SMSSender
	Mailer Mailer
	TTL    time.Duration // stated in the message text
}

// Service routes one-time codes to the channel matching the requested method.
type Service struct {
	sms    SMSSender
	mailer Mailer
	ttl    time.Duration
}

func NewService(deps ServiceDeps) *Service {
	return &Service{sms: deps.SMS, mailer: deps.Mailer, ttl: deps.TTL}
}

func (s *Service) SendCode(ctx context.Context, method domain.OTPMethod, to, code string) error {
	switch method {
	case domain.OTPMethodEmail:
		if s.mailer == nil {
			return fmt.Errorf("email delivery not configured: %w", domain.ErrBadRequest)
		}
		return s.mailer.SendEmail(ctx, to, "Your verification code", s.body(code))
	case domain.OTPMethodPhone:
		if s.sms == nil {
			return fmt.Errorf("sms delivery not configured: %w", domain.ErrBadRequest)
		}
		return s.sms.SendSMS(ctx, to, s.body(code))
	case domain.OTPMethodWhatsApp:
		// No WhatsApp transport ships; fall back to SMS on the same number.
		if s.sms == nil {
			return fmt.Errorf("whatsapp delivery not configured: %w", domain.ErrBadRequest)
		}
		slog.Info("whatsapp code routed through sms", "to", to)
		return s.sms.SendSMS(ctx, to, s.body(code))
	}
	return fmt.Errorf("unknown method %q: %w", method, domain.ErrBadRequest)
}

func (s *Service) body(code string) string {
	if s.ttl <= 0 {
		return "Your verification code is " + code
	}
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.ttl.Minutes()))
}
