package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	pkgtoken "github.com/go-marketplace-auth/internal/pkg/token"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// Both failure kinds collapse to domain.ErrInvalidOrExpiredCode at the transport.
var (
	ErrInvalidCode = fmt.Errorf("code not found: %w", domain.ErrInvalidOrExpiredCode)
	ErrCodeExpired = fmt.Errorf("code expired: %w", domain.ErrInvalidOrExpiredCode)
)

// TokenStore persists verification tokens. Implementations must make Replace
// and Consume atomic with respect to concurrent callers.
type TokenStore interface {
	// Replace removes every token for t.Identifier and stores t.
	Replace(ctx context.Context, t *domain.VerificationToken) error
	// Consume deletes the (identifier, code) token, expired or not, and
	// returns it. domain.ErrNotFound when no such token exists.
	Consume(ctx context.Context, identifier, code string) (*domain.VerificationToken, error)
	// Find returns the (identifier, code) token without deleting it.
	Find(ctx context.Context, identifier, code string) (*domain.VerificationToken, error)
	// DeleteExpired removes tokens that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Service interface {
	Generate() (string, error)
	Store(ctx context.Context, identifier, code string, ttl time.Duration) error
	Issue(ctx context.Context, identifier string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, identifier, code string) error
	Check(ctx context.Context, identifier, code string) error
	CleanupExpired(ctx context.Context) (int, error)
}

// ServiceDeps holds the dependencies for the OTP service.
type ServiceDeps struct {
	Store TokenStore
	Now   func() time.Time // defaults to time.Now
}

type service struct {
	store TokenStore
	now   func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{store: deps.Store, now: now}
}

func (s *service) Generate() (string, error) {
	return pkgtoken.NewOTP()
}

func (s *service) Store(ctx context.Context, identifier, code string, ttl time.Duration) error {
	if identifier == "" || code == "" {
		return fmt.Errorf("identifier and code required: %w", domain.ErrBadRequest)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	t := &domain.VerificationToken{
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  s.now().Add(ttl).Unix(),
	}
	if err := s.store.Replace(ctx, t); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return nil
}

func (s *service) Issue(ctx context.Context, identifier string, ttl time.Duration) (string, error) {
	code, err := s.Generate()
	if err != nil {
		return "", err
	}
	if err := s.Store(ctx, identifier, code, ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the code. An expired code is removed as a side effect, so
// a second attempt with the same code reports ErrInvalidCode.
func (s *service) Verify(ctx context.Context, identifier, code string) error {
	if identifier == "" || code == "" {
		return ErrInvalidCode
	}
	t, err := s.store.Consume(ctx, identifier, code)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if t.Expired(s.now()) {
		return ErrCodeExpired
	}
	return nil
}

// Check runs the same lookup as Verify without consuming the code.
func (s *service) Check(ctx context.Context, identifier, code string) error {
	if identifier == "" || code == "" {
		return ErrInvalidCode
	}
	t, err := s.store.Find(ctx, identifier, code)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("find code: %w", err)
	}
	if t.Expired(s.now()) {
		return ErrCodeExpired
	}
	return nil
}

func (s *service) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return n, fmt.Errorf("delete expired codes: %w", err)
	}
	return n, nil
}
