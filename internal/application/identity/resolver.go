package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/pkg/phone"
)

// AccountStore is the persistence contract for accounts. Create must enforce
// email and phone uniqueness atomically and report a *domain.ConflictError.
type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	MarkVerified(ctx context.Context, accountID string, ch domain.Channel, at time.Time) error
	LinkGoogle(ctx context.Context, accountID, sub string) error
}

type Resolver interface {
	// ResolveForSignin finds the account matching identifier by email or
	// canonical phone, restricted to the role selected by userType.
	ResolveForSignin(ctx context.Context, identifier string, userType domain.UserType) (*domain.Account, error)
	// ResolveForSignup reports the first field already taken by any account.
	ResolveForSignup(ctx context.Context, email, phoneRaw string) error
	// Lookup resolves an OTP identifier to its account regardless of role.
	Lookup(ctx context.Context, identifier string) (*domain.Account, error)
	MarkChannelVerified(ctx context.Context, a *domain.Account, ch domain.Channel) error
}

type resolver struct {
	accounts AccountStore
	now      func() time.Time
}

func NewResolver(accounts AccountStore) Resolver {
	return &resolver{accounts: accounts, now: time.Now}
}

// CanonicalizePhone strips whitespace and ensures a leading "+".
func CanonicalizePhone(raw string) string { return phone.Canonicalize(raw) }

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(raw string) string { return strings.ToLower(strings.TrimSpace(raw)) }

// NormalizeIdentifier returns the stored form of an email or phone identifier.
func NormalizeIdentifier(raw string) string {
	if strings.Contains(raw, "@") {
		return NormalizeEmail(raw)
	}
	return CanonicalizePhone(raw)
}

func (r *resolver) ResolveForSignin(ctx context.Context, identifier string, userType domain.UserType) (*domain.Account, error) {
	a, err := r.find(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no account for identifier: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if a.Role != userType.Role() {
		return nil, fmt.Errorf("role mismatch: %w", domain.ErrUnauthorized)
	}
	return a, nil
}

func (r *resolver) ResolveForSignup(ctx context.Context, email, phoneRaw string) error {
	if e := NormalizeEmail(email); e != "" {
		_, err := r.accounts.GetByEmail(ctx, e)
		if err == nil {
			return &domain.ConflictError{Field: "email"}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
	}
	if p := CanonicalizePhone(phoneRaw); p != "" {
		_, err := r.accounts.GetByPhone(ctx, p)
		if err == nil {
			return &domain.ConflictError{Field: "phone"}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check phone: %w", err)
		}
	}
	return nil
}

func (r *resolver) Lookup(ctx context.Context, identifier string) (*domain.Account, error) {
	return r.find(ctx, identifier)
}

func (r *resolver) MarkChannelVerified(ctx context.Context, a *domain.Account, ch domain.Channel) error {
	at := r.now().UTC()
	if err := r.accounts.MarkVerified(ctx, a.AccountID, ch, at); err != nil {
		return fmt.Errorf("mark %s verified: %w", ch, err)
	}
	switch ch {
	case domain.ChannelEmail:
		a.EmailVerifiedAt = &at
	case domain.ChannelPhone:
		a.PhoneVerifiedAt = &at
	}
	return nil
}

// find matches by email first, then by canonical phone.
func (r *resolver) find(ctx context.Context, identifier string) (*domain.Account, error) {
	raw := strings.TrimSpace(identifier)
	if raw == "" {
		return nil, fmt.Errorf("empty identifier: %w", domain.ErrNotFound)
	}
	if strings.Contains(raw, "@") {
		a, err := r.accounts.GetByEmail(ctx, NormalizeEmail(raw))
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return a, err
		}
	}
	return r.accounts.GetByPhone(ctx, CanonicalizePhone(raw))
}
