package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
)

// AccountRepo is an in-process account store. It enforces the same email
// and phone uniqueness as the persistent stores.
type AccountRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string
	byPhone map[string]string
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func (r *AccountRepo) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.AccountID]; ok {
		return fmt.Errorf("account %s exists: %w", a.AccountID, domain.ErrConflict)
	}
	if e := a.EmailValue(); e != "" {
		if _, ok := r.byEmail[e]; ok {
			return &domain.ConflictError{Field: "email"}
		}
	}
	if p := a.PhoneValue(); p != "" {
		if _, ok := r.byPhone[p]; ok {
			return &domain.ConflictError{Field: "phone"}
		}
	}
	r.byID[a.AccountID] = clone(*a)
	if e := a.EmailValue(); e != "" {
		r.byEmail[e] = a.AccountID
	}
	if p := a.PhoneValue(); p != "" {
		r.byPhone[p] = a.AccountID
	}
	return nil
}

func (r *AccountRepo) Get(_ context.Context, accountID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(accountID)
}

func (r *AccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byEmail[email])
}

func (r *AccountRepo) GetByPhone(_ context.Context, phone string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byPhone[phone])
}

func (r *AccountRepo) MarkVerified(_ context.Context, accountID string, ch domain.Channel, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	at = at.UTC()
	switch ch {
	case domain.ChannelEmail:
		a.EmailVerifiedAt = &at
	case domain.ChannelPhone:
		a.PhoneVerifiedAt = &at
	default:
		return fmt.Errorf("unknown channel %q: %w", ch, domain.ErrBadRequest)
	}
	a.UpdatedAt = at
	r.byID[accountID] = a
	return nil
}

func (r *AccountRepo) LinkGoogle(_ context.Context, accountID, sub string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	a.GoogleSub = sub
	a.UpdatedAt = time.Now().UTC()
	r.byID[accountID] = a
	return nil
}

// ScanPage returns accounts ordered by id, using the same opaque cursor
// format as the persistent stores.
func (r *AccountRepo) ScanPage(_ context.Context, limit int32, cursor string) ([]domain.Account, string, error) {
	after := ""
	if cursor != "" {
		b, err := base64.RawURLEncoding.DecodeString(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		after = string(b)
	}
	r.mu.RLock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		if id > after {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > int(limit) {
		ids = ids[:limit]
	}
	page := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		page = append(page, clone(r.byID[id]))
	}
	r.mu.RUnlock()

	next := ""
	if len(page) == int(limit) {
		next = base64.RawURLEncoding.EncodeToString([]byte(page[len(page)-1].AccountID))
	}
	return page, next, nil
}

func (r *AccountRepo) get(accountID string) (*domain.Account, error) {
	a, ok := r.byID[accountID]
	if !ok {
		return nil, fmt.Errorf("account: %w", domain.ErrNotFound)
	}
	c := clone(a)
	return &c, nil
}

// clone copies pointer and slice fields so callers never share state with the store.
func clone(a domain.Account) domain.Account {
	if a.Email != nil {
		e := *a.Email
		a.Email = &e
	}
	if a.Phone != nil {
		p := *a.Phone
		a.Phone = &p
	}
	if a.EmailVerifiedAt != nil {
		t := *a.EmailVerifiedAt
		a.EmailVerifiedAt = &t
	}
	if a.PhoneVerifiedAt != nil {
		t := *a.PhoneVerifiedAt
		a.PhoneVerifiedAt = &t
	}
	a.ServiceCategories = slices.Clone(a.ServiceCategories)
	return a
}
