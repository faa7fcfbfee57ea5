package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
)

// VerificationRepo is an in-process token store keyed by identifier, so a
// Replace naturally drops any previous token for the same identifier.
type VerificationRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.VerificationToken
}

func NewVerificationRepo() *VerificationRepo {
	return &VerificationRepo{tokens: make(map[string]domain.VerificationToken)}
}

func (r *VerificationRepo) Replace(_ context.Context, t *domain.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Identifier] = *t
	return nil
}

func (r *VerificationRepo) Consume(_ context.Context, identifier, code string) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[identifier]
	if !ok || t.Code != code {
		return nil, fmt.Errorf("verification token: %w", domain.ErrNotFound)
	}
	delete(r.tokens, identifier)
	return &t, nil
}

func (r *VerificationRepo) Find(_ context.Context, identifier, code string) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[identifier]
	if !ok || t.Code != code {
		return nil, fmt.Errorf("verification token: %w", domain.ErrNotFound)
	}
	return &t, nil
}

func (r *VerificationRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored tokens.
func (r *VerificationRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
