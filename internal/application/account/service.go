package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-marketplace-auth/internal/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service is the read-only account directory used by administrative routes.
type Service interface {
	Get(ctx context.Context, accountID string) (*domain.PublicAccount, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.PublicAccount, string, error)
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error)
}

type ServiceDeps struct {
	Accounts accountStore
}

type service struct {
	repo accountStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.Accounts}
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.PublicAccount, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("account id is required: %w", domain.ErrBadRequest)
	}
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return a.Public(), nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.PublicAccount, string, error) {
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	accounts, next, err := s.repo.ScanPage(ctx, int32(limit), cursor)
	if err != nil {
		return nil, "", err
	}
	out := make([]domain.PublicAccount, len(accounts))
	for i := range accounts {
		out[i] = *accounts[i].Public()
	}
	return out, next, nil
}
