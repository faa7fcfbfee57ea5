package handler

import (
	"context"

	"github.com/go-marketplace-auth/internal/application/auth"
	"github.com/go-marketplace-auth/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Signup(ctx context.Context, req auth.SignupRequest) (*domain.PublicAccount, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.PublicAccount); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Signin(ctx context.Context, req auth.SigninRequest) (*auth.Session, error) {
	args := m.Called(ctx, req)
	if s, _ := args.Get(0).(*auth.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) SigninWithGoogle(ctx context.Context, req auth.GoogleSigninRequest) (*auth.Session, error) {
	args := m.Called(ctx, req)
	if s, _ := args.Get(0).(*auth.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) SendOTP(ctx context.Context, req auth.SendOTPRequest) (*auth.SendOTPResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.SendOTPResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) (*auth.VerifyOTPResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.VerifyOTPResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Get(ctx context.Context, accountID string) (*domain.PublicAccount, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.PublicAccount); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountSvc) List(ctx context.Context, limit int, cursor string) ([]domain.PublicAccount, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.PublicAccount), args.String(1), args.Error(2)
}
