package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-marketplace-auth/internal/application/identity"
	"github.com/go-marketplace-auth/internal/application/otp"
	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/infrastructure/google"
	jwtinfra "github.com/go-marketplace-auth/internal/infrastructure/jwt"
	"github.com/go-marketplace-auth/internal/pkg/id"
	"github.com/go-marketplace-auth/internal/pkg/password"
	"github.com/go-marketplace-auth/internal/pkg/validate"
)

// SessionIssuer mints session tokens.
type SessionIssuer interface {
	Issue(accountID string, role domain.Role, profile jwtinfra.Profile) (string, jwtinfra.Claims, error)
}

// Throttle counts attempts per key inside a fixed window.
type Throttle interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Notifier delivers a one-time code over the requested method.
type Notifier interface {
	SendCode(ctx context.Context, method domain.OTPMethod, to, code string) error
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*domain.PublicAccount, error)
	Signin(ctx context.Context, req SigninRequest) (*Session, error)
	SigninWithGoogle(ctx context.Context, req GoogleSigninRequest) (*Session, error)
	SendOTP(ctx context.Context, req SendOTPRequest) (*SendOTPResult, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResult, error)
}

// Limits configures the attempt throttles. A zero limit disables that throttle.
type Limits struct {
	OTPSend       int
	OTPSendWindow time.Duration
	Signin        int
	SigninWindow  time.Duration
}

// ServiceDeps holds all dependencies for the auth service.
// Throttle and Google are optional.
type ServiceDeps struct {
	Accounts identity.AccountStore
	Resolver identity.Resolver
	OTP      otp.Service
	Sessions SessionIssuer
	Notifier Notifier
	Throttle Throttle
	Google   GoogleVerifier
	OTPTTL   time.Duration
	OTPDebug bool
	Limits   Limits
}

type service struct {
	accounts identity.AccountStore
	resolver identity.Resolver
	otp      otp.Service
	sessions SessionIssuer
	notifier Notifier
	throttle Throttle
	google   GoogleVerifier
	otpTTL   time.Duration
	otpDebug bool
	limits   Limits
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.OTPTTL
	if ttl <= 0 {
		ttl = otp.DefaultTTL
	}
	return &service{
		accounts: deps.Accounts,
		resolver: deps.Resolver,
		otp:      deps.OTP,
		sessions: deps.Sessions,
		notifier: deps.Notifier,
		throttle: deps.Throttle,
		google:   deps.Google,
		otpTTL:   ttl,
		otpDebug: deps.OTPDebug,
		limits:   deps.Limits,
	}
}

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

func (s *service) Signup(ctx context.Context, req SignupRequest) (*domain.PublicAccount, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	email := identity.NormalizeEmail(req.Email)
	phone := identity.CanonicalizePhone(req.Phone)
	if err := s.resolver.ResolveForSignup(ctx, email, phone); err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Email:        &email,
		Phone:        &phone,
		PasswordHash: hash,
		Role:         req.UserType.Role(),
		Status:       domain.StatusActive,
		Name:         strings.TrimSpace(req.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.Role == domain.RolePartner {
		a.Address = strings.TrimSpace(req.Address)
		a.District = strings.TrimSpace(req.District)
		a.ServiceCategories = req.ServiceCategories
	}
	// Create enforces uniqueness again; a concurrent signup can win between
	// the check above and this write.
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	slog.Info("account created", "account_id", a.AccountID, "role", a.Role)
	return a.Public(), nil
}

func (s *service) Signin(ctx context.Context, req SigninRequest) (*Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	key := "signin:" + identity.NormalizeIdentifier(req.Username)
	if err := s.allow(ctx, key, s.limits.Signin, s.limits.SigninWindow); err != nil {
		return nil, err
	}

	a, err := s.resolver.ResolveForSignin(ctx, req.Username, req.UserType)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			password.Burn(req.Password)
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(req.Password, a.PasswordHash) || !a.Active() {
		return nil, errInvalidCredentials
	}
	return s.startSession(a)
}

func (s *service) SigninWithGoogle(ctx context.Context, req GoogleSigninRequest) (*Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if s.google == nil {
		return nil, fmt.Errorf("google signin not configured: %w", domain.ErrBadRequest)
	}
	p, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	if p.Email == "" || !p.EmailVerified {
		return nil, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}
	email := identity.NormalizeEmail(p.Email)

	a, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a, err = s.createGoogleAccount(ctx, email, p)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if a.GoogleSub != "" && a.GoogleSub != p.Sub {
			return nil, fmt.Errorf("google subject mismatch: %w", domain.ErrUnauthorized)
		}
		if !a.Active() {
			return nil, errInvalidCredentials
		}
		if a.GoogleSub == "" {
			if err := s.accounts.LinkGoogle(ctx, a.AccountID, p.Sub); err != nil {
				return nil, fmt.Errorf("link google: %w", err)
			}
			a.GoogleSub = p.Sub
		}
		if a.EmailVerifiedAt == nil {
			if err := s.resolver.MarkChannelVerified(ctx, a, domain.ChannelEmail); err != nil {
				return nil, err
			}
		}
	}
	return s.startSession(a)
}

func (s *service) createGoogleAccount(ctx context.Context, email string, p *google.Payload) (*domain.Account, error) {
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:       id.New(),
		Email:           &email,
		Role:            domain.RoleUser,
		Status:          domain.StatusActive,
		Name:            p.Name(),
		GoogleSub:       p.Sub,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	slog.Info("account created from google signin", "account_id", a.AccountID)
	return a, nil
}

func (s *service) SendOTP(ctx context.Context, req SendOTPRequest) (*SendOTPResult, error) {
	identifier, err := req.normalize()
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "otp:"+identifier, s.limits.OTPSend, s.limits.OTPSendWindow); err != nil {
		return nil, err
	}
	code, err := s.otp.Issue(ctx, identifier, s.otpTTL)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.SendCode(ctx, req.Method, identifier, code); err != nil {
		return nil, fmt.Errorf("deliver code via %s: %w", req.Method, err)
	}
	res := &SendOTPResult{Message: "verification code sent"}
	if s.otpDebug {
		res.Code = code
	}
	return res, nil
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResult, error) {
	identifier, err := req.normalize()
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, identifier, req.OTP); err != nil {
		return nil, err
	}
	if req.UserData != nil {
		return s.verifySignupChannels(ctx, identifier, req.UserData)
	}

	a, err := s.resolver.Lookup(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no account for verified identifier: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !a.Active() {
		return nil, errInvalidCredentials
	}
	if err := s.resolver.MarkChannelVerified(ctx, a, req.Method.Channel()); err != nil {
		return nil, err
	}
	sess, err := s.startSession(a)
	if err != nil {
		return nil, err
	}
	return &VerifyOTPResult{Account: sess.Account, Session: sess}, nil
}

// verifySignupChannels marks verified only the channels whose stored value
// is the identifier the code was sent to.
func (s *service) verifySignupChannels(ctx context.Context, identifier string, ud *UserData) (*VerifyOTPResult, error) {
	a, err := s.accountForUserData(ctx, ud)
	if err != nil {
		return nil, err
	}
	marked := false
	if a.EmailValue() != "" && a.EmailValue() == identifier {
		if err := s.resolver.MarkChannelVerified(ctx, a, domain.ChannelEmail); err != nil {
			return nil, err
		}
		marked = true
	}
	if a.PhoneValue() != "" && a.PhoneValue() == identifier {
		if err := s.resolver.MarkChannelVerified(ctx, a, domain.ChannelPhone); err != nil {
			return nil, err
		}
		marked = true
	}
	if !marked {
		return nil, fmt.Errorf("identifier not tied to account: %w", domain.ErrUnauthorized)
	}
	return &VerifyOTPResult{Account: a.Public()}, nil
}

func (s *service) accountForUserData(ctx context.Context, ud *UserData) (*domain.Account, error) {
	if e := identity.NormalizeEmail(ud.Email); e != "" {
		a, err := s.accounts.GetByEmail(ctx, e)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if p := identity.CanonicalizePhone(ud.Phone); p != "" {
		a, err := s.accounts.GetByPhone(ctx, p)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no account for user data: %w", domain.ErrUnauthorized)
}

func (s *service) startSession(a *domain.Account) (*Session, error) {
	token, claims, err := s.sessions.Issue(a.AccountID, a.Role, jwtinfra.Profile{
		Name:  a.Name,
		Email: a.EmailValue(),
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		Account:   a.Public(),
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// allow consults the throttle. Throttle failures admit the request.
func (s *service) allow(ctx context.Context, key string, limit int, window time.Duration) error {
	if s.throttle == nil || limit <= 0 {
		return nil
	}
	ok, err := s.throttle.Allow(ctx, key, limit, window)
	if err != nil {
		slog.Warn("throttle unavailable, allowing request", "key", key, "err", err)
		return nil
	}
	if !ok {
		return fmt.Errorf("%s: %w", key, domain.ErrTooManyRequests)
	}
	return nil
}
