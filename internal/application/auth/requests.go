package auth

import (
	"strings"
	"time"

	"github.com/go-marketplace-auth/internal/application/identity"
	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/pkg/password"
	"github.com/go-marketplace-auth/internal/pkg/validate"
)

type SignupRequest struct {
	Name              string          `json:"name" validate:"required,max=120"`
	Email             string          `json:"email" validate:"required,email"`
	Phone             string          `json:"phone" validate:"required,phone"`
	Password          string          `json:"password" validate:"required"`
	ConfirmPassword   string          `json:"confirmPassword" validate:"required,eqfield=Password"`
	UserType          domain.UserType `json:"userType" validate:"omitempty,oneof=user partner"`
	Address           string          `json:"address" validate:"required_if=UserType partner,max=255"`
	District          string          `json:"district" validate:"required_if=UserType partner,max=120"`
	ServiceCategories []string        `json:"serviceCategories" validate:"required_if=UserType partner,dive,required"`
}

func (r SignupRequest) validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if err := password.Validate(r.Password); err != nil {
		return domain.NewValidationError(map[string]string{"password": err.Error()})
	}
	if r.UserType.Role() == domain.RolePartner && len(r.ServiceCategories) == 0 {
		return domain.NewValidationError(map[string]string{"serviceCategories": "is required"})
	}
	return nil
}

type SigninRequest struct {
	Username string          `json:"username" validate:"required"`
	Password string          `json:"password" validate:"required"`
	UserType domain.UserType `json:"userType" validate:"omitempty,oneof=user partner"`
}

type GoogleSigninRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type SendOTPRequest struct {
	Identifier string           `json:"identifier" validate:"required"`
	Method     domain.OTPMethod `json:"method" validate:"required,oneof=phone email whatsapp"`
}

// normalize validates the request and returns the identifier in stored form.
func (r SendOTPRequest) normalize() (string, error) {
	if err := validate.Struct(r); err != nil {
		return "", err
	}
	return normalizeIdentifier(r.Identifier, r.Method)
}

type UserData struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	Identifier string           `json:"identifier" validate:"required"`
	OTP        string           `json:"otp" validate:"required,numeric,len=6"`
	Method     domain.OTPMethod `json:"method" validate:"required,oneof=phone email whatsapp"`
	UserData   *UserData        `json:"userData"`
}

func (r VerifyOTPRequest) normalize() (string, error) {
	if err := validate.Struct(r); err != nil {
		return "", err
	}
	return normalizeIdentifier(r.Identifier, r.Method)
}

func normalizeIdentifier(raw string, method domain.OTPMethod) (string, error) {
	if method == domain.OTPMethodEmail {
		email := identity.NormalizeEmail(raw)
		if err := validate.Var("identifier", email, "email"); err != nil {
			return "", err
		}
		return email, nil
	}
	p := identity.CanonicalizePhone(strings.TrimSpace(raw))
	if err := validate.Var("identifier", p, "phone"); err != nil {
		return "", err
	}
	return p, nil
}

type SendOTPResult struct {
	Message string
	// Code is set only when debug code echo is enabled.
	Code string
}

// Session is a signed-in account plus its freshly issued token.
type Session struct {
	Account   *domain.PublicAccount
	Token     string
	ExpiresAt time.Time
}

// VerifyOTPResult carries the account and, for signin-by-code, a session.
type VerifyOTPResult struct {
	Account *domain.PublicAccount
	Session *Session
}
