package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the shortest HMAC secret NewCodec accepts.
const MinSecretLen = 32

// TTL is the fixed validity of a session token.
const TTL = 30 * 24 * time.Hour

var ErrWeakSecret = fmt.Errorf("session secret must be at least %d bytes", MinSecretLen)

// Claims holds the session token payload fields.
type Claims struct {
	Role  domain.Role `json:"role"`
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccountID returns the subject claim.
func (c Claims) AccountID() string { return c.Subject }

// Profile carries the optional display fields embedded in a session.
type Profile struct {
	Name  string
	Email string
}

// Codec signs and decodes HS256 session tokens.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Codec{secret: s, now: time.Now}, nil
}

// Issue mints a session token for the account.
func (c *Codec) Issue(accountID string, role domain.Role, profile Profile) (string, Claims, error) {
	if accountID == "" {
		return "", Claims{}, errors.New("issue session: empty account id")
	}
	if !role.Valid() {
		return "", Claims{}, fmt.Errorf("issue session: unknown role %q", role)
	}
	now := c.now().Truncate(time.Second)
	claims := Claims{
		Role:  role,
		Name:  profile.Name,
		Email: profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        id.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}
	return token, claims, nil
}

// Decode verifies the signature, expiry and claim shape of a session token.
// It reports false for any failure and never performs I/O.
func (c *Codec) Decode(tokenStr string) (Claims, bool) {
	if tokenStr == "" {
		return Claims{}, false
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, false
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, false
	}
	return claims, true
}
