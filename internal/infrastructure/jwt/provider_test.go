package jwtinfra

import (
	"strings"
	"testing"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret)
	require.NoError(t, err)
	return c
}

func TestNewCodec_RejectsShortSecret(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewCodec(nil)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tok, issued, err := c.Issue("acc-1", domain.RolePartner, Profile{Name: "Ana", Email: "ana@x.io"})
	require.NoError(t, err)

	claims, ok := c.Decode(tok)
	require.True(t, ok)
	assert.Equal(t, "acc-1", claims.AccountID())
	assert.Equal(t, domain.RolePartner, claims.Role)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "ana@x.io", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, TTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	c := newTestCodec(t)
	_, a, err := c.Issue("acc-1", domain.RoleUser, Profile{})
	require.NoError(t, err)
	_, b, err := c.Issue("acc-1", domain.RoleUser, Profile{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestIssue_RejectsUnknownRole(t *testing.T) {
	c := newTestCodec(t)
	_, _, err := c.Issue("acc-1", domain.Role("ROOT"), Profile{})
	assert.Error(t, err)
}

func TestDecode_Expired(t *testing.T) {
	c := newTestCodec(t)
	issuedAt := time.Now().Add(-31 * 24 * time.Hour)
	c.now = func() time.Time { return issuedAt }
	tok, _, err := c.Issue("acc-1", domain.RoleUser, Profile{})
	require.NoError(t, err)

	c.now = time.Now
	_, ok := c.Decode(tok)
	assert.False(t, ok)
}

func TestDecode_TamperedSignature(t *testing.T) {
	c := newTestCodec(t)
	tok, _, err := c.Issue("acc-1", domain.RoleUser, Profile{})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, ok := c.Decode(parts[0] + "." + parts[1] + "." + string(sig))
	assert.False(t, ok)
}

func TestDecode_OtherSecret(t *testing.T) {
	c := newTestCodec(t)
	tok, _, err := c.Issue("acc-1", domain.RoleAdmin, Profile{})
	require.NoError(t, err)

	other, err := NewCodec([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	_, ok := other.Decode(tok)
	assert.False(t, ok)
}

func TestDecode_RejectsAlgNone(t *testing.T) {
	c := newTestCodec(t)
	claims := Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := c.Decode(tok)
	assert.False(t, ok)
}

func TestDecode_RejectsOtherHMACAlg(t *testing.T) {
	c := newTestCodec(t)
	claims := Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, ok := c.Decode(tok)
	assert.False(t, ok)
}

func TestDecode_RejectsUnknownRoleAndEmptySubject(t *testing.T) {
	c := newTestCodec(t)
	sign := func(sub string, role domain.Role) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role: role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   sub,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(testSecret)
		require.NoError(t, err)
		return tok
	}

	_, ok := c.Decode(sign("acc-1", domain.Role("SUPERUSER")))
	assert.False(t, ok)
	_, ok = c.Decode(sign("", domain.RoleUser))
	assert.False(t, ok)
	_, ok = c.Decode(sign("acc-1", domain.RoleEmployee))
	assert.True(t, ok)
}

func TestDecode_Garbage(t *testing.T) {
	c := newTestCodec(t)
	for _, tok := range []string{"", "abc", "a.b.c", "Bearer x"} {
		_, ok := c.Decode(tok)
		assert.False(t, ok, tok)
	}
}
