package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAccountRepo_CreateAndLookup(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	a := &domain.Account{AccountID: "a1", Email: strPtr("a@b.com"), Phone: strPtr("+5511999999999"), Role: domain.RoleUser}
	require.NoError(t, r.Create(ctx, a))

	got, err := r.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AccountID)

	got, err = r.GetByPhone(ctx, "+5511999999999")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AccountID)

	_, err = r.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = r.GetByEmail(ctx, "x@y.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_UniqueAcrossRoles(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &domain.Account{AccountID: "a1", Email: strPtr("a@b.com"), Phone: strPtr("+111111111"), Role: domain.RoleUser}))

	err := r.Create(ctx, &domain.Account{AccountID: "a2", Email: strPtr("a@b.com"), Role: domain.RolePartner})
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "email", ce.Field)

	err = r.Create(ctx, &domain.Account{AccountID: "a3", Email: strPtr("c@d.com"), Phone: strPtr("+111111111"), Role: domain.RolePartner})
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "phone", ce.Field)

	// the failed create must not have claimed the email
	require.NoError(t, r.Create(ctx, &domain.Account{AccountID: "a4", Email: strPtr("c@d.com"), Role: domain.RoleUser}))
}

func TestAccountRepo_MarkVerified(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &domain.Account{AccountID: "a1", Email: strPtr("a@b.com")}))

	now := time.Now()
	require.NoError(t, r.MarkVerified(ctx, "a1", domain.ChannelEmail, now))
	got, err := r.Get(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerifiedAt)
	assert.Nil(t, got.PhoneVerifiedAt)

	err = r.MarkVerified(ctx, "nope", domain.ChannelEmail, now)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_ReturnsCopies(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &domain.Account{AccountID: "a1", Email: strPtr("a@b.com")}))

	got, err := r.Get(ctx, "a1")
	require.NoError(t, err)
	*got.Email = "changed@b.com"

	again, err := r.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", again.EmailValue())
}

func TestAccountRepo_ScanPage(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Create(ctx, &domain.Account{AccountID: id, Role: domain.RoleUser}))
	}

	page, next, err := r.ScanPage(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].AccountID)
	assert.Equal(t, "b", page[1].AccountID)
	require.NotEmpty(t, next)

	page, next, err = r.ScanPage(ctx, 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].AccountID)
	assert.Empty(t, next)

	_, _, err = r.ScanPage(ctx, 2, "%%%")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestVerificationRepo_ReplaceKeepsOnePerIdentifier(t *testing.T) {
	r := NewVerificationRepo()
	ctx := context.Background()
	exp := time.Now().Add(time.Minute).Unix()
	require.NoError(t, r.Replace(ctx, &domain.VerificationToken{Identifier: "a@b.com", Code: "111111", ExpiresAt: exp}))
	require.NoError(t, r.Replace(ctx, &domain.VerificationToken{Identifier: "a@b.com", Code: "222222", ExpiresAt: exp}))
	assert.Equal(t, 1, r.Len())

	_, err := r.Find(ctx, "a@b.com", "111111")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = r.Find(ctx, "a@b.com", "222222")
	assert.NoError(t, err)
}

func TestVerificationRepo_ConsumeOnce(t *testing.T) {
	r := NewVerificationRepo()
	ctx := context.Background()
	require.NoError(t, r.Replace(ctx, &domain.VerificationToken{Identifier: "a@b.com", Code: "111111", ExpiresAt: time.Now().Unix() + 60}))

	_, err := r.Consume(ctx, "a@b.com", "999999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 1, r.Len())

	tok, err := r.Consume(ctx, "a@b.com", "111111")
	require.NoError(t, err)
	assert.Equal(t, "111111", tok.Code)

	_, err = r.Consume(ctx, "a@b.com", "111111")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerificationRepo_DeleteExpired(t *testing.T) {
	r := NewVerificationRepo()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, r.Replace(ctx, &domain.VerificationToken{Identifier: "old", Code: "1", ExpiresAt: now.Add(-time.Minute).Unix()}))
	require.NoError(t, r.Replace(ctx, &domain.VerificationToken{Identifier: "new", Code: "2", ExpiresAt: now.Add(time.Minute).Unix()}))

	n, err := r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Len())
}
