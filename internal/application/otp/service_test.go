package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService() (Service, *memory.VerificationRepo, *clock) {
	store := memory.NewVerificationRepo()
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(ServiceDeps{Store: store, Now: c.Now}), store, c
}

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) Replace(ctx context.Context, t *domain.VerificationToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTokenStore) Consume(ctx context.Context, identifier, code string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, identifier, code)
	if t, _ := args.Get(0).(*domain.VerificationToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) Find(ctx context.Context, identifier, code string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, identifier, code)
	if t, _ := args.Get(0).(*domain.VerificationToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// --- Generate ---

func TestGenerate_SixDigits(t *testing.T) {
	svc, _, _ := newTestService()
	re := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := svc.Generate()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

// --- Verify ---

func TestVerify_SucceedsOnceThenFails(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, "a@b.com", "123456", 10*time.Minute))

	require.NoError(t, svc.Verify(ctx, "a@b.com", "123456"))
	err := svc.Verify(ctx, "a@b.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

func TestIssue_PhoneCodeVerifiesOnce(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	code, err := svc.Issue(ctx, "+8801700000000", 10*time.Minute)
	require.NoError(t, err)

	c.Advance(time.Second)
	require.NoError(t, svc.Verify(ctx, "+8801700000000", code))
	assert.ErrorIs(t, svc.Verify(ctx, "+8801700000000", code), domain.ErrInvalidOrExpiredCode)
}

func TestVerify_WrongCodeLeavesTokenInPlace(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, "a@b.com", "123456", 10*time.Minute))

	assert.ErrorIs(t, svc.Verify(ctx, "a@b.com", "000000"), ErrInvalidCode)
	assert.NoError(t, svc.Verify(ctx, "a@b.com", "123456"))
}

func TestVerify_ExpiredIsRemovedAndThenNotFound(t *testing.T) {
	svc, store, c := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, "+5511999999999", "123456", 10*time.Minute))

	c.Advance(11 * time.Minute)
	err := svc.Verify(ctx, "+5511999999999", "123456")
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	assert.Equal(t, 0, store.Len())

	assert.ErrorIs(t, svc.Verify(ctx, "+5511999999999", "123456"), ErrInvalidCode)
}

func TestVerify_ReissueInvalidatesPreviousCode(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	first, err := svc.Issue(ctx, "a@b.com", 10*time.Minute)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "a@b.com", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	if first != second {
		assert.ErrorIs(t, svc.Verify(ctx, "a@b.com", first), ErrInvalidCode)
	}
	assert.NoError(t, svc.Verify(ctx, "a@b.com", second))
}

func TestVerify_ConcurrentSubmissionsOnlyOneWins(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, "a@b.com", "123456", 10*time.Minute))

	const n = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if svc.Verify(ctx, "a@b.com", "123456") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestVerify_EmptyInput(t *testing.T) {
	svc, _, _ := newTestService()
	assert.ErrorIs(t, svc.Verify(context.Background(), "", "123456"), ErrInvalidCode)
	assert.ErrorIs(t, svc.Verify(context.Background(), "a@b.com", ""), ErrInvalidCode)
}

func TestVerify_StoreErrorIsNotCollapsed(t *testing.T) {
	store := &mockTokenStore{}
	store.On("Consume", mock.Anything, "a@b.com", "123456").Return(nil, errors.New("dynamo down"))
	svc := NewService(ServiceDeps{Store: store})

	err := svc.Verify(context.Background(), "a@b.com", "123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

// --- Check ---

func TestCheck_DoesNotConsume(t *testing.T) {
	svc, store, c := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, "a@b.com", "123456", 10*time.Minute))

	assert.NoError(t, svc.Check(ctx, "a@b.com", "123456"))
	assert.NoError(t, svc.Check(ctx, "a@b.com", "123456"))
	assert.ErrorIs(t, svc.Check(ctx, "a@b.com", "654321"), ErrInvalidCode)
	assert.Equal(t, 1, store.Len())

	c.Advance(time.Hour)
	assert.ErrorIs(t, svc.Check(ctx, "a@b.com", "123456"), ErrCodeExpired)
	assert.Equal(t, 1, store.Len())
}

// --- Store ---

func TestStore_SetsExpiryFromTTL(t *testing.T) {
	store := &mockTokenStore{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.On("Replace", mock.Anything, &domain.VerificationToken{
		Identifier: "a@b.com",
		Code:       "123456",
		ExpiresAt:  now.Add(5 * time.Minute).Unix(),
	}).Return(nil)
	svc := NewService(ServiceDeps{Store: store, Now: func() time.Time { return now }})

	require.NoError(t, svc.Store(context.Background(), "a@b.com", "123456", 5*time.Minute))
	store.AssertExpectations(t)
}

func TestStore_RejectsEmptyIdentifier(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Store(context.Background(), "", "123456", time.Minute)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- CleanupExpired ---

func TestCleanupExpired_RemovesOnlyExpired(t *testing.T) {
	svc, store, c := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, "old@b.com", "111111", time.Minute))
	c.Advance(2 * time.Minute)
	require.NoError(t, svc.Store(ctx, "new@b.com", "222222", time.Minute))

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, svc.Verify(ctx, "new@b.com", "222222"))
}

type countingStore struct {
	*memory.VerificationRepo
	sweeps atomic.Int32
}

func (s *countingStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.sweeps.Add(1)
	return s.VerificationRepo.DeleteExpired(ctx, now)
}

func TestSweeper_RunsUntilCancelled(t *testing.T) {
	store := &countingStore{VerificationRepo: memory.NewVerificationRepo()}
	svc := NewService(ServiceDeps{Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(svc, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.sweeps.Load() > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_DisabledWithZeroInterval(t *testing.T) {
	svc, _, _ := newTestService()
	// returns immediately
	NewSweeper(svc, 0).Run(context.Background())
}
