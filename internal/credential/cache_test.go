package credential

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kyc/pkg/domain-errors"
)

type stubFetcher struct {
	calls atomic.Int32
	delay time.Duration
	resp  TokenResponse
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context) (TokenResponse, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return TokenResponse{}, ctx.Err()
		}
	}
	return f.resp, f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func lifetime(seconds int64) *int64 {
	return &seconds
}

func TestGetTokenConcurrentCallersFetchOnce(t *testing.T) {
	fetcher := &stubFetcher{
		delay: 50 * time.Millisecond,
		resp:  TokenResponse{AccessToken: "tok-1", ExpiresIn: lifetime(300)},
	}
	cache := NewCache(fetcher)

	var wg sync.WaitGroup
	results := make([]string, 32)
	errs := make([]error, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetToken(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", results[i])
	}
}

func TestGetTokenRefreshesAfterSafetyWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{resp: TokenResponse{AccessToken: "tok", ExpiresIn: lifetime(120)}}
	cache := NewCache(fetcher, WithClock(clock.Now))

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	clock.Advance(89 * time.Second)
	_, err = cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load(), "still inside lifetime minus safety window")

	clock.Advance(2 * time.Second)
	_, err = cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestGetTokenMissingAccessTokenIsFatal(t *testing.T) {
	fetcher := &stubFetcher{resp: TokenResponse{ExpiresIn: lifetime(300)}}
	cache := NewCache(fetcher)

	_, err := cache.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamAuthFailure))
}

func TestGetTokenNonPositiveLifetimeIsFatal(t *testing.T) {
	for _, secs := range []int64{0, -5} {
		fetcher := &stubFetcher{resp: TokenResponse{AccessToken: "tok", ExpiresIn: lifetime(secs)}}
		cache := NewCache(fetcher)

		_, err := cache.GetToken(context.Background())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamAuthFailure))
	}
}

func TestGetTokenRejectsTokenInsideSafetyWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	pastJWT, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": clock.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := []struct {
		name string
		resp TokenResponse
	}{
		{name: "lifetime equal to safety window", resp: TokenResponse{AccessToken: "tok", ExpiresIn: lifetime(30)}},
		{name: "lifetime below safety window", resp: TokenResponse{AccessToken: "tok", ExpiresIn: lifetime(10)}},
		{name: "jwt already expired", resp: TokenResponse{AccessToken: pastJWT}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := NewCache(&stubFetcher{resp: tc.resp}, WithClock(clock.Now))

			tok, err := cache.GetToken(context.Background())
			require.Error(t, err)
			assert.Empty(t, tok)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamAuthFailure))
			assert.Nil(t, cache.current.Load())
		})
	}
}

func TestGetTokenUsesJWTExpiryWhenLifetimeMissing(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	exp := clock.Now().Add(10 * time.Minute)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "kyc-core",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	fetcher := &stubFetcher{resp: TokenResponse{AccessToken: raw}}
	cache := NewCache(fetcher, WithClock(clock.Now))

	_, err = cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exp.Add(-SafetyWindow).Unix(), cache.current.Load().ExpiresAt.Unix())
}

func TestGetTokenFallbackLifetimeForOpaqueToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{resp: TokenResponse{AccessToken: "opaque-token"}}
	cache := NewCache(fetcher, WithClock(clock.Now))

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(FallbackLifetime-SafetyWindow), cache.current.Load().ExpiresAt)
}

func TestGetTokenFetchErrorLeavesCacheEmpty(t *testing.T) {
	fetcher := &stubFetcher{err: dErrors.New(dErrors.CodeUpstreamServiceFailure, "down")}
	cache := NewCache(fetcher)

	_, err := cache.GetToken(context.Background())
	require.Error(t, err)
	assert.Nil(t, cache.current.Load())
}

func TestGetTokenCancelledWhileWaitingForRefresh(t *testing.T) {
	fetcher := &stubFetcher{resp: TokenResponse{AccessToken: "tok", ExpiresIn: lifetime(300)}}
	cache := NewCache(fetcher)
	require.NoError(t, cache.refresh.Acquire(context.Background(), 1))
	defer cache.refresh.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.GetToken(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	fetcher := &stubFetcher{resp: TokenResponse{AccessToken: "tok", ExpiresIn: lifetime(300)}}
	cache := NewCache(fetcher)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), fetcher.calls.Load())
}
