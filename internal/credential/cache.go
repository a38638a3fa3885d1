// Package credential caches the OAuth client-credentials token used to call
// the remote verification services.
package credential

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/semaphore"

	"kyc/internal/credential/metrics"
	dErrors "kyc/pkg/domain-errors"
)

const (
	// SafetyWindow is subtracted from every expiry so a token is never used
	// right at its edge.
	SafetyWindow = 30 * time.Second
	// FallbackLifetime applies when neither the response nor the token carry an expiry.
	FallbackLifetime = 60 * time.Second
)

// Token is an access token with its absolute usable-until time.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (t *Token) validAt(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// TokenResponse is what a token endpoint reported.
// ExpiresIn is nil when the endpoint omitted the lifetime.
type TokenResponse struct {
	AccessToken string
	ExpiresIn   *int64
}

// Fetcher retrieves a fresh token from the identity provider.
type Fetcher interface {
	Fetch(ctx context.Context) (TokenResponse, error)
}

// Cache hands out a cached token and refreshes it at most once at a time.
// Readers never block while a valid token is published.
type Cache struct {
	fetcher Fetcher
	current atomic.Pointer[Token]
	refresh *semaphore.Weighted
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		refresh: semaphore.NewWeighted(1),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetToken returns a valid access token, fetching one if needed.
func (c *Cache) GetToken(ctx context.Context) (string, error) {
	if tok := c.current.Load(); tok.validAt(c.now()) {
		c.observeHit()
		return tok.AccessToken, nil
	}

	if err := c.refresh.Acquire(ctx, 1); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTimeout, "wait for token refresh")
	}
	defer c.refresh.Release(1)

	// Another caller may have refreshed while we waited.
	if tok := c.current.Load(); tok.validAt(c.now()) {
		c.observeHit()
		return tok.AccessToken, nil
	}

	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx)
	c.observeFetch(start, err)
	if err != nil {
		return "", err
	}
	tok, err := c.tokenFrom(resp)
	if err != nil {
		return "", err
	}
	c.current.Store(tok)
	c.logger.InfoContext(ctx, "verification token refreshed",
		"expires_at", tok.ExpiresAt,
	)
	return tok.AccessToken, nil
}

// Invalidate drops the cached token, e.g. after the remote rejected it.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}

func (c *Cache) tokenFrom(resp TokenResponse) (*Token, error) {
	if resp.AccessToken == "" {
		return nil, dErrors.New(dErrors.CodeUpstreamAuthFailure, "token response has no access token")
	}
	now := c.now()

	var expiry time.Time
	switch {
	case resp.ExpiresIn != nil:
		if *resp.ExpiresIn <= 0 {
			return nil, dErrors.New(dErrors.CodeUpstreamAuthFailure, "token response has non-positive lifetime")
		}
		expiry = now.Add(time.Duration(*resp.ExpiresIn) * time.Second)
	default:
		if exp, ok := jwtExpiry(resp.AccessToken); ok {
			expiry = exp
		} else {
			expiry = now.Add(FallbackLifetime)
		}
	}
	usable := expiry.Add(-SafetyWindow)
	if !usable.After(now) {
		return nil, dErrors.New(dErrors.CodeUpstreamAuthFailure, "token expires inside the safety window")
	}
	return &Token{AccessToken: resp.AccessToken, ExpiresAt: usable}, nil
}

// jwtExpiry reads the exp claim without verifying the signature; the token
// is only inspected for its lifetime, never trusted.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (c *Cache) observeHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) observeFetch(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveFetch(start, err)
}
