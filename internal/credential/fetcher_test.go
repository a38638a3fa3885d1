package credential

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc/internal/platform/config"
	"kyc/internal/platform/logger"
	dErrors "kyc/pkg/domain-errors"
)

func tokenHandler(t *testing.T, status int, body map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "kyc", user)
		assert.Equal(t, "s3cret", pass)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func credentialConfig(url string, insecure bool) config.CredentialConfig {
	return config.CredentialConfig{
		TokenURL:                 url,
		ClientID:                 "kyc",
		ClientSecret:             "s3cret",
		Timeout:                  2 * time.Second,
		AllowInsecureTLSFallback: insecure,
	}
}

func TestHTTPFetcherSuccess(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, http.StatusOK, map[string]any{
		"access_token": "abc",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}))
	defer srv.Close()

	f := NewHTTPFetcher(credentialConfig(srv.URL, false), false)
	resp, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.AccessToken)
	require.NotNil(t, resp.ExpiresIn)
	assert.Equal(t, int64(3600), *resp.ExpiresIn)
}

func TestHTTPFetcherMissingLifetime(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, http.StatusOK, map[string]any{"access_token": "abc"}))
	defer srv.Close()

	resp, err := NewHTTPFetcher(credentialConfig(srv.URL, false), false).Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, resp.ExpiresIn)
}

func TestHTTPFetcherRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, http.StatusUnauthorized, map[string]any{"error": "invalid_client"}))
	defer srv.Close()

	_, err := NewHTTPFetcher(credentialConfig(srv.URL, false), false).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamAuthFailure))
}

func TestHTTPFetcherServerError(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(tokenHandler(t, status, map[string]any{}))

		_, err := NewHTTPFetcher(credentialConfig(srv.URL, false), false).Fetch(context.Background())
		srv.Close()
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUpstreamAuthFailure, dErrors.CodeOf(err), "status %d", status)
		assert.True(t, dErrors.IsRecoverable(err))
	}
}

func TestHTTPFetcherUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(credentialConfig(url, false), false).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUpstreamAuthFailure, dErrors.CodeOf(err))
	assert.True(t, dErrors.IsRecoverable(err))

	var coded *dErrors.Error
	require.True(t, errors.As(err, &coded))
	assert.NotNil(t, coded.Err, "transport error kept as cause")
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	cfg := credentialConfig(srv.URL, false)
	cfg.Timeout = 50 * time.Millisecond
	_, err := NewHTTPFetcher(cfg, false).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeTimeout, dErrors.CodeOf(err))
}

func TestHTTPFetcherTLSFallback(t *testing.T) {
	srv := httptest.NewTLSServer(tokenHandler(t, http.StatusOK, map[string]any{
		"access_token": "abc",
		"expires_in":   60,
	}))
	defer srv.Close()

	t.Run("disabled by default", func(t *testing.T) {
		f := NewHTTPFetcher(credentialConfig(srv.URL, false), false)
		assert.False(t, f.InsecureFallbackEnabled())

		_, err := f.Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamAuthFailure))
	})

	t.Run("never in production", func(t *testing.T) {
		f := NewHTTPFetcher(credentialConfig(srv.URL, true), true)
		assert.False(t, f.InsecureFallbackEnabled())

		_, err := f.Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamAuthFailure))
	})

	t.Run("allowed outside production", func(t *testing.T) {
		f := NewHTTPFetcher(credentialConfig(srv.URL, true), false, WithFetcherLogger(logger.Discard()))
		assert.True(t, f.InsecureFallbackEnabled())

		resp, err := f.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", resp.AccessToken)
	})
}
