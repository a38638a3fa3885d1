package credential

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kyc/internal/platform/config"
	dErrors "kyc/pkg/domain-errors"
)

// HTTPFetcher performs an OAuth2 client-credentials grant.
type HTTPFetcher struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	timeout      time.Duration

	client   *http.Client
	insecure *http.Client // nil unless the fallback is permitted
	logger   *slog.Logger
}

type FetcherOption func(*HTTPFetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher builds a fetcher from configuration. The insecure TLS
// fallback is only armed when it is requested and production is false.
func NewHTTPFetcher(cfg config.CredentialConfig, production bool, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scope:        cfg.Scope,
		timeout:      cfg.Timeout,
		client:       &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.timeout <= 0 {
		f.timeout = 10 * time.Second
	}
	if cfg.AllowInsecureTLSFallback && !production {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // gated to non-production
		f.insecure = &http.Client{Transport: transport}
	}
	return f
}

// InsecureFallbackEnabled reports whether a TLS failure may be retried unverified.
func (f *HTTPFetcher) InsecureFallbackEnabled() bool {
	return f.insecure != nil
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   *int64 `json:"expires_in"`
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.do(ctx, f.client)
	if err != nil && isTLSVerificationError(err) {
		if f.insecure == nil {
			return TokenResponse{}, dErrors.Wrap(err, dErrors.CodeUpstreamAuthFailure, "identity provider TLS verification failed")
		}
		f.logger.ErrorContext(ctx, "identity provider TLS verification failed, retrying without verification",
			"token_url", f.tokenURL,
			"error", err,
		)
		resp, err = f.do(ctx, f.insecure)
	}
	if err != nil {
		return TokenResponse{}, classifyTransportError(ctx, err)
	}
	return resp, nil
}

func (f *HTTPFetcher) do(ctx context.Context, client *http.Client) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if f.scope != "" {
		form.Set("scope", f.scope)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, dErrors.Wrap(err, dErrors.CodeUpstreamAuthFailure, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(f.clientID), url.QueryEscape(f.clientSecret))

	res, err := client.Do(req)
	if err != nil {
		return TokenResponse{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return TokenResponse{}, dErrors.Wrap(err, dErrors.CodeUpstreamAuthFailure, "read token response")
	}
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden ||
		res.StatusCode == http.StatusBadRequest:
		return TokenResponse{}, dErrors.New(dErrors.CodeUpstreamAuthFailure,
			fmt.Sprintf("identity provider rejected credentials: status %d", res.StatusCode))
	case res.StatusCode >= 300:
		return TokenResponse{}, dErrors.New(dErrors.CodeUpstreamAuthFailure,
			fmt.Sprintf("identity provider returned status %d", res.StatusCode))
	}

	var payload tokenPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return TokenResponse{}, dErrors.Wrap(err, dErrors.CodeUpstreamAuthFailure, "decode token response")
	}
	return TokenResponse{AccessToken: payload.AccessToken, ExpiresIn: payload.ExpiresIn}, nil
}

func isTLSVerificationError(err error) bool {
	var verr *tls.CertificateVerificationError
	var unknown x509.UnknownAuthorityError
	var invalid x509.CertificateInvalidError
	var host x509.HostnameError
	return errors.As(err, &verr) || errors.As(err, &unknown) ||
		errors.As(err, &invalid) || errors.As(err, &host)
}

// classifyTransportError reports every failed fetch as an upstream auth
// failure, except a deadline.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "token request timed out")
	}
	if dErrors.CodeOf(err) == dErrors.CodeUpstreamAuthFailure {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUpstreamAuthFailure, "token request failed")
}
