// Package verification calls the remote identity registry and liveness
// service over token-authenticated HTTP.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kyc/pkg/platform/circuit"
	dErrors "kyc/pkg/domain-errors"
)

var tracer = otel.Tracer("kyc/verification")

// TokenSource supplies bearer tokens. credential.Cache satisfies it.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
	Invalidate()
}

// Client performs single-attempt calls; callers own any retry policy.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	breaker *circuit.Breaker
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		breaker: circuit.New("verification"),
		timeout: 15 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegistrationRequest registers a customer with the identity registry.
type RegistrationRequest struct {
	CustomerID   string `json:"customer_id"`
	NationalCode string `json:"national_code"`
}

// InquiryRequest submits a stored video for liveness checking.
type InquiryRequest struct {
	ProcessID    string `json:"process_id"`
	InquiryToken string `json:"inquiry_token"`
	DocumentPath string `json:"document_path"`
	DocumentHash string `json:"document_hash"`
}

type InquiryResult struct {
	InquiryID string `json:"inquiry_id"`
	Status    string `json:"status"`
}

// RegisterCustomer is idempotent on the remote side: a 409 means the
// customer already exists and counts as success.
func (c *Client) RegisterCustomer(ctx context.Context, req RegistrationRequest) error {
	err := c.call(ctx, "register_customer", http.MethodPost, "/v1/customers", req, nil)
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode == http.StatusConflict {
		return nil
	}
	if err != nil {
		return toDomain(err)
	}
	return nil
}

// SubmitInquiry starts a liveness inquiry for an uploaded video.
func (c *Client) SubmitInquiry(ctx context.Context, req InquiryRequest) (InquiryResult, error) {
	var res InquiryResult
	if err := c.call(ctx, "submit_inquiry", http.MethodPost, "/v1/liveness/inquiries", req, &res); err != nil {
		return InquiryResult{}, toDomain(err)
	}
	if res.InquiryID == "" {
		return InquiryResult{}, toDomain(NewProviderError(ErrorBadData, "submit_inquiry", "response has no inquiry id", nil))
	}
	return res, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, body, out any) (err error) {
	ctx, span := tracer.Start(ctx, "verification."+op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !c.breaker.Allow() {
		return NewProviderError(ErrorCircuitOpen, op, "circuit open", nil)
	}
	err = c.do(ctx, op, method, path, body, out)
	c.record(op, err)
	return err
}

func (c *Client) record(op string, err error) {
	var change circuit.StateChange
	if err != nil && countsAsFailure(err) {
		_, change = c.breaker.RecordFailure()
	} else if err == nil {
		_, change = c.breaker.RecordSuccess()
	}
	if change.Opened {
		c.logger.Warn("verification circuit opened", "operation", op)
	}
	if change.Closed {
		c.logger.Info("verification circuit closed", "operation", op)
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return NewProviderError(ErrorTimeout, op, "token fetch timed out", err)
		}
		return NewProviderError(ErrorAuthentication, op, "token unavailable", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return NewProviderError(ErrorInternal, op, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewProviderError(ErrorInternal, op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.path", path))

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return NewProviderError(ErrorTimeout, op, "request timed out", err)
		}
		return NewProviderError(ErrorOutage, op, "request failed", err)
	}
	defer res.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return NewProviderError(ErrorOutage, op, "read response", err)
	}
	if perr := statusError(op, res.StatusCode); perr != nil {
		if res.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		return perr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewProviderError(ErrorBadData, op, "decode response", err)
	}
	return nil
}

func statusError(op string, status int) *ProviderError {
	var perr *ProviderError
	switch {
	case status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		perr = NewProviderError(ErrorAuthentication, op, "credentials rejected", nil)
	case status == http.StatusTooManyRequests:
		perr = NewProviderError(ErrorRateLimited, op, "rate limited", nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		perr = NewProviderError(ErrorTimeout, op, "upstream timed out", nil)
	case status >= 500:
		perr = NewProviderError(ErrorOutage, op, fmt.Sprintf("status %d", status), nil)
	default:
		perr = NewProviderError(ErrorRejected, op, fmt.Sprintf("status %d", status), nil)
	}
	perr.StatusCode = status
	return perr
}
