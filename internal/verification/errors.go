package verification

import (
	"errors"
	"fmt"

	dErrors "kyc/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy of the remote service.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "provider_outage"
	ErrorRejected       ErrorCategory = "rejected"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorCircuitOpen    ErrorCategory = "circuit_open"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError wraps a failed remote call with its category.
type ProviderError struct {
	Category   ErrorCategory
	Operation  string
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("verification %s [%s]: %s: %v", e.Operation, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("verification %s [%s]: %s", e.Operation, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError derives Retryable from the category.
func NewProviderError(category ErrorCategory, op, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited ||
		category == ErrorCircuitOpen
	return &ProviderError{
		Category:   category,
		Operation:  op,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether err is a ProviderError worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// countsAsFailure reports whether the breaker should see err as the service
// being unhealthy. Rejections of our input say nothing about its health.
func countsAsFailure(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Category {
	case ErrorTimeout, ErrorOutage, ErrorInternal:
		return true
	}
	return false
}

// toDomain wraps a provider error with the matching domain code.
func toDomain(err error) error {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return dErrors.Wrap(err, dErrors.CodeUpstreamServiceFailure, "verification service call failed")
	}
	switch pe.Category {
	case ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeUpstreamAuthFailure, "verification service rejected credentials")
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification service timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstreamServiceFailure, "verification service call failed")
	}
}
