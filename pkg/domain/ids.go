package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "kyc/pkg/domain-errors"
)

const maxProcessIDLength = 128

// ProcessID is the workflow-engine assigned identifier of one verification process.
// The engine owns its format; we only require a bounded, printable, non-blank value.
type ProcessID string

// ParseProcessID validates an engine-supplied process id at a trust boundary.
func ParseProcessID(s string) (ProcessID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "process id is required")
	}
	if len(s) > maxProcessIDLength || !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "process id is malformed")
	}
	for _, r := range s {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeValidation, "process id is malformed")
		}
	}
	return ProcessID(s), nil
}

func (p ProcessID) String() string { return string(p) }

func (p ProcessID) IsNil() bool { return p == "" }

// CustomerID is the internal surrogate key of a customer.
type CustomerID uuid.UUID

// NewCustomerID returns a fresh random customer id.
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// ParseCustomerID parses a UUID string, rejecting empty and nil values.
func ParseCustomerID(s string) (CustomerID, error) {
	if s == "" {
		return CustomerID{}, dErrors.New(dErrors.CodeInvalidInput, "customer id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return CustomerID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid customer id")
	}
	if parsed == uuid.Nil {
		return CustomerID{}, dErrors.New(dErrors.CodeInvalidInput, "customer id cannot be nil")
	}
	return CustomerID(parsed), nil
}

func (c CustomerID) String() string { return uuid.UUID(c).String() }

func (c CustomerID) IsNil() bool { return uuid.UUID(c) == uuid.Nil }

// MarshalText encodes the nil id as an empty string.
func (c CustomerID) MarshalText() ([]byte, error) {
	if c.IsNil() {
		return []byte{}, nil
	}
	return []byte(c.String()), nil
}

func (c *CustomerID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = CustomerID{}
		return nil
	}
	parsed, err := ParseCustomerID(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
