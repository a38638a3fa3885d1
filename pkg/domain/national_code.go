package domain

import (
	"strings"

	dErrors "kyc/pkg/domain-errors"
)

const nationalCodeLength = 10

// NationalCode is a ten digit national identification number.
//
// Invariants:
//   - exactly ten ASCII digits
//   - not all digits identical
//   - the last digit is the weighted mod-11 check digit of the first nine
//
// Construct via ParseNationalCode; direct casting bypasses validation.
type NationalCode string

// ParseNationalCode validates a national code from external input.
// Surrounding whitespace is ignored. Errors carry CodeValidation.
func ParseNationalCode(s string) (NationalCode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "national code is required")
	}
	if !ValidNationalCode(s) {
		return "", dErrors.New(dErrors.CodeValidation, "national code checksum is invalid")
	}
	return NationalCode(s), nil
}

// ValidNationalCode reports whether s passes the national code checksum rule.
func ValidNationalCode(s string) bool {
	if len(s) != nationalCodeLength {
		return false
	}
	var digits [nationalCodeLength]int
	identical := true
	for i := 0; i < nationalCodeLength; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
		if c != s[0] {
			identical = false
		}
	}
	if identical {
		return false
	}

	sum := 0
	for i := 0; i < nationalCodeLength-1; i++ {
		sum += digits[i] * (nationalCodeLength - i)
	}
	remainder := sum % 11
	check := remainder
	if remainder >= 2 {
		check = 11 - remainder
	}
	return digits[nationalCodeLength-1] == check
}

func (n NationalCode) String() string { return string(n) }

func (n NationalCode) IsNil() bool { return n == "" }

// Masked keeps the last four digits, for logs.
func (n NationalCode) Masked() string {
	if len(n) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(n)-4) + string(n[len(n)-4:])
}
