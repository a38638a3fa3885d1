package customer

import (
	"context"

	id "kyc/pkg/domain"
)

// Store persists customers. FindByNationalCode returns sentinel.ErrNotFound
// for unknown codes.
type Store interface {
	// Ensure returns the customer for code, creating it with candidate when absent.
	Ensure(ctx context.Context, candidate Customer) (Customer, error)
	FindByNationalCode(ctx context.Context, code id.NationalCode) (Customer, error)
}
