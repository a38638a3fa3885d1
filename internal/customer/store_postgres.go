package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
	"kyc/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ensure relies on the unique national_code; the no-op update makes
// RETURNING yield the existing row on conflict.
func (s *PostgresStore) Ensure(ctx context.Context, candidate Customer) (Customer, error) {
	var (
		rawID uuid.UUID
		out   = Customer{NationalCode: candidate.NationalCode}
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO customers (id, national_code, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (national_code) DO UPDATE SET national_code = EXCLUDED.national_code
		RETURNING id, created_at
	`, uuid.UUID(candidate.ID), candidate.NationalCode.String(), candidate.CreatedAt).Scan(&rawID, &out.CreatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("ensure customer: %w", err)
	}
	out.ID = id.CustomerID(rawID)
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

func (s *PostgresStore) FindByNationalCode(ctx context.Context, code id.NationalCode) (Customer, error) {
	var (
		rawID uuid.UUID
		out   = Customer{NationalCode: code}
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, created_at FROM customers WHERE national_code = $1
	`, code.String()).Scan(&rawID, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("find customer: %w", err)
	}
	out.ID = id.CustomerID(rawID)
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}
