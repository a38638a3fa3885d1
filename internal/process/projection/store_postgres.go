package projection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kyc/internal/process/models"
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

func (s *PostgresStore) Upsert(ctx context.Context, p Process) error {
	var completed sql.NullTime
	if p.CompletedAt != nil {
		completed = sql.NullTime{Time: *p.CompletedAt, Valid: true}
	}
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO processes (process_id, customer_id, national_code, status, started_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (process_id) DO UPDATE SET
			status       = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			updated_at   = EXCLUDED.updated_at
	`, p.ProcessID.String(), uuid.UUID(p.CustomerID), p.NationalCode, string(p.Status),
		p.StartedAt, completed, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert process: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddAddress(ctx context.Context, pid id.ProcessID, addr models.Address) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO process_addresses (process_id, postal_code, address, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, pid.String(), addr.PostalCode, addr.Address, addr.CollectedAt)
	if err != nil {
		return fmt.Errorf("add address: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, pid id.ProcessID) (Process, error) {
	exec := tx.Exec(ctx, s.db)
	var (
		p          = Process{ProcessID: pid}
		customerID uuid.UUID
		status     string
		completed  sql.NullTime
	)
	err := exec.QueryRowContext(ctx, `
		SELECT customer_id, national_code, status, started_at, completed_at, updated_at
		FROM processes WHERE process_id = $1
	`, pid.String()).Scan(&customerID, &p.NationalCode, &status, &p.StartedAt, &completed, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Process{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Process{}, fmt.Errorf("get process: %w", err)
	}
	p.CustomerID = id.CustomerID(customerID)
	p.Status = models.Status(status)
	p.StartedAt = p.StartedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if completed.Valid {
		at := completed.Time.UTC()
		p.CompletedAt = &at
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT postal_code, address, recorded_at
		FROM process_addresses WHERE process_id = $1
		ORDER BY id ASC
	`, pid.String())
	if err != nil {
		return Process{}, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.PostalCode, &a.Address, &a.CollectedAt); err != nil {
			return Process{}, fmt.Errorf("scan address: %w", err)
		}
		a.CollectedAt = a.CollectedAt.UTC()
		p.Addresses = append(p.Addresses, a)
	}
	if err := rows.Err(); err != nil {
		return Process{}, fmt.Errorf("iterate addresses: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) LatestStatus(ctx context.Context, nationalCode string) (models.Status, error) {
	var status string
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT status FROM processes
		WHERE national_code = $1
		ORDER BY started_at DESC, updated_at DESC
		LIMIT 1
	`, nationalCode).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest status: %w", err)
	}
	return models.Status(status), nil
}
