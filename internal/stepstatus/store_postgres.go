package stepstatus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (s *PostgresStore) Append(ctx context.Context, rec StepStatus) (StepStatus, error) {
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO step_statuses (process_id, step_name, state, error_cause, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rec.ProcessID.String(), string(rec.Step), string(rec.State), rec.Cause, rec.RecordedAt).Scan(&rec.ID)
	if err != nil {
		return StepStatus{}, fmt.Errorf("append step status: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Latest(ctx context.Context, pid id.ProcessID, step models.Step) (StepStatus, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, process_id, step_name, state, error_cause, recorded_at
		FROM step_statuses
		WHERE process_id = $1 AND step_name = $2
		ORDER BY id DESC
		LIMIT 1
	`, pid.String(), string(step))
	rec, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StepStatus{}, sentinel.ErrNotFound
	}
	if err != nil {
		return StepStatus{}, fmt.Errorf("latest step status: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) History(ctx context.Context, pid id.ProcessID) ([]StepStatus, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, process_id, step_name, state, error_cause, recorded_at
		FROM step_statuses
		WHERE process_id = $1
		ORDER BY id ASC
	`, pid.String())
	if err != nil {
		return nil, fmt.Errorf("step history: %w", err)
	}
	defer rows.Close()

	var out []StepStatus
	for rows.Next() {
		rec, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step status: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatus(row scanner) (StepStatus, error) {
	var (
		rec   StepStatus
		pid   string
		step  string
		state string
	)
	if err := row.Scan(&rec.ID, &pid, &step, &state, &rec.Cause, &rec.RecordedAt); err != nil {
		return StepStatus{}, err
	}
	rec.ProcessID = id.ProcessID(pid)
	rec.Step = models.Step(step)
	rec.State = models.StepState(state)
	rec.RecordedAt = rec.RecordedAt.UTC()
	return rec, nil
}
