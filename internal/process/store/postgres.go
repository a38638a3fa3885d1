package store

import (
	"context"
	"database/sql"
	"fmt"

	"kyc/internal/platform/postgres"
	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
	"kyc/pkg/platform/tx"
)

// PostgresEvents stores histories in process_events. The primary key on
// (process_id, version) turns a concurrent writer into a conflict.
type PostgresEvents struct {
	db *sql.DB
}

func NewPostgresEvents(db *sql.DB) *PostgresEvents {
	return &PostgresEvents{db: db}
}

func (s *PostgresEvents) Load(ctx context.Context, pid id.ProcessID) ([]models.Event, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT process_id, version, kind, payload, recorded_at
		FROM process_events
		WHERE process_id = $1
		ORDER BY version ASC
	`, pid.String())
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev      models.Event
			rawID   string
			kind    string
			payload []byte
		)
		if err := rows.Scan(&rawID, &ev.Version, &kind, &payload, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.ProcessID = id.ProcessID(rawID)
		ev.Kind = models.EventKind(kind)
		ev.RecordedAt = ev.RecordedAt.UTC()
		if ev.Data, err = models.DecodePayload(ev.Kind, payload); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *PostgresEvents) Append(ctx context.Context, ev models.Event) error {
	payload, err := models.EncodePayload(ev.Data)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO process_events (process_id, version, kind, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.ProcessID.String(), ev.Version, string(ev.Kind), string(payload), ev.RecordedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("append %s v%d: %w", ev.ProcessID, ev.Version, sentinel.ErrConflict)
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
