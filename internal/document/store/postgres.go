package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kyc/internal/document/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
	"kyc/pkg/platform/tx"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `id, process_id, type, storage_path, hash, content_type, size_bytes, verified,
	encryption_alg, encryption_kid, encryption_nonce, created_at`

func (s *Postgres) Insert(ctx context.Context, doc models.Document) (models.Document, error) {
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO documents (process_id, type, storage_path, hash, content_type, size_bytes, verified,
			encryption_alg, encryption_kid, encryption_nonce, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		doc.ProcessID.String(), string(doc.Type), doc.StoragePath, doc.Hash, doc.ContentType, doc.SizeBytes,
		doc.Verified, doc.Encryption.Algorithm, doc.Encryption.KeyID,
		base64.StdEncoding.EncodeToString(doc.Encryption.Nonce), doc.CreatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return models.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *Postgres) Current(ctx context.Context, pid id.ProcessID, docType models.DocumentType) (models.Document, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE process_id = $1 AND type = $2
		ORDER BY id DESC
		LIMIT 1
	`, pid.String(), string(docType))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("current document: %w", err)
	}
	return doc, nil
}

func (s *Postgres) ListByProcess(ctx context.Context, pid id.ProcessID, types ...models.DocumentType) ([]models.Document, error) {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE process_id = $1 AND (cardinality($2::text[]) = 0 OR type = ANY($2::text[]))
		ORDER BY id ASC
	`, pid.String(), pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (models.Document, error) {
	var (
		doc     models.Document
		pid     string
		docType string
		nonce   string
	)
	err := row.Scan(&doc.ID, &pid, &docType, &doc.StoragePath, &doc.Hash, &doc.ContentType, &doc.SizeBytes,
		&doc.Verified, &doc.Encryption.Algorithm, &doc.Encryption.KeyID, &nonce, &doc.CreatedAt)
	if err != nil {
		return models.Document{}, err
	}
	doc.ProcessID = id.ProcessID(pid)
	doc.Type = models.DocumentType(docType)
	doc.CreatedAt = doc.CreatedAt.UTC()
	if nonce != "" {
		if doc.Encryption.Nonce, err = base64.StdEncoding.DecodeString(nonce); err != nil {
			return models.Document{}, fmt.Errorf("decode nonce: %w", err)
		}
	}
	return doc, nil
}
