package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bosflow/bosflow/model"
)

// PgStore is a PostgreSQL-backed Store using pgx/v5. Snapshots land in
// the bosflow_backups table with the document body as JSONB:
//
//	CREATE TABLE bosflow_backups (
//	    id         UUID PRIMARY KEY,
//	    reason     TEXT NOT NULL,
//	    label      TEXT NOT NULL DEFAULT '',
//	    version    TEXT NOT NULL,
//	    size_bytes INTEGER NOT NULL,
//	    snapshot   JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL backup store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create inserts a new snapshot row.
func (s *PgStore) Create(ctx context.Context, doc model.Document, reason, label string) (Record, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	rec := Record{
		ID:        uuid.NewString(),
		Reason:    reason,
		Label:     label,
		Version:   doc.Version(),
		SizeBytes: len(body),
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO bosflow_backups (
			id, reason, label, version, size_bytes, snapshot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Reason, rec.Label, rec.Version, rec.SizeBytes, body, rec.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert backup: %w", err)
	}
	return rec, nil
}

// Restore retrieves the snapshot body by ID.
func (s *PgStore) Restore(ctx context.Context, id string) (model.Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `
		SELECT snapshot FROM bosflow_backups WHERE id = $1`, id,
	).Scan(&body)
	if err == pgx.ErrNoRows {
		return nil, model.NewNotFoundError(fmt.Sprintf("backup %q not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("query backup: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return doc, nil
}

// List returns all backup records, newest first.
func (s *PgStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, reason, label, version, size_bytes, created_at
		FROM bosflow_backups
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Reason, &rec.Label, &rec.Version, &rec.SizeBytes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HealthCheck pings the connection pool.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Delete removes a snapshot row.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bosflow_backups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(fmt.Sprintf("backup %q not found", id))
	}
	return nil
}
