// Package backup persists pre-migration document snapshots so failed
// evolutions can be rolled back wholesale. Three drivers share one
// Store interface: in-memory, filesystem, and PostgreSQL.
package backup

import (
	"context"
	"time"

	"github.com/bosflow/bosflow/model"
)

// Record describes one stored snapshot. The snapshot body itself is
// returned only by Restore.
type Record struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	Label     string    `json:"label,omitempty"`
	Version   string    `json:"version"`
	SizeBytes int       `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists document snapshots keyed by generated ID.
type Store interface {
	// Create stores a deep snapshot of doc and returns its record.
	Create(ctx context.Context, doc model.Document, reason, label string) (Record, error)

	// Restore returns the snapshot stored under id.
	Restore(ctx context.Context, id string) (model.Document, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]Record, error)

	// Delete removes the snapshot stored under id.
	Delete(ctx context.Context, id string) error
}
