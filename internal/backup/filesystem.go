package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bosflow/bosflow/model"
)

// envelope is the on-disk form: record metadata plus the snapshot body
// in a single JSON file named <id>.json.
type envelope struct {
	Record   Record         `json:"record"`
	Snapshot model.Document `json:"snapshot"`
}

// FilesystemStore persists snapshots as JSON files in a directory.
// Suitable for single-instance deployments that need backups to
// survive restarts without a database.
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates the backup directory if needed.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir %s: %w", dir, err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Create writes the snapshot to disk.
func (s *FilesystemStore) Create(_ context.Context, doc model.Document, reason, label string) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		Reason:    reason,
		Label:     label,
		Version:   doc.Version(),
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(envelope{Record: rec, Snapshot: doc}, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	rec.SizeBytes = len(data)

	// Re-marshal with the size stamped in.
	data, err = json.MarshalIndent(envelope{Record: rec, Snapshot: doc}, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(rec.ID), data, 0o644); err != nil {
		return Record{}, fmt.Errorf("write snapshot %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Restore reads a snapshot back from disk.
func (s *FilesystemStore) Restore(_ context.Context, id string) (model.Document, error) {
	env, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return env.Snapshot, nil
}

// List scans the directory for snapshot files, newest first.
func (s *FilesystemStore) List(_ context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir %s: %w", s.dir, err)
	}

	var out []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		env, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip corrupt files rather than failing the whole listing.
			continue
		}
		out = append(out, env.Record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a snapshot file.
func (s *FilesystemStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewNotFoundError(fmt.Sprintf("backup %q not found", id))
		}
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

func (s *FilesystemStore) path(id string) string {
	// IDs are generated UUIDs; the Base strips any path tricks from
	// externally supplied ids.
	return filepath.Join(s.dir, filepath.Base(id)+".json")
}

func (s *FilesystemStore) read(id string) (envelope, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envelope{}, model.NewNotFoundError(fmt.Sprintf("backup %q not found", id))
		}
		return envelope{}, fmt.Errorf("read snapshot %s: %w", id, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return env, nil
}
