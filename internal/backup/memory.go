package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bosflow/bosflow/model"
)

// MemoryStore is an in-memory Store. Suitable for testing and
// single-instance deployments where backups need not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	bodies  map[string]model.Document
}

// NewMemoryStore creates a new in-memory backup store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		bodies:  make(map[string]model.Document),
	}
}

// Create stores a deep snapshot of doc.
func (s *MemoryStore) Create(_ context.Context, doc model.Document, reason, label string) (Record, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	s.bodies[rec.ID] = doc.Clone()
	return rec, nil
}

// Restore returns a clone of the stored snapshot.
func (s *MemoryStore) Restore(_ context.Context, id string) (model.Document, error) {
	s.mu.RLock()
	body, exists := s.bodies[id]
	s.mu.RUnlock()

	if !exists {
		return nil, model.NewNotFoundError(fmt.Sprintf("backup %q not found", id))
	}
	return body.Clone(), nil
}

// List returns all records, newest first.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return model.NewNotFoundError(fmt.Sprintf("backup %q not found", id))
	}
	delete(s.records, id)
	delete(s.bodies, id)
	return nil
}

// Len returns the number of stored snapshots. For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
