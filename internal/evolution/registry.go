package evolution

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bosflow/bosflow/model"
)

// registrySnapshot is the immutable view readers resolve against.
// Writers build a fresh snapshot and swap it in atomically, so Plan and
// Check never observe a half-registered migration set.
type registrySnapshot struct {
	byVersion map[string]model.Migration
	ordered   []model.Migration
}

func emptyRegistrySnapshot() *registrySnapshot {
	return &registrySnapshot{byVersion: map[string]model.Migration{}}
}

// Registry holds the known migrations keyed by target version.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[registrySnapshot]
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(emptyRegistrySnapshot())
	return r
}

// Register adds or replaces the migration for its target version.
// Re-registering a version overwrites the previous entry, which lets
// callers hot-patch a transform without draining the registry.
func (r *Registry) Register(m model.Migration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapWith(m)
}

// RegisterStrict is Register with duplicate and shape checks, for
// callers that treat a version collision as a wiring bug.
func (r *Registry) RegisterStrict(m model.Migration) error {
	if m.Version == "" {
		return fmt.Errorf("migration has no target version")
	}
	if m.Up == nil {
		return fmt.Errorf("migration %s has no up transform", m.Version)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.current.Load().byVersion[m.Version]; exists {
		return fmt.Errorf("migration %s is already registered", m.Version)
	}
	r.swapWith(m)
	return nil
}

// swapWith rebuilds the snapshot including m. Caller holds r.mu.
func (r *Registry) swapWith(m model.Migration) {
	prev := r.current.Load()
	next := &registrySnapshot{byVersion: make(map[string]model.Migration, len(prev.byVersion)+1)}
	for v, existing := range prev.byVersion {
		next.byVersion[v] = existing
	}
	next.byVersion[m.Version] = m
	next.ordered = make([]model.Migration, 0, len(next.byVersion))
	for _, mig := range next.byVersion {
		next.ordered = append(next.ordered, mig)
	}
	sort.Slice(next.ordered, func(i, j int) bool {
		return CompareVersions(next.ordered[i].Version, next.ordered[j].Version) < 0
	})
	r.current.Store(next)
}

// Get returns the migration targeting version, if registered.
func (r *Registry) Get(version string) (model.Migration, bool) {
	m, ok := r.current.Load().byVersion[version]
	return m, ok
}

// All returns every registered migration in ascending version order.
func (r *Registry) All() []model.Migration {
	snap := r.current.Load()
	out := make([]model.Migration, len(snap.ordered))
	copy(out, snap.ordered)
	return out
}

// Select returns the migrations with target versions in (current,
// target], ascending. An empty result means the document is already at
// or past the target, or no registered migration bridges the gap.
func (r *Registry) Select(current, target string) []model.Migration {
	snap := r.current.Load()
	var out []model.Migration
	for _, m := range snap.ordered {
		if CompareVersions(m.Version, current) > 0 && CompareVersions(m.Version, target) <= 0 {
			out = append(out, m)
		}
	}
	return out
}

// Len reports the number of registered migrations.
func (r *Registry) Len() int {
	return len(r.current.Load().ordered)
}
