// Package capability resolves and caches per-subject capability sets
// from a role-to-capability policy.
package capability

import (
	"sync"
	"time"

	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/model"
)

type cacheEntry struct {
	caps    model.CapabilitySet
	expires time.Time
}

// Resolver implements model.CapabilityResolver with an in-memory cache.
type Resolver struct {
	policy  *StaticPolicy
	ttl     time.Duration
	metrics *observability.Metrics
	mu      sync.RWMutex
	cache   map[string]cacheEntry
}

// NewResolver creates a Resolver over policy with the given cache TTL.
// metrics may be nil.
func NewResolver(policy *StaticPolicy, ttl time.Duration, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		policy:  policy,
		ttl:     ttl,
		metrics: metrics,
		cache:   make(map[string]cacheEntry),
	}
}

func cacheKey(rctx *model.RequestContext) string {
	key := rctx.SubjectID
	for _, role := range rctx.Roles {
		key += ":" + role
	}
	return key
}

// Resolve returns the full capability set for the given context. Results are
// cached for the configured TTL.
func (r *Resolver) Resolve(rctx *model.RequestContext) (model.CapabilitySet, error) {
	key := cacheKey(rctx)

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && time.Now().Before(entry.expires) {
		r.mu.RUnlock()
		if r.metrics != nil {
			r.metrics.RecordCapabilityCacheHit()
		}
		return entry.caps, nil
	}
	r.mu.RUnlock()

	if r.metrics != nil {
		r.metrics.RecordCapabilityCacheMiss()
	}
	caps := r.policy.CapabilitiesFor(rctx.Roles)

	r.mu.Lock()
	r.cache[key] = cacheEntry{caps: caps, expires: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return caps, nil
}

// Invalidate clears cached capabilities for the given subject.
func (r *Resolver) Invalidate(subjectID string) {
	prefix := subjectID + ":"
	r.mu.Lock()
	for key := range r.cache {
		if key == subjectID || (len(key) >= len(prefix) && key[:len(prefix)] == prefix) {
			delete(r.cache, key)
		}
	}
	r.mu.Unlock()
}
