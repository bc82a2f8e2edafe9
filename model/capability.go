package model

import "strings"

// CapabilitySet is a set of capabilities granted to a user. Each key is a
// capability string (e.g. "bos:evolution:execute") and may include
// wildcards (e.g. "bos:evolution:*").
type CapabilitySet map[string]bool

// Has returns true if the set contains the exact capability or a wildcard
// that matches it.
func (cs CapabilitySet) Has(cap string) bool {
	if cs[cap] {
		return true
	}
	for pattern := range cs {
		if matchWildcard(pattern, cap) {
			return true
		}
	}
	return false
}

// HasAll returns true if the set matches all given capabilities (including
// via wildcards).
func (cs CapabilitySet) HasAll(caps ...string) bool {
	for _, cap := range caps {
		if !cs.Has(cap) {
			return false
		}
	}
	return true
}

// HasAny returns true if the set matches at least one of the given
// capabilities (including via wildcards).
func (cs CapabilitySet) HasAny(caps ...string) bool {
	for _, cap := range caps {
		if cs.Has(cap) {
			return true
		}
	}
	return false
}

// matchWildcard returns true if pattern (which may end in "*") matches cap.
// Examples:
//
//	"*"                matches anything
//	"bos:evolution:*"  matches "bos:evolution:execute"
//	"bos:evolution"    does NOT match "bos:evolution:execute" (exact only)
func matchWildcard(pattern, cap string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.HasSuffix(pattern, ":*") {
		return false
	}
	prefix := pattern[:len(pattern)-1]
	return strings.HasPrefix(cap, prefix)
}

// CapabilityResolver resolves the full capability set for a request context.
type CapabilityResolver interface {
	Resolve(rctx *RequestContext) (CapabilitySet, error)
}
