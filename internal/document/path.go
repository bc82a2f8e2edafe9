// Package document reads and writes values inside BOS flow documents via
// dotted field paths. A path is a sequence of object keys separated by
// dots, with at most one array-wildcard segment:
//
//	owner.email          plain descent
//	stakeholders[].name  "name" of every element of "stakeholders"
//
// Paths are parsed once and cached; resolution never raises — absent or
// mis-shaped intermediates resolve to nil.
package document

import (
	"fmt"
	"strings"
	"sync"
)

// segment is one parsed path element.
type segment struct {
	name     string
	wildcard bool
}

// Path is a parsed, immutable field path.
type Path struct {
	raw           string
	segments      []segment
	wildcardIndex int // -1 when the path has no wildcard segment
}

// String returns the original path expression.
func (p *Path) String() string { return p.raw }

// HasWildcard reports whether the path contains an array-wildcard segment.
func (p *Path) HasWildcard() bool { return p.wildcardIndex >= 0 }

var (
	pathCacheMu sync.RWMutex
	pathCache   = make(map[string]*Path)
)

// Parse parses a path expression, consulting the process-wide cache.
func Parse(raw string) (*Path, error) {
	pathCacheMu.RLock()
	cached, ok := pathCache[raw]
	pathCacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	p, err := parse(raw)
	if err != nil {
		return nil, err
	}

	pathCacheMu.Lock()
	pathCache[raw] = p
	pathCacheMu.Unlock()
	return p, nil
}

func parse(raw string) (*Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty field path")
	}

	parts := strings.Split(raw, ".")
	p := &Path{raw: raw, wildcardIndex: -1}

	for i, part := range parts {
		seg := segment{name: part}
		if strings.HasSuffix(part, "[]") {
			seg.name = part[:len(part)-2]
			seg.wildcard = true
			if p.wildcardIndex >= 0 {
				return nil, fmt.Errorf("path %q: at most one wildcard segment is allowed", raw)
			}
			p.wildcardIndex = i
		}
		if seg.name == "" {
			return nil, fmt.Errorf("path %q: empty segment at position %d", raw, i)
		}
		if strings.ContainsAny(seg.name, "[]") {
			return nil, fmt.Errorf("path %q: malformed segment %q", raw, part)
		}
		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// Get resolves a path against a document. For a wildcard path it returns
// a []any produced by mapping the remaining segments over every element
// of the collection; if the collection is absent or not an array, Get
// returns nil rather than an error. Plain descent short-circuits to nil
// the moment an intermediate value is not an object.
func Get(doc map[string]any, path string) any {
	p, err := Parse(path)
	if err != nil {
		return nil
	}
	return p.Resolve(doc)
}

// Resolve evaluates the parsed path against a document.
func (p *Path) Resolve(doc map[string]any) any {
	if doc == nil {
		return nil
	}
	return resolve(doc, p.segments)
}

func resolve(current any, segs []segment) any {
	for i, seg := range segs {
		obj, ok := asMap(current)
		if !ok {
			return nil
		}
		if seg.wildcard {
			coll, ok := obj[seg.name].([]any)
			if !ok {
				return nil
			}
			tail := segs[i+1:]
			if len(tail) == 0 {
				return coll
			}
			out := make([]any, len(coll))
			for j, elem := range coll {
				out[j] = resolve(elem, tail)
			}
			return out
		}
		current = obj[seg.name]
	}
	return current
}

// asMap normalizes the two map shapes a document value can take.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}
