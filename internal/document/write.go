package document

import "fmt"

// Set writes a value at a plain (non-wildcard) path, creating
// intermediate objects as needed. Writes are owned by the migration
// executor's field-change helpers; rule evaluation never writes.
func Set(doc map[string]any, path string, value any) error {
	p, err := Parse(path)
	if err != nil {
		return err
	}
	if p.HasWildcard() {
		return fmt.Errorf("path %q: cannot write through a wildcard segment", path)
	}

	current := doc
	for i, seg := range p.segments {
		if i == len(p.segments)-1 {
			current[seg.name] = value
			return nil
		}
		next, ok := current[seg.name].(map[string]any)
		if !ok {
			if existing, present := current[seg.name]; present && existing != nil {
				return fmt.Errorf("path %q: segment %q is not an object", path, seg.name)
			}
			next = make(map[string]any)
			current[seg.name] = next
		}
		current = next
	}
	return nil
}

// Delete removes the value at a plain path. Deleting an absent path is
// not an error.
func Delete(doc map[string]any, path string) error {
	p, err := Parse(path)
	if err != nil {
		return err
	}
	if p.HasWildcard() {
		return fmt.Errorf("path %q: cannot delete through a wildcard segment", path)
	}

	parent, ok := descendToParent(doc, p)
	if !ok {
		return nil
	}
	delete(parent, p.segments[len(p.segments)-1].name)
	return nil
}

// Rename moves the value at oldPath to newPath within the same document.
// Renaming an absent path is a no-op.
func Rename(doc map[string]any, oldPath, newPath string) error {
	p, err := Parse(oldPath)
	if err != nil {
		return err
	}
	if p.HasWildcard() {
		return fmt.Errorf("path %q: cannot rename through a wildcard segment", oldPath)
	}

	parent, ok := descendToParent(doc, p)
	if !ok {
		return nil
	}
	leaf := p.segments[len(p.segments)-1].name
	value, present := parent[leaf]
	if !present {
		return nil
	}
	if err := Set(doc, newPath, value); err != nil {
		return err
	}
	delete(parent, leaf)
	return nil
}

// descendToParent walks to the map holding the path's final segment.
func descendToParent(doc map[string]any, p *Path) (map[string]any, bool) {
	current := doc
	for _, seg := range p.segments[:len(p.segments)-1] {
		next, ok := current[seg.name].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// GetString resolves a path to a string, or "" when absent or not a
// string.
func GetString(doc map[string]any, path string) string {
	s, _ := Get(doc, path).(string)
	return s
}

// GetSlice resolves a path to a []any, or nil when absent or not an
// array.
func GetSlice(doc map[string]any, path string) []any {
	s, _ := Get(doc, path).([]any)
	return s
}
