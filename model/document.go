// Package model contains the core value types shared by the validation
// and evolution engines: documents, rules, migrations, plans, results,
// and the standard error envelope.
package model

// Document is a BOS flow document (or a single step of one): a nested
// JSON-like tree of objects, arrays, and scalars. Documents are passed
// by reference; callers that need isolation must Clone first.
type Document map[string]any

// Version returns the document's schema version, or "" when unset.
func (d Document) Version() string {
	v, _ := d["version"].(string)
	return v
}

// Clone returns a deep copy of the document. The copy shares no mutable
// state with the original.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return CloneValue(d).(map[string]any)
}

// CloneValue deep-copies a JSON-like value (map[string]any, []any, or
// scalar). Scalars are returned as-is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case Document:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
