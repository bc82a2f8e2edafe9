package evolution

import "github.com/bosflow/bosflow/model"

// forEachStep walks every step map under doc's flows/stages/steps
// nesting, skipping malformed levels silently.
func forEachStep(doc model.Document, fn func(step map[string]any)) {
	flows, _ := doc["flows"].([]any)
	for _, f := range flows {
		flow, ok := f.(map[string]any)
		if !ok {
			continue
		}
		stages, _ := flow["stages"].([]any)
		for _, s := range stages {
			stage, ok := s.(map[string]any)
			if !ok {
				continue
			}
			steps, _ := stage["steps"].([]any)
			for _, st := range steps {
				if step, ok := st.(map[string]any); ok {
					fn(step)
				}
			}
		}
	}
}

// forEachSignal walks every signal map of every step.
func forEachSignal(doc model.Document, fn func(signal map[string]any)) {
	forEachStep(doc, func(step map[string]any) {
		signals, _ := step["signals"].([]any)
		for _, s := range signals {
			if signal, ok := s.(map[string]any); ok {
				fn(signal)
			}
		}
	})
}

// everyStep reports whether pred holds for all steps in doc.
func everyStep(doc model.Document, pred func(step map[string]any) bool) bool {
	ok := true
	forEachStep(doc, func(step map[string]any) {
		if !pred(step) {
			ok = false
		}
	})
	return ok
}

// CoreMigrations returns the built-in schema migrations in ascending
// version order. Each down transform inverts its up for documents that
// did not already carry the field the up introduces.
func CoreMigrations() []model.Migration {
	return []model.Migration{
		{
			Version:     "1.1.0",
			Description: "Add completeness score to every step",
			Up: func(doc model.Document) (model.Document, error) {
				forEachStep(doc, func(step map[string]any) {
					if _, has := step["score"]; !has {
						step["score"] = 0
					}
				})
				return doc, nil
			},
			Down: func(doc model.Document) (model.Document, error) {
				forEachStep(doc, func(step map[string]any) {
					delete(step, "score")
				})
				return doc, nil
			},
			Validate: func(doc model.Document) bool {
				return everyStep(doc, func(step map[string]any) bool {
					_, has := step["score"]
					return has
				})
			},
		},
		{
			Version:     "1.2.0",
			Description: "Rename step telemetry to telemetryMappings",
			Up: func(doc model.Document) (model.Document, error) {
				forEachStep(doc, func(step map[string]any) {
					if v, has := step["telemetry"]; has {
						step["telemetryMappings"] = v
						delete(step, "telemetry")
					}
				})
				return doc, nil
			},
			Down: func(doc model.Document) (model.Document, error) {
				forEachStep(doc, func(step map[string]any) {
					if v, has := step["telemetryMappings"]; has {
						step["telemetry"] = v
						delete(step, "telemetryMappings")
					}
				})
				return doc, nil
			},
			Validate: func(doc model.Document) bool {
				return everyStep(doc, func(step map[string]any) bool {
					_, stale := step["telemetry"]
					return !stale
				})
			},
		},
		{
			Version:     "1.3.0",
			Description: "Default missing signal owners to unassigned",
			// Up marks each signal it touches so down can tell a
			// defaulted owner from one that was already "unassigned".
			// The marker records the prior value (true for a missing
			// key) so down restores empty and nil owners exactly.
			Up: func(doc model.Document) (model.Document, error) {
				forEachSignal(doc, func(signal map[string]any) {
					owner, has := signal["owner"]
					if has && owner != nil && owner != "" {
						return
					}
					if has {
						signal["_ownerDefaulted"] = owner
					} else {
						signal["_ownerDefaulted"] = true
					}
					signal["owner"] = "unassigned"
				})
				return doc, nil
			},
			Down: func(doc model.Document) (model.Document, error) {
				forEachSignal(doc, func(signal map[string]any) {
					marker, has := signal["_ownerDefaulted"]
					if !has {
						return
					}
					delete(signal, "_ownerDefaulted")
					if marker == true {
						delete(signal, "owner")
						return
					}
					signal["owner"] = marker
				})
				return doc, nil
			},
			Validate: func(doc model.Document) bool {
				ok := true
				forEachSignal(doc, func(signal map[string]any) {
					if owner, has := signal["owner"]; !has || owner == nil || owner == "" {
						ok = false
					}
				})
				return ok
			},
		},
	}
}

// RegisterCore installs the built-in migrations into r.
func RegisterCore(r *Registry) error {
	for _, m := range CoreMigrations() {
		if err := r.RegisterStrict(m); err != nil {
			return err
		}
	}
	return nil
}
