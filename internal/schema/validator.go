// Package schema provides the structural gate applied to migrated flow
// documents. The shape lives in an OpenAPI document so the same file
// can back client codegen and contract tests.
package schema

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/bosflow/bosflow/model"
)

//go:embed flow_schema.yaml
var embeddedSchema []byte

const rootSchemaName = "FlowDocument"

// Validator checks flow documents against the FlowDocument schema.
type Validator struct {
	root *openapi3.Schema
}

// NewValidator loads the embedded flow schema.
func NewValidator() (*Validator, error) {
	return fromData(embeddedSchema, "embedded flow_schema.yaml")
}

// NewValidatorFromFile loads an operator-supplied schema override.
func NewValidatorFromFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: reading %s: %w", path, err)
	}
	return fromData(data, path)
}

func fromData(data []byte, source string) (*Validator, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: loading %s: %w", source, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("schema: validating %s: %w", source, err)
	}

	ref, ok := doc.Components.Schemas[rootSchemaName]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("schema: %s defines no %s component", source, rootSchemaName)
	}
	return &Validator{root: ref.Value}, nil
}

// ValidateFlowData checks doc against the FlowDocument schema. It
// returns all violations at once rather than stopping at the first.
func (v *Validator) ValidateFlowData(doc model.Document) (bool, []string) {
	err := v.root.VisitJSON(map[string]any(doc), openapi3.MultiErrors())
	if err == nil {
		return true, nil
	}

	var problems []string
	if multi, ok := err.(openapi3.MultiError); ok {
		for _, e := range multi {
			problems = append(problems, messageFor(e))
		}
	} else {
		problems = append(problems, messageFor(err))
	}
	return false, problems
}

// messageFor flattens a kin-openapi SchemaError into "path: reason".
func messageFor(err error) string {
	if se, ok := err.(*openapi3.SchemaError); ok {
		if path := se.JSONPointer(); len(path) > 0 {
			return fmt.Sprintf("%s: %s", joinPointer(path), se.Reason)
		}
		return se.Reason
	}
	return err.Error()
}

func joinPointer(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "."
		}
		out += seg
	}
	return out
}
