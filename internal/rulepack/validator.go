package rulepack

import (
	"fmt"
	"regexp"

	"github.com/bosflow/bosflow/internal/document"
	"github.com/bosflow/bosflow/model"
)

// VError describes a single validation error in a rule pack.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator validates rule packs structurally before they reach the
// rule engine.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

var validTypes = map[model.FieldType]bool{
	"":                true,
	model.TypeString:  true,
	model.TypeNumber:  true,
	model.TypeBoolean: true,
	model.TypeArray:   true,
	model.TypeObject:  true,
}

// Validate checks all packs. Declarative packs cannot carry custom
// predicates — those are only registerable in code.
func (v *Validator) Validate(packs []RulePack) []VError {
	var errs []VError
	for i, pack := range packs {
		prefix := fmt.Sprintf("packs[%d]", i)
		errs = append(errs, v.validatePack(prefix, pack)...)
	}
	return errs
}

func (v *Validator) validatePack(prefix string, pack RulePack) []VError {
	var errs []VError

	if pack.Category == "" {
		errs = append(errs, VError{Path: prefix + ".category", Code: "REQUIRED", Message: "category is required"})
	}
	if pack.Version == "" {
		errs = append(errs, VError{Path: prefix + ".version", Code: "REQUIRED", Message: "version is required"})
	}
	if len(pack.Rules) == 0 {
		errs = append(errs, VError{Path: prefix + ".rules", Code: "REQUIRED", Message: "at least one rule is required"})
	}

	seenPaths := make(map[string]bool)
	for i, rule := range pack.Rules {
		rp := fmt.Sprintf("%s.rules[%d]", prefix, i)
		errs = append(errs, v.validateRule(rp, rule)...)
		if rule.FieldPath != "" {
			if seenPaths[rule.FieldPath] {
				errs = append(errs, VError{
					Path:    rp + ".field_path",
					Code:    "DUPLICATE",
					Message: fmt.Sprintf("field path %q appears more than once", rule.FieldPath),
				})
			}
			seenPaths[rule.FieldPath] = true
		}
	}

	return errs
}

func (v *Validator) validateRule(prefix string, rule model.ValidationRule) []VError {
	var errs []VError

	if rule.FieldPath == "" {
		errs = append(errs, VError{Path: prefix + ".field_path", Code: "REQUIRED", Message: "field_path is required"})
	} else if _, err := document.Parse(rule.FieldPath); err != nil {
		errs = append(errs, VError{Path: prefix + ".field_path", Code: "MALFORMED", Message: err.Error()})
	}

	if !validTypes[rule.Type] {
		errs = append(errs, VError{
			Path:    prefix + ".type",
			Code:    "INVALID",
			Message: fmt.Sprintf("unknown type %q", rule.Type),
		})
	}

	if rule.Validator != nil {
		errs = append(errs, v.validatePredicate(prefix+".validator", rule.Validator)...)
	}

	return errs
}

func (v *Validator) validatePredicate(prefix string, p *model.Predicate) []VError {
	var errs []VError

	switch p.Kind {
	case model.KindNonEmpty:
		// No parameters.
	case model.KindEnum:
		if len(p.AllowedValues) == 0 {
			errs = append(errs, VError{Path: prefix + ".allowed_values", Code: "REQUIRED", Message: "enum predicate needs allowed_values"})
		}
	case model.KindRange:
		if p.Min == nil && p.Max == nil {
			errs = append(errs, VError{Path: prefix, Code: "REQUIRED", Message: "range predicate needs min or max"})
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			errs = append(errs, VError{Path: prefix, Code: "INVALID", Message: "range min exceeds max"})
		}
	case model.KindPattern:
		if p.Pattern == "" {
			errs = append(errs, VError{Path: prefix + ".pattern", Code: "REQUIRED", Message: "pattern predicate needs a pattern"})
		} else if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, VError{Path: prefix + ".pattern", Code: "MALFORMED", Message: err.Error()})
		}
	case model.KindCustom:
		errs = append(errs, VError{Path: prefix + ".kind", Code: "NOT_DECLARATIVE", Message: "custom predicates cannot be declared in YAML"})
	default:
		errs = append(errs, VError{
			Path:    prefix + ".kind",
			Code:    "INVALID",
			Message: fmt.Sprintf("unknown predicate kind %q", p.Kind),
		})
	}

	return errs
}
