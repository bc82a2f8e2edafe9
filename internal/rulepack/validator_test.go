package rulepack

import (
	"testing"

	"github.com/bosflow/bosflow/model"
)

func validPack() RulePack {
	min := 1.0
	max := 5.0
	return RulePack{
		Category: "impacts",
		Version:  "1.0.0",
		Rules: []model.ValidationRule{
			{
				FieldPath: "impacts",
				Required:  true,
				Type:      model.TypeArray,
				Validator: &model.Predicate{Kind: model.KindNonEmpty},
			},
			{
				FieldPath: "impacts[].severity",
				Type:      model.TypeNumber,
				Validator: &model.Predicate{Kind: model.KindRange, Min: &min, Max: &max},
			},
		},
	}
}

func TestValidate_valid_pack(t *testing.T) {
	errs := NewValidator().Validate([]RulePack{validPack()})
	if len(errs) != 0 {
		t.Errorf("Validate = %v, want no errors", errs)
	}
}

func TestValidate_missing_fields(t *testing.T) {
	pack := RulePack{}
	errs := NewValidator().Validate([]RulePack{pack})

	codes := make(map[string]bool)
	for _, e := range errs {
		codes[e.Path] = true
	}
	for _, path := range []string{"packs[0].category", "packs[0].version", "packs[0].rules"} {
		if !codes[path] {
			t.Errorf("expected an error at %s, got %v", path, errs)
		}
	}
}

func TestValidate_malformed_field_path(t *testing.T) {
	pack := validPack()
	pack.Rules[0].FieldPath = "a[].b[].c"
	errs := NewValidator().Validate([]RulePack{pack})
	if !hasCode(errs, "MALFORMED") {
		t.Errorf("expected MALFORMED, got %v", errs)
	}
}

func TestValidate_duplicate_field_path(t *testing.T) {
	pack := validPack()
	pack.Rules[1].FieldPath = pack.Rules[0].FieldPath
	errs := NewValidator().Validate([]RulePack{pack})
	if !hasCode(errs, "DUPLICATE") {
		t.Errorf("expected DUPLICATE, got %v", errs)
	}
}

func TestValidate_unknown_type(t *testing.T) {
	pack := validPack()
	pack.Rules[0].Type = "tuple"
	errs := NewValidator().Validate([]RulePack{pack})
	if !hasCode(errs, "INVALID") {
		t.Errorf("expected INVALID, got %v", errs)
	}
}

func TestValidate_predicates(t *testing.T) {
	tests := []struct {
		name      string
		predicate model.Predicate
		wantCode  string
	}{
		{"enum without values", model.Predicate{Kind: model.KindEnum}, "REQUIRED"},
		{"range without bounds", model.Predicate{Kind: model.KindRange}, "REQUIRED"},
		{"pattern without pattern", model.Predicate{Kind: model.KindPattern}, "REQUIRED"},
		{"pattern malformed", model.Predicate{Kind: model.KindPattern, Pattern: "("}, "MALFORMED"},
		{"custom in yaml", model.Predicate{Kind: model.KindCustom}, "NOT_DECLARATIVE"},
		{"unknown kind", model.Predicate{Kind: "telepathy"}, "INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack := validPack()
			p := tt.predicate
			pack.Rules[0].Validator = &p
			errs := NewValidator().Validate([]RulePack{pack})
			if !hasCode(errs, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, errs)
			}
		})
	}
}

func TestValidate_range_min_exceeds_max(t *testing.T) {
	min := 9.0
	max := 1.0
	pack := validPack()
	pack.Rules[0].Validator = &model.Predicate{Kind: model.KindRange, Min: &min, Max: &max}
	errs := NewValidator().Validate([]RulePack{pack})
	if !hasCode(errs, "INVALID") {
		t.Errorf("expected INVALID, got %v", errs)
	}
}

func hasCode(errs []VError, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}
