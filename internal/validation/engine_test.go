package validation

import (
	"testing"

	"github.com/bosflow/bosflow/model"
)

// completeStep is a step document satisfying every default BOS rule.
func completeStep() model.Document {
	return model.Document{
		"id":   "step-1",
		"name": "Payment Authorization",
		"stakeholders": []any{
			map[string]any{"name": "Fraud Ops", "type": "people", "role": "reviewer"},
			map[string]any{"name": "Acquiring Bank", "type": "vendor", "role": "processor"},
		},
		"dependencies": []any{
			map[string]any{
				"stakeholder": "Fraud Ops",
				"expectation": "authorization decision within 2 seconds",
				"measurable":  true,
			},
		},
		"impacts": []any{
			map[string]any{
				"category":    "financial",
				"description": "chargeback exposure grows per unauthorized transaction",
				"severity":    4,
			},
		},
		"telemetryMappings": []any{
			map[string]any{
				"observableUnit":    "auth-service",
				"telemetryRequired": "decision latency histogram",
				"dataSources":       []any{"auth-service logs"},
			},
		},
		"signals": []any{
			map[string]any{
				"name":      "auth latency p99",
				"type":      "process",
				"threshold": 2.0,
				"owner":     "payments-sre",
			},
		},
	}
}

func TestValidateDocument_complete_step_scores_100(t *testing.T) {
	e := DefaultEngine()
	summary := e.ValidateDocument(completeStep())

	if summary.OverallScore != 100 {
		t.Errorf("OverallScore = %v, want 100", summary.OverallScore)
	}
	if summary.Grade != "A" {
		t.Errorf("Grade = %q, want A", summary.Grade)
	}
	if len(summary.CriticalErrors) != 0 {
		t.Errorf("CriticalErrors = %v, want none", summary.CriticalErrors)
	}
	if summary.ValidFields != summary.TotalFields {
		t.Errorf("ValidFields = %d, TotalFields = %d", summary.ValidFields, summary.TotalFields)
	}
	for cat, pct := range summary.CategoryCompleteness {
		if pct != 100 {
			t.Errorf("CategoryCompleteness[%s] = %v, want 100", cat, pct)
		}
	}
}

func TestValidateDocument_score_bounds(t *testing.T) {
	e := DefaultEngine()
	docs := []model.Document{
		{},
		completeStep(),
		{"stakeholders": "not an array"},
		{"stakeholders": []any{map[string]any{"name": 42, "type": "alien"}}},
	}
	for i, doc := range docs {
		summary := e.ValidateDocument(doc)
		if summary.OverallScore < 0 || summary.OverallScore > 100 {
			t.Errorf("doc %d: OverallScore = %v, want within [0,100]", i, summary.OverallScore)
		}
	}
}

func TestValidateDocument_missing_required_field(t *testing.T) {
	e := NewEngine()
	e.AddRules("signals", []model.ValidationRule{{
		FieldPath:    "signals",
		Required:     true,
		Type:         model.TypeArray,
		ErrorMessage: "Define WHAT signals indicate stakeholder impact",
	}})

	summary := e.ValidateDocument(model.Document{})
	if summary.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", summary.OverallScore)
	}
	if len(summary.Fields) != 1 || summary.Fields[0].Valid {
		t.Fatalf("expected one invalid field result, got %+v", summary.Fields)
	}
	if summary.CriticalErrors[0] != "Define WHAT signals indicate stakeholder impact" {
		t.Errorf("error = %q, want the configured message", summary.CriticalErrors[0])
	}
}

func TestValidateDocument_empty_required_array_scores_zero(t *testing.T) {
	e := NewEngine()
	e.AddRules("stakeholders", []model.ValidationRule{{
		FieldPath:    "stakeholders",
		Required:     true,
		Type:         model.TypeArray,
		Validator:    &model.Predicate{Kind: model.KindCustom, Fn: func(v any) bool { s, _ := v.([]any); return len(s) > 0 }},
		ErrorMessage: "At least one stakeholder is required",
	}})

	summary := e.ValidateDocument(model.Document{"stakeholders": []any{}})
	field := summary.Fields[0]
	if field.Valid {
		t.Error("empty required array should be invalid")
	}
	if field.Score != 0 {
		t.Errorf("Score = %v, want 0", field.Score)
	}
	if len(field.Errors) == 0 || field.Errors[0] != "At least one stakeholder is required" {
		t.Errorf("Errors = %v, want the configured message", field.Errors)
	}
}

func TestValidateDocument_type_mismatch_and_predicate_stack(t *testing.T) {
	e := NewEngine()
	e.AddRules("custom", []model.ValidationRule{{
		FieldPath:    "count",
		Required:     true,
		Type:         model.TypeNumber,
		Validator:    &model.Predicate{Kind: model.KindCustom, Fn: func(any) bool { return false }},
		ErrorMessage: "count is broken",
	}})

	summary := e.ValidateDocument(model.Document{"count": "twelve"})
	field := summary.Fields[0]
	if field.Valid {
		t.Error("field should be invalid")
	}
	// 100 - 50 (type) - 30 (predicate) = 20.
	if field.Score != 20 {
		t.Errorf("Score = %v, want 20", field.Score)
	}
	if len(field.Errors) != 2 {
		t.Errorf("Errors = %v, want both the type and predicate errors", field.Errors)
	}
}

func TestValidateDocument_warning_does_not_invalidate(t *testing.T) {
	e := NewEngine()
	e.AddRules("signals", []model.ValidationRule{{
		FieldPath:      "notes",
		Type:           model.TypeString,
		WarningMessage: "empty notes are unhelpful",
	}})

	summary := e.ValidateDocument(model.Document{"notes": ""})
	field := summary.Fields[0]
	if !field.Valid {
		t.Error("warning alone must not invalidate the field")
	}
	if field.Score != 90 {
		t.Errorf("Score = %v, want 90", field.Score)
	}
	if len(field.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", field.Warnings)
	}
}

func TestValidateDocument_monotonic_on_adding_required_field(t *testing.T) {
	e := DefaultEngine()

	doc := completeStep()
	delete(doc, "signals")
	before := e.ValidateDocument(doc).OverallScore

	doc = completeStep()
	after := e.ValidateDocument(doc).OverallScore

	if after < before {
		t.Errorf("adding a missing required field decreased the score: %v -> %v", before, after)
	}
}

func TestValidateDocument_dedupes_messages(t *testing.T) {
	e := NewEngine()
	rule := model.ValidationRule{
		FieldPath:    "a",
		Required:     true,
		ErrorMessage: "shared message",
		Suggestions:  []string{"shared suggestion"},
	}
	other := rule
	other.FieldPath = "b"
	e.AddRules("one", []model.ValidationRule{rule})
	e.AddRules("two", []model.ValidationRule{other})

	summary := e.ValidateDocument(model.Document{})
	if len(summary.CriticalErrors) != 1 {
		t.Errorf("CriticalErrors = %v, want deduped to one", summary.CriticalErrors)
	}
	if len(summary.Suggestions) != 1 {
		t.Errorf("Suggestions = %v, want deduped to one", summary.Suggestions)
	}
}

func TestValidateDocument_per_category_completeness(t *testing.T) {
	e := NewEngine()
	e.AddRules("good", []model.ValidationRule{{FieldPath: "present", Required: true, Type: model.TypeString}})
	e.AddRules("bad", []model.ValidationRule{{FieldPath: "absent", Required: true, Type: model.TypeString}})

	summary := e.ValidateDocument(model.Document{"present": "yes"})
	if summary.CategoryCompleteness["good"] != 100 {
		t.Errorf("good = %v, want 100", summary.CategoryCompleteness["good"])
	}
	if summary.CategoryCompleteness["bad"] != 0 {
		t.Errorf("bad = %v, want 0", summary.CategoryCompleteness["bad"])
	}
	if summary.OverallScore != 50 {
		t.Errorf("OverallScore = %v, want 50", summary.OverallScore)
	}
}

func TestAddRules_replaces_not_appends(t *testing.T) {
	e := NewEngine()
	e.AddRules("cat", []model.ValidationRule{
		{FieldPath: "a", Required: true},
		{FieldPath: "b", Required: true},
	})
	e.AddRules("cat", []model.ValidationRule{{FieldPath: "c", Required: true}})

	rules := e.Rules("cat")
	if len(rules) != 1 || rules[0].FieldPath != "c" {
		t.Errorf("Rules(cat) = %+v, want the replacement set only", rules)
	}
}

func TestQuickValidate(t *testing.T) {
	e := DefaultEngine()

	ok := e.QuickValidate(completeStep())
	if !ok.Valid || ok.Score != 100 {
		t.Errorf("QuickValidate(complete) = %+v", ok)
	}

	bad := e.QuickValidate(model.Document{})
	if bad.Valid {
		t.Error("QuickValidate(empty) should not be valid")
	}
	if len(bad.Errors) == 0 {
		t.Error("QuickValidate(empty) should carry errors")
	}
}

func TestValidateBOSStep(t *testing.T) {
	e := DefaultEngine()
	doc := completeStep()
	delete(doc, "signals")

	full := e.ValidateBOSStep(doc, CategorySignals)
	if full.Completeness != 0 {
		t.Errorf("signals completeness = %v, want 0 with the collection missing", full.Completeness)
	}
	if len(full.Suggestions) == 0 {
		t.Error("missing category should suggest improvements")
	}

	stake := e.ValidateBOSStep(doc, CategoryStakeholders)
	if stake.Completeness != 100 {
		t.Errorf("stakeholders completeness = %v, want 100", stake.Completeness)
	}

	unknown := e.ValidateBOSStep(doc, "nope")
	if unknown.Completeness != 100 {
		t.Errorf("unknown category completeness = %v, want vacuous 100", unknown.Completeness)
	}
}

func TestFieldRequirements_returns_copy(t *testing.T) {
	e := DefaultEngine()
	rules := e.FieldRequirements(CategorySignals)
	if len(rules) == 0 {
		t.Fatal("expected default signal rules")
	}
	rules[0].FieldPath = "tampered"
	if e.FieldRequirements(CategorySignals)[0].FieldPath == "tampered" {
		t.Error("mutating the returned slice leaked into the engine")
	}
}

func TestAddCustomFieldValidation(t *testing.T) {
	e := DefaultEngine()
	e.AddCustomFieldValidation(CategorySignals, "signals",
		func(v any) bool {
			elems, _ := v.([]any)
			return len(elems) >= 2
		},
		"at least two signals are required",
		"Add a second, independent signal",
	)

	summary := e.ValidateDocument(completeStep())
	found := false
	for _, msg := range summary.CriticalErrors {
		if msg == "at least two signals are required" {
			found = true
		}
	}
	if !found {
		t.Errorf("custom rule did not fire: %v", summary.CriticalErrors)
	}
}

func TestEmptyEngine_vacuous_success(t *testing.T) {
	e := NewEngine()
	summary := e.ValidateDocument(model.Document{})
	if summary.OverallScore != 100 || summary.Grade != "A" {
		t.Errorf("empty engine should score 100/A, got %v/%s", summary.OverallScore, summary.Grade)
	}
}
