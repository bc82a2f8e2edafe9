package validation

import (
	"strings"

	"github.com/bosflow/bosflow/internal/document"
	"github.com/bosflow/bosflow/model"
)

// The functions in this file are the programmatic surface consumed by
// the presentation layer; they are thin views over ValidateDocument.

// ValidateStep validates a single step document against every
// registered rule and returns the full summary.
func (e *Engine) ValidateStep(doc model.Document) model.ValidationSummary {
	return e.ValidateDocument(doc)
}

// QuickValidate returns the condensed pass/fail view used by live
// editing surfaces: overall score plus the deduped critical errors.
func (e *Engine) QuickValidate(doc model.Document) model.QuickResult {
	summary := e.ValidateDocument(doc)
	return model.QuickResult{
		Valid:  len(summary.CriticalErrors) == 0,
		Score:  summary.OverallScore,
		Errors: summary.CriticalErrors,
	}
}

// ValidateBOSStep reports completeness for one methodology category,
// driving per-section progress indicators independent of the global
// score.
func (e *Engine) ValidateBOSStep(doc model.Document, category string) model.CategoryResult {
	e.mu.RLock()
	rules := e.categories[category]
	e.mu.RUnlock()

	result := model.CategoryResult{Category: category, Completeness: 100}
	if len(rules) == 0 {
		return result
	}

	// A missing required root collection empties the category outright;
	// averaging the per-item rules over nothing would overstate it.
	for _, rule := range rules {
		if !rule.Required || strings.ContainsAny(rule.FieldPath, ".[") {
			continue
		}
		if requiredAbsent(document.Get(doc, rule.FieldPath)) {
			result.Completeness = 0
			result.Suggestions = append(result.Suggestions, rule.Suggestions...)
			return result
		}
	}

	var score float64
	seen := make(map[string]bool)
	for _, rule := range rules {
		fr := evaluateRule(doc, rule)
		score += fr.Score
		for _, s := range fr.Suggestions {
			if !seen[s] {
				seen[s] = true
				result.Suggestions = append(result.Suggestions, s)
			}
		}
	}
	result.Completeness = score / (fullScore * float64(len(rules))) * 100
	return result
}

// FieldRequirements returns a copy of the rule set registered for a
// category.
func (e *Engine) FieldRequirements(category string) []model.ValidationRule {
	return e.Rules(category)
}

// AddCustomFieldValidation registers an additional rule carrying an
// opaque custom predicate. Unlike AddRules this is additive.
func (e *Engine) AddCustomFieldValidation(category, fieldPath string, fn func(any) bool, errorMessage string, suggestions ...string) {
	e.AppendRule(category, model.ValidationRule{
		FieldPath:    fieldPath,
		Required:     true,
		Validator:    &model.Predicate{Kind: model.KindCustom, Fn: fn},
		ErrorMessage: errorMessage,
		Suggestions:  suggestions,
	})
}
