// Package validation evaluates BOS flow documents against declarative,
// category-grouped field rules and produces weighted completeness
// scores. Rules are data, not code: new document fields are validated
// by registering rules, never by touching evaluation logic.
package validation

import (
	"fmt"
	"sync"

	"github.com/bosflow/bosflow/internal/document"
	"github.com/bosflow/bosflow/model"
)

// Scoring deductions. Evaluation starts each field at 100 and stacks
// penalties; type and predicate failures invalidate, warnings do not.
const (
	fullScore         = 100.0
	typeMismatchCost  = 50.0
	predicateFailCost = 30.0
	warningCost       = 10.0
)

// Engine holds an ordered set of field rules per category and evaluates
// documents against all of them. An Engine is an explicitly constructed
// value — construct one per composition root (or per test) instead of
// sharing hidden global state. Reads are safe for concurrent use; rule
// mutation is serialized internally.
type Engine struct {
	mu         sync.RWMutex
	categories map[string][]model.ValidationRule
	order      []string
}

// NewEngine creates an empty rule engine.
func NewEngine() *Engine {
	return &Engine{categories: make(map[string][]model.ValidationRule)}
}

// DefaultEngine creates an engine pre-loaded with the built-in BOS
// methodology rule packs for the five core categories.
func DefaultEngine() *Engine {
	e := NewEngine()
	for _, cat := range CategoryOrder {
		e.AddRules(cat, defaultRules[cat])
	}
	return e
}

// AddRules replaces the rule set for a category. The category keeps its
// original position in evaluation order; new categories append.
func (e *Engine) AddRules(category string, rules []model.ValidationRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, known := e.categories[category]; !known {
		e.order = append(e.order, category)
	}
	e.categories[category] = append([]model.ValidationRule(nil), rules...)
}

// AppendRule adds a single rule to a category without disturbing the
// existing set. Used for runtime extension with custom validators.
func (e *Engine) AppendRule(category string, rule model.ValidationRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, known := e.categories[category]; !known {
		e.order = append(e.order, category)
	}
	e.categories[category] = append(e.categories[category], rule)
}

// Categories returns the category names in evaluation order.
func (e *Engine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// Rules returns a copy of the rule set for a category.
func (e *Engine) Rules(category string) []model.ValidationRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.ValidationRule(nil), e.categories[category]...)
}

// ValidateDocument evaluates every registered rule against the document
// and aggregates a fresh ValidationSummary. The summary is never cached
// or mutated after construction.
func (e *Engine) ValidateDocument(doc model.Document) model.ValidationSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	summary := model.ValidationSummary{
		CategoryCompleteness: make(map[string]float64, len(e.order)),
	}

	var totalScore float64
	seenErrors := make(map[string]bool)
	seenWarnings := make(map[string]bool)
	seenSuggestions := make(map[string]bool)

	for _, category := range e.order {
		rules := e.categories[category]
		var catScore float64
		for _, rule := range rules {
			result := evaluateRule(doc, rule)
			summary.Fields = append(summary.Fields, result)
			summary.TotalFields++
			totalScore += result.Score
			catScore += result.Score
			if result.Valid {
				summary.ValidFields++
			}
			for _, msg := range result.Errors {
				if !seenErrors[msg] {
					seenErrors[msg] = true
					summary.CriticalErrors = append(summary.CriticalErrors, msg)
				}
			}
			for _, msg := range result.Warnings {
				if !seenWarnings[msg] {
					seenWarnings[msg] = true
					summary.Warnings = append(summary.Warnings, msg)
				}
			}
			for _, msg := range result.Suggestions {
				if !seenSuggestions[msg] {
					seenSuggestions[msg] = true
					summary.Suggestions = append(summary.Suggestions, msg)
				}
			}
		}
		if len(rules) > 0 {
			summary.CategoryCompleteness[category] = catScore / (fullScore * float64(len(rules))) * 100
		} else {
			summary.CategoryCompleteness[category] = 100
		}
	}

	if summary.TotalFields > 0 {
		summary.OverallScore = totalScore / (fullScore * float64(summary.TotalFields)) * 100
	} else {
		summary.OverallScore = 100
	}
	summary.Grade = gradeFor(summary.OverallScore)

	return summary
}

// evaluateRule scores a single rule against the document. Starts at 100;
// required-missing zeroes the score outright, a type mismatch costs 50,
// a failed validator predicate costs 30, and a warning condition costs
// 10 when the field is otherwise valid. The score never goes below 0.
func evaluateRule(doc model.Document, rule model.ValidationRule) model.FieldValidationResult {
	result := model.FieldValidationResult{
		Field: rule.FieldPath,
		Valid: true,
		Score: fullScore,
	}

	value := document.Get(doc, rule.FieldPath)
	result.Value = value

	if rule.Required && requiredAbsent(value) {
		result.Valid = false
		result.Score = 0
		result.Errors = append(result.Errors, errorMessage(rule))
		result.Suggestions = append(result.Suggestions, rule.Suggestions...)
		return result
	}
	if value == nil {
		if rule.WarningMessage != "" {
			result.Score -= warningCost
			result.Warnings = append(result.Warnings, rule.WarningMessage)
			result.Suggestions = append(result.Suggestions, rule.Suggestions...)
		}
		return result
	}

	if !typeMatches(rule, value) {
		result.Valid = false
		result.Score -= typeMismatchCost
		result.Errors = append(result.Errors,
			fmt.Sprintf("Field '%s' should be of type %s", rule.FieldPath, rule.Type))
	}

	if rule.Validator != nil && !predicateHolds(rule, value) {
		result.Valid = false
		result.Score -= predicateFailCost
		result.Errors = append(result.Errors, errorMessage(rule))
	}

	if result.Valid && rule.WarningMessage != "" && warningFires(value) {
		result.Score -= warningCost
		result.Warnings = append(result.Warnings, rule.WarningMessage)
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if !result.Valid || len(result.Warnings) > 0 {
		result.Suggestions = append(result.Suggestions, rule.Suggestions...)
	}
	return result
}

func errorMessage(rule model.ValidationRule) string {
	if rule.ErrorMessage != "" {
		return rule.ErrorMessage
	}
	return fmt.Sprintf("Field '%s' is invalid or missing", rule.FieldPath)
}

// requiredAbsent decides when a required field counts as missing: absent
// or null values, empty strings, and empty arrays all zero the score. A
// wildcard resolution over an absent collection comes back nil, so it
// lands here too.
func requiredAbsent(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

// warningFires reports the soft-signal condition for present values:
// empty strings and empty collections degrade the score without
// invalidating the field.
func warningFires(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		if len(v) == 0 {
			return true
		}
		// Wildcard resolutions map absent element fields to nil; any
		// gap is a soft signal.
		for _, elem := range v {
			if elem == nil {
				return true
			}
		}
		return false
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// gradeFor maps an overall score to the BOS quality grade bands.
func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
