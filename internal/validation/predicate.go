package validation

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bosflow/bosflow/model"
)

// typeMatches checks the resolved value against the rule's expected
// primitive shape. For wildcard paths the resolved value is the mapped
// slice, so the check applies to every element; an element resolved to
// nil (the field was absent on that element) counts as a mismatch.
func typeMatches(rule model.ValidationRule, value any) bool {
	if strings.Contains(rule.FieldPath, "[]") {
		elems, ok := value.([]any)
		if !ok {
			return false
		}
		for _, elem := range elems {
			if elem == nil {
				// The field is absent on this element: a defect only
				// when the rule requires it.
				if rule.Required {
					return false
				}
				continue
			}
			if !valueIsType(rule.Type, elem) {
				return false
			}
		}
		return true
	}
	return valueIsType(rule.Type, value)
}

func valueIsType(t model.FieldType, value any) bool {
	switch t {
	case model.TypeString:
		_, ok := value.(string)
		return ok
	case model.TypeNumber:
		return isNumber(value)
	case model.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case model.TypeArray:
		_, ok := value.([]any)
		return ok
	case model.TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case "":
		// Untyped rules only run their predicate.
		return true
	default:
		return false
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

// predicateHolds evaluates the rule's validator. Wildcard paths require
// the predicate to hold for every mapped element.
func predicateHolds(rule model.ValidationRule, value any) bool {
	if strings.Contains(rule.FieldPath, "[]") {
		elems, ok := value.([]any)
		if !ok {
			return false
		}
		for _, elem := range elems {
			if elem == nil && !rule.Required {
				continue
			}
			if !evalPredicate(rule.Validator, elem) {
				return false
			}
		}
		return true
	}
	return evalPredicate(rule.Validator, value)
}

func evalPredicate(p *model.Predicate, value any) bool {
	switch p.Kind {
	case model.KindNonEmpty:
		return nonEmpty(value)
	case model.KindEnum:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, allowed := range p.AllowedValues {
			if s == allowed {
				return true
			}
		}
		return false
	case model.KindRange:
		n, ok := asFloat(value)
		if !ok {
			return false
		}
		if p.Min != nil && n < *p.Min {
			return false
		}
		if p.Max != nil && n > *p.Max {
			return false
		}
		return true
	case model.KindPattern:
		s, ok := value.(string)
		if !ok {
			return false
		}
		re, err := compilePattern(p.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(s)
	case model.KindCustom:
		return p.Fn != nil && p.Fn(value)
	default:
		return false
	}
}

func nonEmpty(value any) bool {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return true
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]*regexp.Regexp)
)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[pattern]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternMu.Lock()
	patternCache[pattern] = re
	patternMu.Unlock()
	return re, nil
}
