package model

// FieldType is the expected primitive shape of a rule's field value.
type FieldType string

// Supported field types.
const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// PredicateKind identifies a built-in validator predicate.
type PredicateKind string

// Built-in predicate kinds. All but KindCustom are fully declarative and
// round-trip through YAML rule packs.
const (
	KindNonEmpty PredicateKind = "non_empty"
	KindEnum     PredicateKind = "enum"
	KindRange    PredicateKind = "range"
	KindPattern  PredicateKind = "pattern"
	KindCustom   PredicateKind = "custom"
)

// Predicate is a tagged union of validator kinds. Exactly the fields for
// the active Kind are meaningful; Fn is set only for KindCustom.
type Predicate struct {
	Kind          PredicateKind  `yaml:"kind" json:"kind"`
	AllowedValues []string       `yaml:"allowed_values,omitempty" json:"allowedValues,omitempty"`
	Min           *float64       `yaml:"min,omitempty" json:"min,omitempty"`
	Max           *float64       `yaml:"max,omitempty" json:"max,omitempty"`
	Pattern       string         `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Fn            func(any) bool `yaml:"-" json:"-"`
}

// ValidationRule is one declarative, checkable fact about a document
// field. FieldPath may contain at most one array wildcard segment
// ("stakeholders[].name"), meaning the rule applies to every element.
type ValidationRule struct {
	FieldPath      string     `yaml:"field_path" json:"fieldPath"`
	Required       bool       `yaml:"required" json:"required"`
	Type           FieldType  `yaml:"type" json:"type"`
	Validator      *Predicate `yaml:"validator,omitempty" json:"validator,omitempty"`
	ErrorMessage   string     `yaml:"error_message,omitempty" json:"errorMessage,omitempty"`
	WarningMessage string     `yaml:"warning_message,omitempty" json:"warningMessage,omitempty"`
	Suggestions    []string   `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
}

// FieldValidationResult is the outcome of evaluating one rule against one
// document. Immutable once computed.
type FieldValidationResult struct {
	Field       string   `json:"field"`
	Valid       bool     `json:"valid"`
	Value       any      `json:"value,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Score       float64  `json:"score"`
}

// ValidationSummary aggregates all field results for one document.
// Computed fresh on every validation call; never persisted or mutated
// after construction.
type ValidationSummary struct {
	OverallScore         float64                 `json:"overallScore"`
	Grade                string                  `json:"grade"`
	TotalFields          int                     `json:"totalFields"`
	ValidFields          int                     `json:"validFields"`
	CriticalErrors       []string                `json:"criticalErrors"`
	Warnings             []string                `json:"warnings"`
	Suggestions          []string                `json:"suggestions"`
	CategoryCompleteness map[string]float64      `json:"categoryCompleteness"`
	Fields               []FieldValidationResult `json:"fields"`
}

// QuickResult is the condensed validation outcome used by presentation
// surfaces that only need a pass/fail and a score.
type QuickResult struct {
	Valid  bool     `json:"valid"`
	Score  float64  `json:"score"`
	Errors []string `json:"errors,omitempty"`
}

// CategoryResult reports completeness for a single rule category.
type CategoryResult struct {
	Category     string   `json:"category"`
	Completeness float64  `json:"completeness"`
	Suggestions  []string `json:"suggestions,omitempty"`
}
