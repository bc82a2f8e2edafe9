package model

// TransformFunc mutates a document copy into the next (or previous)
// schema shape. Transforms receive a working copy owned by the executor
// and may modify it in place; they must be pure apart from that copy.
type TransformFunc func(Document) (Document, error)

// Migration is a versioned bidirectional transform plus an optional
// post-condition. Immutable once registered; identified by Version.
type Migration struct {
	Version     string
	Description string
	Up          TransformFunc
	Down        TransformFunc
	// Validate, when set, is run after Up as a post-condition. Returning
	// false fails the migration step.
	Validate func(Document) bool
}

// RiskLevel grades an evolution plan by migration count.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// EvolutionPlan is the ordered, risk-assessed sequence of migrations
// needed to move a document between versions. A plan is a pure
// computation result: planning twice with the same inputs yields the
// same plan.
type EvolutionPlan struct {
	CurrentVersion  string      `json:"currentVersion"`
	TargetVersion   string      `json:"targetVersion"`
	Migrations      []Migration `json:"-"`
	MigrationPath   []string    `json:"migrationPath"`
	BackupRequired  bool        `json:"backupRequired"`
	RiskLevel       RiskLevel   `json:"riskLevel"`
	EstimatedTimeMs int64       `json:"estimatedTimeMs"`
}

// EvolutionResult records one execution attempt: exactly which
// migrations committed before any failure, and whether rollback is
// possible.
type EvolutionResult struct {
	Success           bool     `json:"success"`
	Version           string   `json:"version"`
	MigrationsApplied []string `json:"migrationsApplied"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	BackupID          string   `json:"backupId,omitempty"`
	RollbackAvailable bool     `json:"rollbackAvailable"`
	// Document is the evolved working copy, set only when Success.
	Document Document `json:"document,omitempty"`
}

// ChangeType classifies an ad-hoc field change.
type ChangeType string

// Field change types.
const (
	ChangeAdd        ChangeType = "add"
	ChangeRemove     ChangeType = "remove"
	ChangeRename     ChangeType = "rename"
	ChangeTypeChange ChangeType = "typeChange"
)

// FieldChange authors a single ad-hoc document edit outside the full
// migration registry, e.g. an interactive schema tweak. When Migration
// is set it takes precedence over the declarative fields.
type FieldChange struct {
	Type        ChangeType    `json:"type"`
	Path        string        `json:"path"`
	OldValue    any           `json:"oldValue,omitempty"`
	NewValue    any           `json:"newValue,omitempty"`
	Description string        `json:"description"`
	Migration   TransformFunc `json:"-"`
}

// IssueSeverity grades a compatibility issue.
type IssueSeverity string

// Compatibility issue severities.
const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// CompatibilityIssue is one finding from a pre-flight compatibility
// check against a target version's field requirements.
type CompatibilityIssue struct {
	Severity   IssueSeverity `json:"severity"`
	Field      string        `json:"field"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// CompatibilityCheck is the result of inspecting a document against a
// target version before committing to a plan. Compatible is true when
// no error-severity issues were found.
type CompatibilityCheck struct {
	Compatible      bool                 `json:"compatible"`
	TargetVersion   string               `json:"targetVersion"`
	Issues          []CompatibilityIssue `json:"issues"`
	Recommendations []string             `json:"recommendations,omitempty"`
	MigrationPath   []string             `json:"migrationPath,omitempty"`
}

// FieldRequirement is one entry in a target version's static
// requirement table, consumed by the compatibility checker.
type FieldRequirement struct {
	Path       string `yaml:"path" json:"path"`
	Required   bool   `yaml:"required" json:"required"`
	Suggestion string `yaml:"suggestion,omitempty" json:"suggestion,omitempty"`
}
