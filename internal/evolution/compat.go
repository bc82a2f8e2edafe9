package evolution

import (
	"fmt"

	"github.com/bosflow/bosflow/internal/document"
	"github.com/bosflow/bosflow/model"
)

// versionRequirements lists the field shape each schema version
// expects. The checker reads these statically; it never mutates the
// document under inspection.
var versionRequirements = map[string][]model.FieldRequirement{
	"1.0.0": {
		{Path: "version", Required: true, Suggestion: "Stamp the document with its schema version"},
		{Path: "flows", Required: true, Suggestion: "A document must carry at least an empty flows array"},
		{Path: "flows[].id", Required: true, Suggestion: "Give every flow a stable identifier"},
		{Path: "flows[].stages", Required: true, Suggestion: "Every flow needs a stages array, even if empty"},
		{Path: "flows[].name", Required: false, Suggestion: "Name flows so reports stay readable"},
	},
	"1.1.0": {
		{Path: "version", Required: true, Suggestion: "Stamp the document with its schema version"},
		{Path: "flows", Required: true, Suggestion: "A document must carry at least an empty flows array"},
		{Path: "flows[].id", Required: true, Suggestion: "Give every flow a stable identifier"},
		{Path: "flows[].stages", Required: true, Suggestion: "Every flow needs a stages array, even if empty"},
		{Path: "flows[].name", Required: false, Suggestion: "Name flows so reports stay readable"},
	},
	"1.2.0": {
		{Path: "version", Required: true, Suggestion: "Stamp the document with its schema version"},
		{Path: "flows", Required: true, Suggestion: "A document must carry at least an empty flows array"},
		{Path: "flows[].id", Required: true, Suggestion: "Give every flow a stable identifier"},
		{Path: "flows[].stages", Required: true, Suggestion: "Every flow needs a stages array, even if empty"},
		{Path: "flows[].description", Required: false, Suggestion: "Describe the business flow for reviewers"},
	},
	"1.3.0": {
		{Path: "version", Required: true, Suggestion: "Stamp the document with its schema version"},
		{Path: "flows", Required: true, Suggestion: "A document must carry at least an empty flows array"},
		{Path: "flows[].id", Required: true, Suggestion: "Give every flow a stable identifier"},
		{Path: "flows[].stages", Required: true, Suggestion: "Every flow needs a stages array, even if empty"},
		{Path: "flows[].owner", Required: false, Suggestion: "Record the accountable owner for each flow"},
	},
}

// RequirementsFor returns the static field requirements for a schema
// version, or nil when the version is unknown.
func RequirementsFor(version string) []model.FieldRequirement {
	reqs, ok := versionRequirements[version]
	if !ok {
		return nil
	}
	out := make([]model.FieldRequirement, len(reqs))
	copy(out, reqs)
	return out
}

// Checker performs read-only compatibility inspection of a document
// against a target schema version.
type Checker struct {
	registry *Registry
}

func NewChecker(registry *Registry) *Checker {
	return &Checker{registry: registry}
}

// Check reports whether doc satisfies the field requirements of the
// target version. Missing required fields surface as errors, missing
// optional fields as warnings; the document is compatible iff no
// error-severity issue exists.
func (c *Checker) Check(doc model.Document, targetVersion string) model.CompatibilityCheck {
	check := model.CompatibilityCheck{
		Compatible:    true,
		TargetVersion: targetVersion,
	}

	reqs, known := versionRequirements[targetVersion]
	if !known {
		check.Issues = append(check.Issues, model.CompatibilityIssue{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("No field requirements are registered for version %s", targetVersion),
		})
	}

	for _, req := range reqs {
		if fieldPresent(doc, req.Path) {
			continue
		}
		issue := model.CompatibilityIssue{
			Field:      req.Path,
			Suggestion: req.Suggestion,
		}
		if req.Required {
			issue.Severity = model.SeverityError
			issue.Message = fmt.Sprintf("Required field '%s' is missing for version %s", req.Path, targetVersion)
			check.Compatible = false
		} else {
			issue.Severity = model.SeverityWarning
			issue.Message = fmt.Sprintf("Optional field '%s' is missing for version %s", req.Path, targetVersion)
		}
		check.Issues = append(check.Issues, issue)
	}

	// Any issue, even warning-only, earns both generic recommendations.
	if len(check.Issues) > 0 {
		check.Recommendations = append(check.Recommendations,
			"Create a backup before migrating",
			"Resolve the critical issues above before attempting migration",
		)
	}

	if c.registry != nil {
		for _, m := range c.registry.Select(doc.Version(), targetVersion) {
			check.MigrationPath = append(check.MigrationPath, m.Version)
		}
	}
	return check
}

// fieldPresent resolves path against doc. A wildcard path counts as
// present only when every mapped element carries the field, matching
// how required rules treat per-element gaps.
func fieldPresent(doc model.Document, path string) bool {
	p, err := document.Parse(path)
	if err != nil {
		return false
	}
	value := p.Resolve(doc)
	if value == nil {
		return false
	}
	if p.HasWildcard() {
		mapped, ok := value.([]any)
		if !ok {
			return false
		}
		for _, elem := range mapped {
			if elem == nil {
				return false
			}
		}
	}
	return true
}
