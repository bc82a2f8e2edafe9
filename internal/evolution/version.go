// Package evolution plans and executes versioned migrations of BOS flow
// documents: a registry of bidirectional transforms, a risk-assessing
// planner, a pre-flight compatibility checker, and a fail-fast executor
// with backup-before-mutate and wholesale rollback.
package evolution

import (
	"strings"

	"golang.org/x/mod/semver"
)

// canonical prepends the "v" prefix semver.Compare expects. Registry
// versions are stored without it ("1.2.0").
func canonical(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// CompareVersions orders two versions semver-style. Versions that do
// not parse as semver fall back to lexicographic comparison, which
// keeps ordering total.
func CompareVersions(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return strings.Compare(a, b)
}
