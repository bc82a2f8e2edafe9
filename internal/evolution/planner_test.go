package evolution

import (
	"testing"

	"github.com/bosflow/bosflow/model"
)

func plannerWith(versions ...string) *Planner {
	r := NewRegistry()
	for _, v := range versions {
		r.Register(noopMigration(v))
	}
	return NewPlanner(r)
}

func TestPlan_orders_and_windows(t *testing.T) {
	p := plannerWith("1.3.0", "1.1.0", "1.2.0")

	plan := p.Plan("1.0.0", "1.3.0")
	want := []string{"1.1.0", "1.2.0", "1.3.0"}
	if len(plan.MigrationPath) != len(want) {
		t.Fatalf("path length = %d, want %d", len(plan.MigrationPath), len(want))
	}
	for i, v := range plan.MigrationPath {
		if v != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, v, want[i])
		}
	}
	if plan.CurrentVersion != "1.0.0" || plan.TargetVersion != "1.3.0" {
		t.Errorf("plan endpoints = %q..%q", plan.CurrentVersion, plan.TargetVersion)
	}
}

func TestPlan_empty_for_same_or_older_target(t *testing.T) {
	p := plannerWith("1.1.0", "1.2.0")

	for _, tc := range []struct{ current, target string }{
		{"1.2.0", "1.2.0"},
		{"1.2.0", "1.1.0"},
	} {
		plan := p.Plan(tc.current, tc.target)
		if len(plan.Migrations) != 0 {
			t.Errorf("Plan(%q, %q) selected %d migrations, want 0", tc.current, tc.target, len(plan.Migrations))
		}
		if plan.RiskLevel != model.RiskLow {
			t.Errorf("risk = %q, want low", plan.RiskLevel)
		}
		if plan.BackupRequired {
			t.Error("empty plan must not require a backup")
		}
	}
}

func TestPlan_risk_levels(t *testing.T) {
	p := plannerWith("1.1.0", "1.2.0", "1.3.0")

	cases := []struct {
		target string
		risk   model.RiskLevel
		backup bool
	}{
		{"1.0.0", model.RiskLow, false},
		{"1.1.0", model.RiskMedium, true},
		{"1.2.0", model.RiskMedium, true},
		{"1.3.0", model.RiskHigh, true},
	}
	for _, tc := range cases {
		plan := p.Plan("1.0.0", tc.target)
		if plan.RiskLevel != tc.risk {
			t.Errorf("target %s: risk = %q, want %q", tc.target, plan.RiskLevel, tc.risk)
		}
		if plan.BackupRequired != tc.backup {
			t.Errorf("target %s: backupRequired = %v, want %v", tc.target, plan.BackupRequired, tc.backup)
		}
	}
}

func TestPlan_estimate_scales_with_migration_count(t *testing.T) {
	p := plannerWith("1.1.0", "1.2.0", "1.3.0")

	if got := p.Plan("1.0.0", "1.3.0").EstimatedTimeMs; got != 3*perMigrationCostMs {
		t.Errorf("estimate = %d, want %d", got, 3*perMigrationCostMs)
	}
	if got := p.Plan("1.0.0", "1.0.0").EstimatedTimeMs; got != 0 {
		t.Errorf("estimate = %d, want 0", got)
	}
}

func TestPlan_is_deterministic(t *testing.T) {
	p := plannerWith("1.1.0", "1.2.0")

	a := p.Plan("1.0.0", "1.2.0")
	b := p.Plan("1.0.0", "1.2.0")
	if a.RiskLevel != b.RiskLevel || a.EstimatedTimeMs != b.EstimatedTimeMs ||
		len(a.MigrationPath) != len(b.MigrationPath) {
		t.Error("planning twice with the same inputs diverged")
	}
}
