package evolution

import "github.com/bosflow/bosflow/model"

// perMigrationCostMs is the planning estimate for a single transform.
// Real transforms are in-memory map rewrites and run far faster; the
// figure exists so operators can compare plan sizes, not wall clocks.
const perMigrationCostMs = 1000

// Planner turns a (current, target) version pair into an ordered
// evolution plan with a coarse risk assessment.
type Planner struct {
	registry *Registry
}

func NewPlanner(registry *Registry) *Planner {
	return &Planner{registry: registry}
}

// Plan selects the registered migrations strictly after current and up
// to target, ascending. A same-version or backward request yields an
// empty, low-risk plan rather than an error.
func (p *Planner) Plan(current, target string) model.EvolutionPlan {
	selected := p.registry.Select(current, target)

	plan := model.EvolutionPlan{
		CurrentVersion:  current,
		TargetVersion:   target,
		Migrations:      selected,
		MigrationPath:   make([]string, 0, len(selected)),
		RiskLevel:       riskFor(len(selected)),
		EstimatedTimeMs: int64(len(selected)) * perMigrationCostMs,
	}
	for _, m := range selected {
		plan.MigrationPath = append(plan.MigrationPath, m.Version)
	}
	plan.BackupRequired = plan.RiskLevel != model.RiskLow
	return plan
}

func riskFor(migrations int) model.RiskLevel {
	switch {
	case migrations == 0:
		return model.RiskLow
	case migrations <= 2:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}
