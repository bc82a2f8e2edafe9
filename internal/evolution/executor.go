package evolution

import (
	"context"
	"fmt"

	"github.com/bosflow/bosflow/internal/backup"
	"github.com/bosflow/bosflow/model"
)

// SchemaGate is the post-migration structural check. A document that
// migrated cleanly but fails the gate still counts as a failed
// evolution.
type SchemaGate interface {
	ValidateFlowData(doc model.Document) (bool, []string)
}

// Executor runs evolution plans. The input document is never mutated;
// all transforms operate on a deep clone.
type Executor struct {
	backups backup.Store
	gate    SchemaGate
}

func NewExecutor(backups backup.Store, gate SchemaGate) *Executor {
	return &Executor{backups: backups, gate: gate}
}

// Execute applies the plan's migrations in order, fail-fast. When the
// plan demands a backup, a failed backup downgrades to a warning and
// execution proceeds without rollback protection.
func (e *Executor) Execute(ctx context.Context, doc model.Document, plan model.EvolutionPlan) model.EvolutionResult {
	res := model.EvolutionResult{
		Version:           plan.TargetVersion,
		MigrationsApplied: []string{},
	}

	if plan.BackupRequired && e.backups != nil {
		label := fmt.Sprintf("pre-migration %s -> %s", plan.CurrentVersion, plan.TargetVersion)
		rec, err := e.backups.Create(ctx, doc.Clone(), "pre-migration", label)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("Backup failed (%v); proceeding without rollback protection", err))
		} else {
			res.BackupID = rec.ID
			res.RollbackAvailable = true
		}
	}

	working := doc.Clone()
	for _, m := range plan.Migrations {
		next, err := applyUp(m, working)
		if err != nil {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Migration to %s failed: %v", m.Version, err))
			break
		}
		if m.Validate != nil && !m.Validate(next) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Migration to %s failed its post-condition", m.Version))
			break
		}
		working = next
		res.MigrationsApplied = append(res.MigrationsApplied, m.Version)
	}

	if len(res.Errors) == 0 {
		working["version"] = plan.TargetVersion
		if e.gate != nil {
			if ok, problems := e.gate.ValidateFlowData(working); !ok {
				for _, p := range problems {
					res.Errors = append(res.Errors, fmt.Sprintf("Schema validation failed: %s", p))
				}
			}
		}
	}

	res.Success = len(res.Errors) == 0
	if res.Success {
		res.Document = working
	}
	return res
}

// Rollback restores the snapshot stored under backupID wholesale. No
// down transforms run; the snapshot is the source of truth.
func (e *Executor) Rollback(ctx context.Context, backupID string) model.EvolutionResult {
	res := model.EvolutionResult{BackupID: backupID}
	if e.backups == nil {
		res.Errors = append(res.Errors, "Rollback failed: no backup store configured")
		return res
	}
	snapshot, err := e.backups.Restore(ctx, backupID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Rollback failed: %v", err))
		return res
	}
	res.Success = true
	res.Version = snapshot.Version()
	res.Document = snapshot
	res.Warnings = append(res.Warnings, "Data restored from backup")
	return res
}

// applyUp shields the executor from a panicking transform; a panic is
// reported as that migration's failure, not the caller's crash.
func applyUp(m model.Migration, doc model.Document) (out model.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("panic in up transform: %v", r)
		}
	}()
	return m.Up(doc)
}
