package evolution

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/model"
)

// DefaultLockTTL bounds how long a single evolution may hold a
// document lock before it expires on its own.
const DefaultLockTTL = 30 * time.Second

// Service is the evolution facade the transport layer talks to. It
// serializes executions per document and records outcome metrics.
type Service struct {
	registry *Registry
	planner  *Planner
	checker  *Checker
	executor *Executor
	locker   Locker
	logger   *zap.Logger
	metrics  *observability.Metrics
	lockTTL  time.Duration
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLockTTL overrides the per-document lock expiry.
func WithLockTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// NewService wires the evolution components. locker and metrics may be
// nil; locking and instrumentation are then skipped.
func NewService(registry *Registry, executor *Executor, locker Locker, logger *zap.Logger, metrics *observability.Metrics, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		registry: registry,
		planner:  NewPlanner(registry),
		checker:  NewChecker(registry),
		executor: executor,
		locker:   locker,
		logger:   logger,
		metrics:  metrics,
		lockTTL:  DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the backing registry for migration registration.
func (s *Service) Registry() *Registry { return s.registry }

// Plan computes the ordered migration plan between two versions.
func (s *Service) Plan(current, target string) model.EvolutionPlan {
	return s.planner.Plan(current, target)
}

// Check inspects doc against a target version without mutating it.
func (s *Service) Check(doc model.Document, targetVersion string) model.CompatibilityCheck {
	return s.checker.Check(doc, targetVersion)
}

// Evolve plans and executes the migration of doc to targetVersion.
// When documentID is non-empty and a locker is configured, concurrent
// evolutions of the same document are rejected with a locked error.
func (s *Service) Evolve(ctx context.Context, documentID string, doc model.Document, targetVersion string) model.EvolutionResult {
	start := time.Now()
	logger := observability.RequestLogger(ctx, s.logger)

	ctx, span := observability.StartSpan(ctx, "evolution.execute",
		observability.AttrDocumentID.String(documentID),
		observability.AttrCurrentVersion.String(doc.Version()),
		observability.AttrTargetVersion.String(targetVersion),
	)
	defer span.End()
	if rctx := model.RequestContextFrom(ctx); rctx != nil {
		span.SetAttributes(observability.AttrSubjectID.String(rctx.SubjectID))
	}

	if s.locker != nil && documentID != "" {
		acquired, err := s.locker.Acquire(ctx, documentID, s.lockTTL)
		if err != nil {
			// A broken lock backend degrades to unserialized execution
			// rather than blocking all evolutions.
			logger.Warn("document lock unavailable, proceeding without lock",
				zap.String("document_id", documentID), zap.Error(err))
		} else if !acquired {
			if s.metrics != nil {
				s.metrics.RecordLockContention()
			}
			return model.EvolutionResult{
				Version: targetVersion,
				Errors: []string{
					fmt.Sprintf("Document %s is locked by a concurrent evolution", documentID),
				},
			}
		} else {
			defer func() {
				if relErr := s.locker.Release(ctx, documentID); relErr != nil {
					logger.Warn("document lock release failed",
						zap.String("document_id", documentID), zap.Error(relErr))
				}
			}()
		}
	}

	plan := s.planner.Plan(doc.Version(), targetVersion)
	span.SetAttributes(observability.AttrRiskLevel.String(string(plan.RiskLevel)))
	res := s.executor.Execute(ctx, doc, plan)

	if res.BackupID != "" {
		span.SetAttributes(observability.AttrBackupID.String(res.BackupID))
	}
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	if s.metrics != nil {
		s.metrics.RecordEvolution(outcome, res.MigrationsApplied, time.Since(start))
	}
	logger.Info("evolution executed",
		zap.String("document_id", documentID),
		zap.String("from", plan.CurrentVersion),
		zap.String("to", plan.TargetVersion),
		zap.String("risk", string(plan.RiskLevel)),
		zap.Strings("applied", res.MigrationsApplied),
		zap.Bool("success", res.Success),
	)
	return res
}

// Rollback restores a document from the named backup snapshot.
func (s *Service) Rollback(ctx context.Context, backupID string) model.EvolutionResult {
	ctx, span := observability.StartSpan(ctx, "evolution.rollback",
		observability.AttrBackupID.String(backupID),
	)

	res := s.executor.Rollback(ctx, backupID)
	outcome := "success"
	var spanErr error
	if !res.Success {
		outcome = "failure"
		spanErr = fmt.Errorf("rollback of backup %s failed", backupID)
	}
	observability.EndSpanWithError(span, spanErr)
	if s.metrics != nil {
		s.metrics.RecordRollback(outcome)
	}
	observability.RequestLogger(ctx, s.logger).Info("rollback executed",
		zap.String("backup_id", backupID), zap.Bool("success", res.Success))
	return res
}
