package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
)

// Reconciler merges classifier Findings into a project's protection items.
type Reconciler interface {
	// Reconcile applies findings for one project. Each Finding lands in
	// exactly one of Applied, Skipped or Failed; a failing Finding never
	// stops the others. The only error is an invalid project id.
	Reconcile(ctx context.Context, projectID uuid.UUID, findings []models.Finding) (*models.ReconcileResult, error)
}

// ReconcilerOptions tunes a Reconciler.
type ReconcilerOptions struct {
	// Parallelism bounds how many item keys are written at once. The
	// caller's connection always takes part; up to Parallelism-1 extra
	// connections are borrowed only when the pool has them free. Values
	// below 2, or a nil worker provider, keep everything on the caller's
	// connection.
	Parallelism int

	// FuzzyNameMatch falls back to an item_name match when no item exists
	// for a Finding's key.
	FuzzyNameMatch bool
}

type reconciler struct {
	repo    repositories.ProtectionItemRepository
	workers database.WorkerScopeProvider
	opts    ReconcilerOptions
	logger  *zap.Logger
}

// NewReconciler creates a Reconciler. workers may be nil.
func NewReconciler(
	repo repositories.ProtectionItemRepository,
	workers database.WorkerScopeProvider,
	opts ReconcilerOptions,
	logger *zap.Logger,
) Reconciler {
	return &reconciler{
		repo:    repo,
		workers: workers,
		opts:    opts,
		logger:  logger.Named("reconciler"),
	}
}

var _ Reconciler = (*reconciler)(nil)

type outcomeKind int

const (
	kindFailed outcomeKind = iota
	kindApplied
	kindSkipped
)

type findingOutcome struct {
	kind    outcomeKind
	item    *models.ProtectionItem
	outcome models.UpsertOutcome
	err     error
}

func (r *reconciler) Reconcile(ctx context.Context, projectID uuid.UUID, findings []models.Finding) (*models.ReconcileResult, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project id is required", apperrors.ErrInvalidInput)
	}

	outcomes := make([]findingOutcome, len(findings))
	groups := groupByKey(findings)

	if r.opts.Parallelism < 2 || r.workers == nil || len(groups) < 2 {
		for _, group := range groups {
			r.applyGroup(ctx, projectID, findings, group, outcomes)
		}
	} else {
		r.reconcileParallel(ctx, projectID, findings, groups, outcomes)
	}

	result := assemble(findings, outcomes)
	r.logger.Info("Reconciled findings",
		zap.String("project_id", projectID.String()),
		zap.Int("findings", len(findings)),
		zap.Int("applied", len(result.Applied)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

// reconcileParallel drains key groups from a shared cursor on the caller's
// connection plus whatever extra connections the pool can hand out without
// waiting. A pass therefore never blocks on the pool beyond the connection
// it already holds.
func (r *reconciler) reconcileParallel(ctx context.Context, projectID uuid.UUID, findings []models.Finding, groups [][]int, outcomes []findingOutcome) {
	var next atomic.Int64
	drain := func(ctx context.Context) {
		for {
			i := int(next.Add(1) - 1)
			if i >= len(groups) {
				return
			}
			r.applyGroup(ctx, projectID, findings, groups[i], outcomes)
		}
	}

	var g errgroup.Group
	extra := 0
	for range min(r.opts.Parallelism, len(groups)) - 1 {
		workerCtx, cleanup, err := r.workers.TryTenantScope(ctx, projectID)
		if err != nil {
			if !errors.Is(err, database.ErrNoIdleConnection) {
				r.logger.Warn("Failed to open reconciliation worker scope",
					zap.String("project_id", projectID.String()),
					zap.String("error", logging.SanitizeError(err)))
			}
			break
		}
		extra++
		g.Go(func() error {
			defer cleanup()
			drain(workerCtx)
			return nil
		})
	}

	r.logger.Debug("Reconciling in parallel",
		zap.String("project_id", projectID.String()),
		zap.Int("groups", len(groups)),
		zap.Int("extra_connections", extra))

	drain(ctx)
	_ = g.Wait()
}

// applyGroup applies Findings that share a key strictly in input order.
func (r *reconciler) applyGroup(ctx context.Context, projectID uuid.UUID, findings []models.Finding, group []int, outcomes []findingOutcome) {
	for _, idx := range group {
		outcomes[idx] = r.apply(ctx, projectID, findings[idx])
	}
}

func (r *reconciler) apply(ctx context.Context, projectID uuid.UUID, f models.Finding) findingOutcome {
	if f.Key == "" {
		return findingOutcome{kind: kindFailed, err: fmt.Errorf("%w: finding has no item key", apperrors.ErrInvalidInput)}
	}
	if err := ctx.Err(); err != nil {
		return findingOutcome{kind: kindFailed, err: err}
	}

	if r.opts.FuzzyNameMatch {
		if out, handled := r.applyByName(ctx, projectID, f); handled {
			return out
		}
	}

	item, outcome, err := r.repo.UpsertUpgrade(ctx, f.ToProtectionItem(projectID))
	if err != nil {
		r.logFailure(projectID, f, err)
		return findingOutcome{kind: kindFailed, err: err}
	}

	r.logger.Debug("Applied finding",
		zap.String("project_id", projectID.String()),
		zap.String("item_key", f.Key),
		zap.String("status", f.Status.String()),
		zap.String("outcome", string(outcome)))

	if outcome == models.OutcomeUnchanged {
		return findingOutcome{kind: kindSkipped, item: item}
	}
	return findingOutcome{kind: kindApplied, item: item, outcome: outcome}
}

// applyByName handles the fuzzy fallback. handled is false when the exact
// key exists or no name matches, leaving the Finding to the keyed upsert.
func (r *reconciler) applyByName(ctx context.Context, projectID uuid.UUID, f models.Finding) (findingOutcome, bool) {
	_, err := r.repo.GetByType(ctx, projectID, f.Key)
	if err == nil {
		return findingOutcome{}, false
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		r.logFailure(projectID, f, err)
		return findingOutcome{kind: kindFailed, err: err}, true
	}

	match, err := r.repo.FindByNameMatch(ctx, projectID, f.Name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return findingOutcome{}, false
	}
	if err != nil {
		r.logFailure(projectID, f, err)
		return findingOutcome{kind: kindFailed, err: err}, true
	}

	upgraded, ok, err := r.repo.UpgradeByID(ctx, match.ID, f.Status, f.Notes)
	if err != nil {
		r.logFailure(projectID, f, err)
		return findingOutcome{kind: kindFailed, err: err}, true
	}

	r.logger.Debug("Matched finding by item name",
		zap.String("project_id", projectID.String()),
		zap.String("item_key", f.Key),
		zap.String("matched_item_type", match.ItemType),
		zap.Bool("upgraded", ok))

	if !ok {
		return findingOutcome{kind: kindSkipped, item: match}, true
	}
	return findingOutcome{kind: kindApplied, item: upgraded, outcome: models.OutcomeUpgraded}, true
}

func (r *reconciler) logFailure(projectID uuid.UUID, f models.Finding, err error) {
	r.logger.Error("Failed to reconcile finding",
		zap.String("project_id", projectID.String()),
		zap.String("item_key", f.Key),
		zap.String("status", f.Status.String()),
		zap.String("error", logging.SanitizeError(err)))
}

// groupByKey returns Finding indices grouped by key, groups in order of first appearance.
func groupByKey(findings []models.Finding) [][]int {
	pos := make(map[string]int, len(findings))
	groups := make([][]int, 0, len(findings))
	for i, f := range findings {
		g, ok := pos[f.Key]
		if !ok {
			g = len(groups)
			pos[f.Key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func assemble(findings []models.Finding, outcomes []findingOutcome) *models.ReconcileResult {
	result := &models.ReconcileResult{
		Applied: make([]models.AppliedItem, 0, len(findings)),
		Skipped: make([]models.SkippedFinding, 0),
		Failed:  make([]models.FailedFinding, 0),
	}
	for i, f := range findings {
		o := outcomes[i]
		switch o.kind {
		case kindApplied:
			result.Applied = append(result.Applied, models.AppliedItem{Finding: f, Item: o.item, Outcome: o.outcome})
		case kindSkipped:
			result.Skipped = append(result.Skipped, models.SkippedFinding{Finding: f, Current: o.item})
		default:
			result.Failed = append(result.Failed, models.FailedFinding{Finding: f, Err: o.err})
		}
	}
	return result
}
