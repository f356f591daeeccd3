package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// DiscoveryService runs a full discovery pass: classify, reconcile, audit.
type DiscoveryService interface {
	// Process runs one pass for req. Only bad input, an unknown project and
	// a failure to reach the database are errors; per-Finding failures are
	// reported in the outcome counts.
	Process(ctx context.Context, req *models.DiscoveryRequest) (*models.DiscoveryOutcome, error)

	// Classify returns the Findings for text without touching storage.
	Classify(text string) []models.Finding
}

// DiscoveryOptions tunes a DiscoveryService.
type DiscoveryOptions struct {
	// CompleteOnEmpty marks the project's discovery completed even when a
	// pass yields no Findings.
	CompleteOnEmpty bool
}

type discoveryService struct {
	projects   ProjectService
	classifier *discovery.Classifier
	reconciler Reconciler
	sessions   SessionLogger
	scopes     database.ScopeProvider
	opts       DiscoveryOptions
	logger     *zap.Logger
}

// NewDiscoveryService creates a DiscoveryService. When scopes is nil the
// caller's context must already carry a tenant scope.
func NewDiscoveryService(
	projects ProjectService,
	classifier *discovery.Classifier,
	reconciler Reconciler,
	sessions SessionLogger,
	scopes database.ScopeProvider,
	opts DiscoveryOptions,
	logger *zap.Logger,
) DiscoveryService {
	return &discoveryService{
		projects:   projects,
		classifier: classifier,
		reconciler: reconciler,
		sessions:   sessions,
		scopes:     scopes,
		opts:       opts,
		logger:     logger.Named("discovery"),
	}
}

var _ DiscoveryService = (*discoveryService)(nil)

func (s *discoveryService) Classify(text string) []models.Finding {
	return s.classifier.Classify(text)
}

func (s *discoveryService) Process(ctx context.Context, req *models.DiscoveryRequest) (*models.DiscoveryOutcome, error) {
	if req == nil || req.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", apperrors.ErrInvalidInput)
	}
	if !req.HasText() {
		return nil, fmt.Errorf("%w: transcript or summary is required", apperrors.ErrInvalidInput)
	}

	ctx, cleanup, err := s.ensureScope(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer cleanup()

	if _, err := s.projects.GetForUser(ctx, req.ProjectID, req.UserID); err != nil {
		return nil, err
	}

	prov := s.provenance(ctx, req)
	ctx = models.WithProvenance(ctx, prov)

	findings := s.classifier.Classify(discovery.BuildHaystack(req.Transcript, req.Summary))

	result, err := s.reconciler.Reconcile(ctx, req.ProjectID, findings)
	if err != nil {
		return nil, err
	}

	event := s.sessions.LogSession(ctx, req.ProjectID, &Session{
		Source:     prov.Source,
		UserID:     prov.UserID,
		Transcript: req.Transcript,
		Summary:    req.Summary,
		Findings:   findings,
		Result:     result,
		Metadata:   req.Metadata,
	})

	if len(findings) > 0 || s.opts.CompleteOnEmpty {
		// Logged by the project service; the pass itself succeeded.
		_ = s.projects.MarkDiscoveryCompleted(ctx, req.ProjectID)
	}

	outcome := models.NewDiscoveryOutcome(findings, result)
	if event != nil {
		id := event.ID
		outcome.EvidenceEventID = &id
	}

	s.logger.Info("Discovery pass completed",
		zap.String("project_id", req.ProjectID.String()),
		zap.String("source", prov.Source.String()),
		zap.Int("findings", len(findings)),
		zap.Int("items_updated", outcome.ItemsUpdated),
		zap.Int("items_skipped", outcome.ItemsSkipped),
		zap.Int("items_failed", outcome.ItemsFailed))

	return outcome, nil
}

func (s *discoveryService) ensureScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
	if s.scopes == nil {
		if _, ok := database.GetTenantScope(ctx); !ok {
			return nil, nil, fmt.Errorf("no tenant scope in context")
		}
		return ctx, func() {}, nil
	}
	return database.EnsureTenantScope(ctx, s.scopes, projectID)
}

// provenance prefers what the adapter put on the request, then the context.
func (s *discoveryService) provenance(ctx context.Context, req *models.DiscoveryRequest) models.ProvenanceContext {
	prov, _ := models.GetProvenance(ctx)
	if req.Source.IsValid() {
		prov.Source = req.Source
	}
	if req.UserID != "" {
		prov.UserID = req.UserID
	}
	if !prov.Source.IsValid() {
		prov.Source = models.SourceDiscoveryAPI
	}
	return prov
}
