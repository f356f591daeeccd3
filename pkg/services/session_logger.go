package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
)

const (
	// SessionTitle is the title of every discovery evidence event.
	SessionTitle = "Voice Discovery Session"

	sessionNoFindingsDescription = "Voice discovery session completed - no specific items identified"
	sessionFindingsDescription   = "Voice discovery session completed - identified %d IP items"
)

// Session is everything the audit record captures about one discovery pass.
type Session struct {
	Source     models.ProvenanceSource
	UserID     string
	Transcript string
	Summary    string
	Findings   []models.Finding
	Result     *models.ReconcileResult
	Metadata   map[string]interface{}
}

// SessionLogger writes the append-only audit trail of discovery passes.
type SessionLogger interface {
	// LogSession records one evidence event. It never fails the caller:
	// write errors are logged and nil is returned.
	LogSession(ctx context.Context, projectID uuid.UUID, session *Session) *models.EvidenceEvent

	// Recent returns the newest events first. limit <= 0 uses the repository default.
	Recent(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.EvidenceEvent, error)
}

type sessionLogger struct {
	repo   repositories.EvidenceRepository
	logger *zap.Logger
}

// NewSessionLogger creates a SessionLogger.
func NewSessionLogger(repo repositories.EvidenceRepository, logger *zap.Logger) SessionLogger {
	return &sessionLogger{
		repo:   repo,
		logger: logger.Named("session_logger"),
	}
}

var _ SessionLogger = (*sessionLogger)(nil)

// SessionDescription is the human-readable summary for a pass with n Findings.
func SessionDescription(n int) string {
	if n == 0 {
		return sessionNoFindingsDescription
	}
	return fmt.Sprintf(sessionFindingsDescription, n)
}

func (s *sessionLogger) LogSession(ctx context.Context, projectID uuid.UUID, session *Session) *models.EvidenceEvent {
	if session == nil {
		session = &Session{}
	}

	event := &models.EvidenceEvent{
		ProjectID:   projectID,
		EventType:   models.EvidenceEventTypeVoiceDiscovery,
		Title:       SessionTitle,
		Description: SessionDescription(len(session.Findings)),
		Metadata:    sessionMetadata(session),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record discovery session",
			zap.String("project_id", projectID.String()),
			zap.String("source", session.Source.String()),
			zap.Int("findings", len(session.Findings)),
			zap.String("error", logging.SanitizeError(err)))
		return nil
	}

	s.logger.Info("Recorded discovery session",
		zap.String("project_id", projectID.String()),
		zap.String("event_id", event.ID.String()),
		zap.String("source", session.Source.String()),
		zap.Int("findings", len(session.Findings)))
	return event
}

func (s *sessionLogger) Recent(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.EvidenceEvent, error) {
	events, err := s.repo.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list evidence events: %w", err)
	}
	return events, nil
}

func sessionMetadata(session *Session) models.JSONBMap {
	findings := make([]map[string]interface{}, 0, len(session.Findings))
	for _, f := range session.Findings {
		entry := map[string]interface{}{
			"item_key": f.Key,
			"status":   string(f.Status),
		}
		if f.Notes != "" {
			entry["notes"] = f.Notes
		}
		findings = append(findings, entry)
	}

	meta := models.JSONBMap{
		"source":            string(session.Source),
		"findings":          findings,
		"findings_count":    len(session.Findings),
		"transcript_length": len(session.Transcript),
		"summary_length":    len(session.Summary),
	}
	if session.UserID != "" {
		meta["user_id"] = session.UserID
	}
	if session.Summary != "" {
		meta["summary_excerpt"] = logging.Excerpt(session.Summary)
	} else if session.Transcript != "" {
		meta["transcript_excerpt"] = logging.Excerpt(session.Transcript)
	}
	if r := session.Result; r != nil {
		meta["items_updated"] = len(r.Applied)
		meta["items_skipped"] = len(r.Skipped)
		meta["items_failed"] = len(r.Failed)
	}
	if len(session.Metadata) > 0 {
		meta["caller"] = session.Metadata
	}
	return meta
}
