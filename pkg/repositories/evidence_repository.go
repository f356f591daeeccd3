package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// DefaultEvidenceLimit caps ListByProject when the caller passes no limit.
const DefaultEvidenceLimit = 50

// EvidenceRepository defines data access for the append-only evidence_events table.
type EvidenceRepository interface {
	Create(ctx context.Context, event *models.EvidenceEvent) error
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.EvidenceEvent, error)
}

type evidenceRepository struct{}

// NewEvidenceRepository creates a new evidence repository.
func NewEvidenceRepository() EvidenceRepository {
	return &evidenceRepository{}
}

var _ EvidenceRepository = (*evidenceRepository)(nil)

// Create inserts event, filling ID, EventDate and CreatedAt when unset.
func (r *evidenceRepository) Create(ctx context.Context, event *models.EvidenceEvent) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	if event.EventDate.IsZero() {
		event.EventDate = now
	}
	event.CreatedAt = now
	if event.Metadata == nil {
		event.Metadata = models.JSONBMap{}
	}

	query := `
		INSERT INTO evidence_events (id, project_id, event_type, title, description, event_date, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := scope.Conn.Exec(ctx, query,
		event.ID,
		event.ProjectID,
		event.EventType,
		event.Title,
		event.Description,
		event.EventDate,
		event.Metadata,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create evidence event: %w", err)
	}
	return nil
}

// ListByProject returns the newest events first.
func (r *evidenceRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.EvidenceEvent, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}
	if limit <= 0 {
		limit = DefaultEvidenceLimit
	}

	query := `
		SELECT id, project_id, event_type, title, description, event_date, metadata, created_at
		FROM evidence_events
		WHERE project_id = $1
		ORDER BY event_date DESC, created_at DESC
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.EvidenceEvent, 0)
	for rows.Next() {
		var e models.EvidenceEvent
		if err := rows.Scan(
			&e.ID,
			&e.ProjectID,
			&e.EventType,
			&e.Title,
			&e.Description,
			&e.EventDate,
			&e.Metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evidence event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evidence events: %w", err)
	}
	return events, nil
}
