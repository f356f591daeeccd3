package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	MarkDiscoveryCompleted(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

var _ ProjectRepository = (*projectRepository)(nil)

// Create inserts a project, or renames it if the id already exists.
// Projects normally come from the web app; this serves the CLI and tests.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	query := `
		INSERT INTO projects (id, owner_id, name, discovery_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    updated_at = EXCLUDED.updated_at`

	_, err := scope.Conn.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Name,
		project.DiscoveryCompleted,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, owner_id, name, discovery_completed, created_at, updated_at
		FROM projects
		WHERE id = $1`

	var p models.Project
	err := scope.Conn.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.DiscoveryCompleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// MarkDiscoveryCompleted sets discovery_completed. The flag is never cleared here.
func (r *projectRepository) MarkDiscoveryCompleted(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	tag, err := scope.Conn.Exec(ctx,
		`UPDATE projects SET discovery_completed = true, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark discovery completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
