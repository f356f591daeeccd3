package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
)

// ProjectService defines the interface for project operations.
type ProjectService interface {
	// GetForUser returns the project when userID owns it. Unknown projects
	// and projects owned by someone else both yield ErrNotFound. An empty
	// userID skips the ownership check.
	GetForUser(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error)

	// MarkDiscoveryCompleted sets the project's discovery flag.
	MarkDiscoveryCompleted(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	repo   repositories.ProjectRepository
	logger *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(repo repositories.ProjectRepository, logger *zap.Logger) ProjectService {
	return &projectService{
		repo:   repo,
		logger: logger.Named("projects"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) GetForUser(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	if !project.IsOwnedBy(userID) {
		s.logger.Warn("Project access denied to non-owner",
			zap.String("project_id", id.String()),
			zap.String("user_id", userID))
		return nil, apperrors.ErrNotFound
	}
	return project, nil
}

func (s *projectService) MarkDiscoveryCompleted(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkDiscoveryCompleted(ctx, id); err != nil {
		s.logger.Error("Failed to mark discovery completed",
			zap.String("project_id", id.String()),
			zap.String("error", logging.SanitizeError(err)))
		return err
	}
	return nil
}
