package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
)

// ProtectionItemService exposes the read side of protection items.
type ProtectionItemService interface {
	// List returns a project's items, most urgent first.
	List(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error)
}

type protectionItemService struct {
	repo repositories.ProtectionItemRepository
}

// NewProtectionItemService creates a ProtectionItemService.
func NewProtectionItemService(repo repositories.ProtectionItemRepository) ProtectionItemService {
	return &protectionItemService{repo: repo}
}

var _ ProtectionItemService = (*protectionItemService)(nil)

func (s *protectionItemService) List(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error) {
	items, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list protection items: %w", err)
	}
	return items, nil
}
