package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// ProtectionItemRepository defines data access for protection_items.
type ProtectionItemRepository interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error)
	GetByType(ctx context.Context, projectID uuid.UUID, itemType string) (*models.ProtectionItem, error)

	// FindByNameMatch returns the oldest item whose item_name contains name,
	// case-insensitively. ErrNotFound when none does.
	FindByNameMatch(ctx context.Context, projectID uuid.UUID, name string) (*models.ProtectionItem, error)

	// UpsertUpgrade creates the item for (project_id, item_type) or, when one
	// exists, moves it to item.Status only if that is strictly more urgent.
	// The comparison happens inside the statement. On OutcomeUnchanged the
	// returned item is the stored row.
	UpsertUpgrade(ctx context.Context, item *models.ProtectionItem) (*models.ProtectionItem, models.UpsertOutcome, error)

	// UpgradeByID applies the same strictly-more-urgent rule to a known row.
	// Returns nil, false when the row was not upgraded.
	UpgradeByID(ctx context.Context, id uuid.UUID, status models.ProtectionStatus, notes string) (*models.ProtectionItem, bool, error)
}

type protectionItemRepository struct{}

// NewProtectionItemRepository creates a new protection item repository.
func NewProtectionItemRepository() ProtectionItemRepository {
	return &protectionItemRepository{}
}

var _ ProtectionItemRepository = (*protectionItemRepository)(nil)

const protectionItemColumns = `id, project_id, item_type, item_name, category, status, notes, created_at, updated_at`

func (r *protectionItemRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT ` + protectionItemColumns + `
		FROM protection_items
		WHERE project_id = $1
		ORDER BY protection_status_priority(status), item_type`

	rows, err := scope.Conn.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list protection items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.ProtectionItem, 0)
	for rows.Next() {
		item, err := scanProtectionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan protection item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating protection items: %w", err)
	}
	return items, nil
}

func (r *protectionItemRepository) GetByType(ctx context.Context, projectID uuid.UUID, itemType string) (*models.ProtectionItem, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT ` + protectionItemColumns + `
		FROM protection_items
		WHERE project_id = $1 AND item_type = $2`

	item, err := scanProtectionItem(scope.Conn.QueryRow(ctx, query, projectID, itemType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get protection item: %w", err)
	}
	return item, nil
}

func (r *protectionItemRepository) FindByNameMatch(ctx context.Context, projectID uuid.UUID, name string) (*models.ProtectionItem, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.ErrNotFound
	}

	query := `
		SELECT ` + protectionItemColumns + `
		FROM protection_items
		WHERE project_id = $1 AND item_name ILIKE '%' || $2 || '%'
		ORDER BY created_at, id
		LIMIT 1`

	item, err := scanProtectionItem(scope.Conn.QueryRow(ctx, query, projectID, escapeLike(name)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to match protection item by name: %w", err)
	}
	return item, nil
}

func (r *protectionItemRepository) UpsertUpgrade(ctx context.Context, item *models.ProtectionItem) (*models.ProtectionItem, models.UpsertOutcome, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, "", fmt.Errorf("no tenant scope in context")
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO protection_items (` + protectionItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (project_id, item_type) DO UPDATE
		SET status = EXCLUDED.status,
		    notes = EXCLUDED.notes,
		    updated_at = EXCLUDED.updated_at
		WHERE protection_status_priority(EXCLUDED.status) < protection_status_priority(protection_items.status)
		RETURNING ` + protectionItemColumns + `, (xmax = 0) AS inserted`

	var inserted bool
	stored, err := scanProtectionItem(scope.Conn.QueryRow(ctx, query,
		item.ID,
		item.ProjectID,
		item.ItemType,
		item.ItemName,
		item.Category,
		string(item.Status),
		item.Notes,
		now,
	), &inserted)
	if err == nil {
		if inserted {
			return stored, models.OutcomeCreated, nil
		}
		return stored, models.OutcomeUpgraded, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("failed to upsert protection item: %w", err)
	}

	// Conflict with a row that is already as urgent or more.
	current, err := r.GetByType(ctx, item.ProjectID, item.ItemType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read unchanged protection item: %w", err)
	}
	return current, models.OutcomeUnchanged, nil
}

func (r *protectionItemRepository) UpgradeByID(ctx context.Context, id uuid.UUID, status models.ProtectionStatus, notes string) (*models.ProtectionItem, bool, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, false, fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE protection_items
		SET status = $2,
		    notes = $3,
		    updated_at = $4
		WHERE id = $1
		  AND protection_status_priority($2) < protection_status_priority(status)
		RETURNING ` + protectionItemColumns

	item, err := scanProtectionItem(scope.Conn.QueryRow(ctx, query, id, string(status), notes, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to upgrade protection item: %w", err)
	}
	return item, true, nil
}

func scanProtectionItem(row pgx.Row, extra ...any) (*models.ProtectionItem, error) {
	var item models.ProtectionItem
	var status string
	dest := []any{
		&item.ID,
		&item.ProjectID,
		&item.ItemType,
		&item.ItemName,
		&item.Category,
		&status,
		&item.Notes,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	item.Status = models.ProtectionStatus(status)
	return &item, nil
}

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
