package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// TenantContextFunc acquires a tenant-scoped database connection.
// Returns the scoped context, a cleanup function (MUST be called), and any error.
type TenantContextFunc func(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error)

var _ database.ScopeProvider = TenantContextFunc(nil)

// WithTenantScope lets a plain function serve as a database.ScopeProvider.
func (f TenantContextFunc) WithTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
	return f(ctx, projectID)
}

// NewTenantContextFunc creates a TenantContextFunc that uses the given database.
func NewTenantContextFunc(db *database.DB) TenantContextFunc {
	return database.NewTenantScopeProvider(db).WithTenantScope
}

// WithProvenanceWrapper stamps every scoped context with the given source and
// actor. Entry points that open scopes themselves (MCP, CLI) use it so the
// session logger can attribute the pass.
func WithProvenanceWrapper(inner TenantContextFunc, source models.ProvenanceSource, userID string) TenantContextFunc {
	return func(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
		tenantCtx, cleanup, err := inner(ctx, projectID)
		if err != nil {
			return nil, nil, err
		}
		return models.WithProvenance(tenantCtx, models.ProvenanceContext{Source: source, UserID: userID}), cleanup, nil
	}
}
