package database

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TenantScopeKey is the context key for storing the tenant-scoped database connection.
	TenantScopeKey contextKey = "tenantScope"
)

// GetTenantScope retrieves the tenant-scoped database connection from context.
// Returns nil and false if not present.
func GetTenantScope(ctx context.Context) (*TenantScope, bool) {
	scope, ok := ctx.Value(TenantScopeKey).(*TenantScope)
	return scope, ok
}

// SetTenantScope stores the tenant-scoped database connection in context.
func SetTenantScope(ctx context.Context, scope *TenantScope) context.Context {
	return context.WithValue(ctx, TenantScopeKey, scope)
}

// ScopeProvider creates tenant-scoped contexts for entry points that do not
// pass through the HTTP tenant middleware (voice webhook, MCP, CLI).
type ScopeProvider interface {
	WithTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error)
}

// WorkerScopeProvider opens extra tenant scopes for helpers of a request that
// already holds one. TryTenantScope must not wait on the pool: it returns
// ErrNoIdleConnection when no connection is free.
type WorkerScopeProvider interface {
	TryTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error)
}

// TenantScopeProvider is the pool-backed ScopeProvider.
type TenantScopeProvider struct {
	db *DB
}

var (
	_ ScopeProvider       = (*TenantScopeProvider)(nil)
	_ WorkerScopeProvider = (*TenantScopeProvider)(nil)
)

// NewTenantScopeProvider creates a TenantScopeProvider for the given database.
func NewTenantScopeProvider(db *DB) *TenantScopeProvider {
	return &TenantScopeProvider{db: db}
}

// WithTenantScope returns a context holding a fresh tenant scope for projectID.
// Any scope already in ctx is shadowed, not reused.
// The cleanup function must be called when the scope is no longer needed.
func (p *TenantScopeProvider) WithTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
	scope, err := p.db.WithTenant(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return SetTenantScope(ctx, scope), func() { scope.Close() }, nil
}

// TryTenantScope is WithTenantScope without waiting for a free connection.
func (p *TenantScopeProvider) TryTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
	scope, err := p.db.TryWithTenant(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return SetTenantScope(ctx, scope), func() { scope.Close() }, nil
}

// EnsureTenantScope returns ctx unchanged when it already carries a scope,
// otherwise opens one through provider.
func EnsureTenantScope(ctx context.Context, provider ScopeProvider, projectID uuid.UUID) (context.Context, func(), error) {
	if _, ok := GetTenantScope(ctx); ok {
		return ctx, func() {}, nil
	}
	return provider.WithTenantScope(ctx, projectID)
}
