package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantScope is a pooled connection with app.current_project_id set, which
// the row-level security policies on every project table filter by.
type TenantScope struct {
	Conn      *pgxpool.Conn
	ProjectID uuid.UUID
}

// Close resets the tenant setting and releases the connection.
// It must be called so the setting never leaks to the next borrower.
func (s *TenantScope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_project_id")
	s.Conn.Release()
	s.Conn = nil
}

// WithTenant acquires a connection scoped to projectID.
// Callers must defer scope.Close().
func (db *DB) WithTenant(ctx context.Context, projectID uuid.UUID) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT set_config('app.current_project_id', $1, false)", projectID.String()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("set tenant: %w", err)
	}

	return &TenantScope{Conn: conn, ProjectID: projectID}, nil
}

// ErrNoIdleConnection is returned by TryWithTenant when a scope could only be
// opened by waiting for another borrower to release a connection.
var ErrNoIdleConnection = errors.New("no idle database connection")

// tryAcquireTimeout bounds a TryWithTenant acquire that raced another
// borrower for the last free slot.
const tryAcquireTimeout = 250 * time.Millisecond

// TryWithTenant acquires a connection scoped to projectID only when the pool
// has a free slot. It never queues behind other borrowers; ErrNoIdleConnection
// means the caller should carry on with the connection it already holds.
// Callers must defer scope.Close().
func (db *DB) TryWithTenant(ctx context.Context, projectID uuid.UUID) (*TenantScope, error) {
	stat := db.Pool.Stat()
	if stat.AcquiredConns()+stat.ConstructingConns() >= stat.MaxConns() {
		return nil, ErrNoIdleConnection
	}

	acquireCtx, cancel := context.WithTimeout(ctx, tryAcquireTimeout)
	defer cancel()

	scope, err := db.WithTenant(acquireCtx, projectID)
	if err != nil {
		if ctx.Err() == nil && errors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrNoIdleConnection
		}
		return nil, err
	}
	return scope, nil
}

// WithoutTenant acquires a connection with no tenant set; every row is visible.
// Used by operator tooling. Callers must defer scope.Close().
func (db *DB) WithoutTenant(ctx context.Context) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &TenantScope{Conn: conn}, nil
}
