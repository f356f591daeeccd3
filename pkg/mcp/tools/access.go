// Package tools provides the LaunchReady MCP tools.
package tools

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// ToolAccessError is an actionable error returned to the MCP client as a
// tool result rather than a protocol error, so the agent can see it.
type ToolAccessError struct {
	Code    string
	Message string
	// MCPResult contains the pre-built MCP response for this error
	MCPResult *mcp.CallToolResult
}

func (e *ToolAccessError) Error() string {
	return e.Message
}

// AsToolAccessResult returns the prepared result when err is a ToolAccessError.
//
//	projectID, ctx, cleanup, err := AcquireProjectAccess(ctx, scopes)
//	if err != nil {
//	    if result := AsToolAccessResult(err); result != nil {
//	        return result, nil
//	    }
//	    return nil, err
//	}
func AsToolAccessResult(err error) *mcp.CallToolResult {
	var accessErr *ToolAccessError
	if errors.As(err, &accessErr) {
		return accessErr.MCPResult
	}
	return nil
}

func newToolAccessError(code, message string) *ToolAccessError {
	return &ToolAccessError{
		Code:      code,
		Message:   message,
		MCPResult: NewErrorResult(code, message),
	}
}

// ProjectFromClaims resolves the caller's project and user from the JWT
// claims the MCP auth middleware put in ctx.
func ProjectFromClaims(ctx context.Context) (uuid.UUID, string, error) {
	claims, ok := auth.GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, "", newToolAccessError("authentication_required", "authentication required")
	}

	projectID, err := uuid.Parse(claims.ProjectID)
	if err != nil {
		return uuid.Nil, "", newToolAccessError("invalid_project_id", "token carries an invalid project ID")
	}
	return projectID, claims.Subject, nil
}

// AcquireProjectAccess opens a tenant scope for the caller's project and
// stamps MCP provenance on the returned context. The cleanup function must
// be called.
func AcquireProjectAccess(ctx context.Context, scopes database.ScopeProvider) (uuid.UUID, context.Context, func(), error) {
	projectID, userID, err := ProjectFromClaims(ctx)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}

	tenantCtx, cleanup, err := database.EnsureTenantScope(ctx, scopes, projectID)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}

	tenantCtx = models.WithProvenance(tenantCtx, models.ProvenanceContext{
		Source: models.SourceMCP,
		UserID: userID,
	})
	return projectID, tenantCtx, cleanup, nil
}
