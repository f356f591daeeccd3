package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetUserIDFromContext returns the JWT subject, or "" when unauthenticated.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}

// GetProjectIDFromContext returns the token's project, or uuid.Nil when
// unauthenticated or the pid claim is not a UUID.
func GetProjectIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil || claims.ProjectID == "" {
		return uuid.Nil
	}

	projectID, err := uuid.Parse(claims.ProjectID)
	if err != nil {
		return uuid.Nil
	}
	return projectID
}

// RequireUserIDFromContext extracts the user ID from context and returns an error if not found.
func RequireUserIDFromContext(ctx context.Context) (string, error) {
	userID := GetUserIDFromContext(ctx)
	if userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RequireProjectIDFromContext extracts the project ID from context and returns an error if not found.
func RequireProjectIDFromContext(ctx context.Context) (uuid.UUID, error) {
	projectID := GetProjectIDFromContext(ctx)
	if projectID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("project ID not found in context")
	}
	return projectID, nil
}
