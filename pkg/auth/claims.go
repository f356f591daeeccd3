// Package auth validates LaunchReady JWTs against JWKS endpoints and exposes
// the resulting claims to handlers through the request context.
package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims are the LaunchReady token claims. Subject is the founder's user id;
// pid scopes the token to one project.
type Claims struct {
	jwt.RegisteredClaims
	ProjectID string   `json:"pid,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// HasAudience reports whether aud is one of the token's audiences.
func (c *Claims) HasAudience(aud string) bool {
	return slices.Contains(c.Audience, aud)
}

// WithClaims stores claims and the raw token in ctx.
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, TokenKey, token)
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// ExtractClaimsFromContext extracts project ID and user ID from JWT claims in context.
// Returns error if not authenticated or claims are invalid.
func ExtractClaimsFromContext(ctx context.Context) (uuid.UUID, string, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, "", fmt.Errorf("authentication required: no claims in context")
	}

	if claims.ProjectID == "" {
		return uuid.Nil, "", fmt.Errorf("missing project ID in JWT claims")
	}

	projectID, err := uuid.Parse(claims.ProjectID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid project ID format: %w", err)
	}

	if claims.Subject == "" {
		return uuid.Nil, "", fmt.Errorf("missing user ID in JWT claims")
	}

	return projectID, claims.Subject, nil
}
