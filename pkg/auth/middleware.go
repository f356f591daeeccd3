package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates authentication logic to AuthService.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth validates JWT and requires a valid project ID.
// Use this for endpoints that have no project ID in the URL.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuthWithPathValidation("")(next)
}

// RequireAuthWithPathValidation validates JWT and matches the URL path
// project ID to the token. An empty pathParamName skips the match.
func (m *Middleware) RequireAuthWithPathValidation(pathParamName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, token, err := m.authService.ValidateRequest(r)
			if err != nil {
				m.logger.Debug("Authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			if err := m.authService.RequireProjectID(claims); err != nil {
				writeAuthError(w, http.StatusBadRequest, "bad_request", "Missing project ID in token")
				return
			}

			if pathParamName != "" {
				if err := m.authService.ValidateProjectIDMatch(claims, r.PathValue(pathParamName)); err != nil {
					m.logger.Warn("Project ID mismatch",
						zap.String("url_project_id", r.PathValue(pathParamName)),
						zap.String("token_project_id", claims.ProjectID))
					writeAuthError(w, http.StatusForbidden, "forbidden", "Project ID mismatch between token and URL")
					return
				}
			}

			next(w, r.WithContext(WithClaims(r.Context(), claims, token)))
		}
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
