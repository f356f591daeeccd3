package database

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
)

// WithTenantContext creates middleware that sets up a tenant-scoped DB connection.
// It runs after auth middleware. The project comes from the {pid} path value
// when the route has one, otherwise from the JWT claims.
func WithTenantContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawID := r.PathValue("pid")
			if rawID == "" {
				if claims, ok := auth.GetClaims(r.Context()); ok {
					rawID = claims.ProjectID
				}
			}
			if rawID == "" {
				logger.Error("Missing project context")
				writeError(w, http.StatusInternalServerError, "internal_error", "Missing project context")
				return
			}

			projectID, err := uuid.Parse(rawID)
			if err != nil {
				logger.Warn("Invalid project ID format",
					zap.String("project_id", rawID),
					zap.Error(err))
				writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
				return
			}

			scope, err := db.WithTenant(r.Context(), projectID)
			if err != nil {
				logger.Error("Failed to acquire tenant connection",
					zap.String("project_id", projectID.String()),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			next(w, r.WithContext(SetTenantScope(r.Context(), scope)))
		}
	}
}

func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
