package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
)

// ApiResponse is the standard envelope for read endpoints.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a service error to a status code and writes it.
// Unexpected errors are logged and reported as 500 without details.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, operation string, fields ...zap.Field) {
	status, code, message := http.StatusInternalServerError, "internal_error", "Failed to "+operation

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "Project not found"
	case errors.Is(err, apperrors.ErrForbidden):
		status, code, message = http.StatusForbidden, "forbidden", "Access to this project is not allowed"
	case errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "conflict", err.Error()
	default:
		logger.Error("Failed to "+operation,
			append(fields, zap.String("error", logging.SanitizeError(err)))...)
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
