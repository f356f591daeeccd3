package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

// maxDiscoveryBodyBytes bounds discovery and webhook payloads.
const maxDiscoveryBodyBytes = 1 << 20

// DiscoveryRequestBody is the JSON body of POST /api/projects/{pid}/discovery.
type DiscoveryRequestBody struct {
	Transcript string                 `json:"transcript"`
	Summary    string                 `json:"summary"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// DiscoveryHandler runs discovery passes for authenticated users.
type DiscoveryHandler struct {
	discovery services.DiscoveryService
	logger    *zap.Logger
}

// NewDiscoveryHandler creates a new discovery handler.
func NewDiscoveryHandler(discovery services.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discovery: discovery,
		logger:    logger.Named("discovery"),
	}
}

// RegisterRoutes registers the discovery handler's routes on the given mux.
func (h *DiscoveryHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/projects/{pid}/discovery",
		authMiddleware.RequireAuthWithPathValidation("pid")(tenantMiddleware(h.Discover)))
}

// Discover handles POST /api/projects/{pid}/discovery
// Classifies the posted text and reconciles the Findings into the project.
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var body DiscoveryRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDiscoveryBodyBytes)).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req := &models.DiscoveryRequest{
		ProjectID:  projectID,
		Transcript: body.Transcript,
		Summary:    body.Summary,
		Metadata:   body.Metadata,
		Source:     models.SourceDiscoveryAPI,
		UserID:     auth.GetUserIDFromContext(r.Context()),
	}

	outcome, err := h.discovery.Process(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "run discovery", zap.String("project_id", projectID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, outcome); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
