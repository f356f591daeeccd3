package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

// TenantMiddleware is a function that wraps a handler with tenant context.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// ProtectionItemResponse is one row of GET /api/projects/{pid}/protection-items.
type ProtectionItemResponse struct {
	ItemKey     string    `json:"item_key"`
	ItemName    string    `json:"item_name"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectsHandler serves the read side of a project: the project itself,
// its protection items and its evidence trail.
type ProjectsHandler struct {
	projects services.ProjectService
	items    services.ProtectionItemService
	sessions services.SessionLogger
	catalog  *discovery.Catalog
	logger   *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(
	projects services.ProjectService,
	items services.ProtectionItemService,
	sessions services.SessionLogger,
	catalog *discovery.Catalog,
	logger *zap.Logger,
) *ProjectsHandler {
	return &ProjectsHandler{
		projects: projects,
		items:    items,
		sessions: sessions,
		catalog:  catalog,
		logger:   logger.Named("projects"),
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("GET /api/projects/{pid}",
		authMiddleware.RequireAuthWithPathValidation("pid")(tenantMiddleware(h.Get)))
	mux.HandleFunc("GET /api/projects/{pid}/protection-items",
		authMiddleware.RequireAuthWithPathValidation("pid")(tenantMiddleware(h.ListProtectionItems)))
	mux.HandleFunc("GET /api/projects/{pid}/evidence",
		authMiddleware.RequireAuthWithPathValidation("pid")(tenantMiddleware(h.ListEvidence)))
}

// Get handles GET /api/projects/{pid}
// Returns the project details.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projects.GetForUser(r.Context(), projectID, auth.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "get project", zap.String("project_id", projectID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: project}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListProtectionItems handles GET /api/projects/{pid}/protection-items
// Items are ordered most urgent first.
func (h *ProjectsHandler) ListProtectionItems(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.projects.GetForUser(r.Context(), projectID, auth.GetUserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, h.logger, err, "get project", zap.String("project_id", projectID.String()))
		return
	}

	items, err := h.items.List(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list protection items", zap.String("project_id", projectID.String()))
		return
	}

	resp := make([]ProtectionItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, h.toProtectionItemResponse(item))
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListEvidence handles GET /api/projects/{pid}/evidence?limit=N
// Events are returned newest first.
func (h *ProjectsHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.projects.GetForUser(r.Context(), projectID, auth.GetUserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, h.logger, err, "get project", zap.String("project_id", projectID.String()))
		return
	}

	events, err := h.sessions.Recent(r.Context(), projectID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "list evidence events", zap.String("project_id", projectID.String()))
		return
	}
	if events == nil {
		events = []*models.EvidenceEvent{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: events}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ProjectsHandler) toProtectionItemResponse(item *models.ProtectionItem) ProtectionItemResponse {
	resp := ProtectionItemResponse{
		ItemKey:   item.ItemType,
		ItemName:  item.ItemName,
		Category:  item.Category,
		Status:    string(item.Status),
		Priority:  item.Status.Priority(),
		Notes:     item.Notes,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if h.catalog != nil {
		if entry, ok := h.catalog.Lookup(item.ItemType); ok {
			resp.Description = entry.Description
		}
	}
	return resp
}
