package handler

import (
	"log/slog"
	"net/http"

	models "lexged/internal/domain/models/ged"
	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/httputil"
)

// TemplateHandler exposes the template catalog.
type TemplateHandler struct {
	engine  gedSvc.IntegrationEngine
	catalog gedSvc.TemplateCatalog
	logger  *slog.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(engine gedSvc.IntegrationEngine, catalog gedSvc.TemplateCatalog, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{engine: engine, catalog: catalog, logger: logger}
}

// ListTemplates returns every template, built-ins first.
// GET /api/templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list templates", "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

// captureRequest is the body of POST /api/templates.
type captureRequest struct {
	FolderID string `json:"folder_id"`
	Name     string `json:"name"`
}

// CaptureTemplate freezes an existing folder's structure into a new custom
// template.
// POST /api/templates
func (h *TemplateHandler) CaptureTemplate(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FolderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	tmpl, err := withConflictRetry(r.Context(), func() (*models.FolderTemplate, error) {
		return h.engine.SaveFolderAsTemplate(r.Context(), req.FolderID, req.Name)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, tmpl)
}
