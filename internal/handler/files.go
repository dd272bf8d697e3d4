package handler

import (
	"log/slog"
	"net/http"

	models "lexged/internal/domain/models/ged"
	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/httputil"
)

// FileHandler exposes the file-registry operations.
type FileHandler struct {
	engine gedSvc.IntegrationEngine
	logger *slog.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(engine gedSvc.IntegrationEngine, logger *slog.Logger) *FileHandler {
	return &FileHandler{engine: engine, logger: logger}
}

// RegisterFile records an uploaded document, optionally linked right away.
// POST /api/files
func (h *FileHandler) RegisterFile(w http.ResponseWriter, r *http.Request) {
	var req gedSvc.RegisterFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := withConflictRetry(r.Context(), func() (*models.FileRecord, error) {
		return h.engine.RegisterFile(r.Context(), &req)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, record)
}

// linkRequest is the body of POST /api/files/{id}/link.
type linkRequest struct {
	EntityID string `json:"entity_id"`
}

// LinkDocument associates a file with an entity.
// POST /api/files/{id}/link
func (h *FileHandler) LinkDocument(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("id")
	if fileID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "file id is required")
		return
	}

	var req linkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EntityID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "entity_id is required")
		return
	}

	record, err := withConflictRetry(r.Context(), func() (*models.FileRecord, error) {
		return h.engine.LinkDocumentToEntity(r.Context(), fileID, req.EntityID)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, record)
}
