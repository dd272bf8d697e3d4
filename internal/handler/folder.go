package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	models "lexged/internal/domain/models/ged"
	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/httputil"
)

// FolderHandler exposes the entity-folder lifecycle operations.
type FolderHandler struct {
	engine gedSvc.IntegrationEngine
	logger *slog.Logger
}

// NewFolderHandler creates a new folder handler.
func NewFolderHandler(engine gedSvc.IntegrationEngine, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{engine: engine, logger: logger}
}

// createFolderRequest is the body of POST /api/entities/{id}/folder.
type createFolderRequest struct {
	TemplateID string `json:"template_id,omitempty"`
}

// CreateEntityFolder creates the root folder for an entity, optionally
// stamped from a template. Returns 409 if the entity already has one.
// POST /api/entities/{id}/folder
func (h *FolderHandler) CreateEntityFolder(w http.ResponseWriter, r *http.Request) {
	entityID := r.PathValue("id")
	if entityID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "entity id is required")
		return
	}

	// An empty body means "no template". ContentLength is unreliable with
	// chunked encoding, so decode unconditionally and treat EOF as no body.
	var req createFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := withConflictRetry(r.Context(), func() (*models.FolderNode, error) {
		return h.engine.CreateFolderFromTemplate(r.Context(), req.TemplateID, entityID)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// DeleteEntityFolder archives or deletes an entity's folder subtree.
// DELETE /api/entities/{id}/folder?action=archive|delete|transfer
func (h *FolderHandler) DeleteEntityFolder(w http.ResponseWriter, r *http.Request) {
	entityID := r.PathValue("id")
	if entityID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "entity id is required")
		return
	}

	action := gedSvc.DeleteAction(r.URL.Query().Get("action"))
	if action == "" {
		action = gedSvc.ActionArchive
	}

	_, err := withConflictRetry(r.Context(), func() (struct{}, error) {
		return struct{}{}, h.engine.DeleteEntityFolder(r.Context(), entityID, action)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// transferRequest is the body of POST /api/entities/{id}/transfer.
type transferRequest struct {
	ToEntityID string `json:"to_entity_id"`
}

// TransferDocuments moves an entity's documents and folder subtree to a
// destination entity.
// POST /api/entities/{id}/transfer
func (h *FolderHandler) TransferDocuments(w http.ResponseWriter, r *http.Request) {
	fromEntityID := r.PathValue("id")
	if fromEntityID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "entity id is required")
		return
	}

	var req transferRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ToEntityID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "to_entity_id is required")
		return
	}

	result, err := withConflictRetry(r.Context(), func() (*gedSvc.TransferResult, error) {
		return h.engine.TransferDocuments(r.Context(), fromEntityID, req.ToEntityID)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
