package handler

import (
	"log/slog"
	"net/http"

	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/httputil"
)

// TreeHandler serves walk-derived views of the folder forest and the
// validation report.
type TreeHandler struct {
	engine gedSvc.IntegrationEngine
	logger *slog.Logger
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(engine gedSvc.IntegrationEngine, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{engine: engine, logger: logger}
}

// HealthCheck responds 200 for liveness probes.
// GET /health
func (h *TreeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTree returns a snapshot of the whole folder forest.
// GET /api/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.engine.Tree(r.Context())
	if err != nil {
		h.logger.Error("failed to load tree", "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// Validate runs the structure validation pass and returns the issues found.
// GET /api/tree/validate
func (h *TreeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.ValidateFolderStructure(r.Context())
	if err != nil {
		h.logger.Error("validation pass failed", "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report)
}
