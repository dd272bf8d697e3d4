package handler

import (
	"log/slog"
	"net/http"

	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/httputil"
)

// SyncHandler triggers CRM entity synchronization.
type SyncHandler struct {
	engine gedSvc.IntegrationEngine
	logger *slog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine gedSvc.IntegrationEngine, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, logger: logger}
}

// Sync refreshes the entity registry from the CRM source. The folder tree
// is not reconciled here; callers follow up with GET /api/tree/validate.
// POST /api/sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.SyncEntities(r.Context())
	if err != nil {
		h.logger.Error("CRM sync failed", "error", err, "requested_by", httputil.GetUserID(r))
		httputil.RespondError(w, http.StatusBadGateway, "CRM sync failed")
		return
	}

	h.logger.Info("sync requested", "requested_by", httputil.GetUserID(r))
	httputil.RespondJSON(w, http.StatusOK, result)
}
