package transport

import (
	"net/http"

	"parts-bot/internal/catalog"
	"parts-bot/internal/middleware"
	"parts-bot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ImportRequest is the bulk import payload: rows of (code, quantity).
// Only the batch shape is validated here; individual rows are checked
// by the import itself so one bad row never rejects the whole batch.
type ImportRequest struct {
	Rows []service.ImportRow `json:"rows" validate:"required,min=1"`
}

// OpsHandler exposes the operational HTTP API: catalog inspection,
// forced refresh, and bulk cart import.
type OpsHandler struct {
	catalog *catalog.Cache
	bot     service.BotService
	logger  *zap.Logger
}

// NewOpsHandler creates a new OpsHandler
func NewOpsHandler(cat *catalog.Cache, bot service.BotService, logger *zap.Logger) *OpsHandler {
	return &OpsHandler{
		catalog: cat,
		bot:     bot,
		logger:  logger,
	}
}

// RegisterRoutes registers all operational routes
func (h *OpsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/models", h.Models)
		r.Post("/refresh", h.Refresh)
	})

	r.Post("/api/users/{userID}/import", h.Import)
}

// Stats reports the current snapshot without triggering a refresh
func (h *OpsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.Stats())
}

// Models lists the distinct model tags of the current snapshot
func (h *OpsHandler) Models(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.catalog.ModelTags(r.Context()),
	})
}

// Refresh forces a catalog reload regardless of staleness
func (h *OpsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.ForceRefresh(r.Context()); err != nil {
		h.logger.Warn("forced refresh failed", zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
			"refreshed": false,
			"stats":     h.catalog.Stats(),
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": true,
		"stats":     h.catalog.Stats(),
	})
}

// Import adds rows of (code, quantity) to a user's cart. Per-row
// failures are reported in the response; the batch never aborts.
func (h *OpsHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req ImportRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if errs := middleware.FormatValidationErrors(err); len(errs) > 0 {
			middleware.RespondWithValidationErrors(w, r, errs)
			return
		}
		middleware.RespondWithJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid import payload",
		})
		return
	}

	report := h.bot.ImportRows(r.Context(), userID, req.Rows)

	h.logger.Info("bulk import completed",
		zap.String("user_id", userID),
		zap.Int("added", report.Added),
		zap.Int("failed", len(report.Failures)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, report)
}
