// Package handler exposes the config store over HTTP. The surface follows
// the action-suffix convention of the upstream platform (_create, _update,
// _search, _resolve).
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"relay/internal/configstore/models"
	"relay/internal/configstore/service"
	"relay/internal/platform/metrics"
	domainerrors "relay/pkg/domain-errors"
	"relay/pkg/platform/httputil"
	"relay/pkg/platform/middleware/auth"
)

// Service defines the config operations the handler depends on.
type Service interface {
	Create(ctx context.Context, entry *models.ConfigEntry, actor string) (*models.ConfigEntry, error)
	Update(ctx context.Context, entry *models.ConfigEntry, actor string) (*models.ConfigEntry, error)
	Get(ctx context.Context, id string) (*models.ConfigEntry, error)
	Search(ctx context.Context, criteria models.SearchCriteria) (*service.SearchResult, error)
	Resolve(ctx context.Context, params models.ResolveParams) (*models.ResolvedEntry, error)
}

// Handler handles config entry endpoints.
type Handler struct {
	svc     Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a config Handler.
func New(svc Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

// Register mounts the config routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/config/v1/entry/_create", h.handleCreate)
	r.Post("/config/v1/entry/_update", h.handleUpdate)
	r.Post("/config/v1/entry/_search", h.handleSearch)
	r.Post("/config/v1/entry/_resolve", h.handleResolve)
}

// EntryRequest wraps a single config entry submission.
type EntryRequest struct {
	ConfigEntry *models.ConfigEntry `json:"configEntry"`
}

// EntryResponse wraps a single config entry result.
type EntryResponse struct {
	ConfigEntry *models.ConfigEntry `json:"configEntry"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("config_create", time.Now())

	req, ok := httputil.DecodeJSON[EntryRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ConfigEntry == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "configEntry is required"))
		return
	}

	created, err := h.svc.Create(ctx, req.ConfigEntry, auth.Subject(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create config entry", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, EntryResponse{ConfigEntry: created})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("config_update", time.Now())

	req, ok := httputil.DecodeJSON[EntryRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ConfigEntry == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "configEntry is required"))
		return
	}

	updated, err := h.svc.Update(ctx, req.ConfigEntry, auth.Subject(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update config entry",
			"id", req.ConfigEntry.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EntryResponse{ConfigEntry: updated})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("config_search", time.Now())

	criteria, ok := httputil.DecodeJSON[models.SearchCriteria](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.svc.Search(ctx, *criteria)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search config entries", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if result.Entries == nil {
		result.Entries = []*models.ConfigEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("config_resolve", time.Now())

	params, ok := httputil.DecodeJSON[models.ResolveParams](w, r, h.logger)
	if !ok {
		return
	}

	resolved, err := h.svc.Resolve(ctx, *params)
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeConfigNotResolved) {
			h.logger.WarnContext(ctx, "config resolution miss",
				"config_code", params.ConfigCode,
				"tenant_id", params.TenantID,
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to resolve config entry", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) observe(endpoint string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveEndpointLatency(endpoint, time.Since(start).Seconds())
	}
}
