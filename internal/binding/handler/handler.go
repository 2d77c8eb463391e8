// Package handler exposes template binding and provider detail management
// over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"relay/internal/binding/models"
	"relay/internal/binding/service"
	"relay/internal/platform/metrics"
	domainerrors "relay/pkg/domain-errors"
	"relay/pkg/platform/httputil"
	"relay/pkg/platform/middleware/auth"
)

// Service defines the binding operations the handler depends on.
type Service interface {
	CreateBinding(ctx context.Context, binding *models.TemplateBinding, actor string) (*models.TemplateBinding, error)
	UpdateBinding(ctx context.Context, binding *models.TemplateBinding, actor string) (*models.TemplateBinding, error)
	SearchBindings(ctx context.Context, criteria models.BindingSearchCriteria) (*service.BindingSearchResult, error)
	CreateProvider(ctx context.Context, provider *models.ProviderDetail, actor string) (*models.ProviderDetail, error)
	UpdateProvider(ctx context.Context, provider *models.ProviderDetail, actor string) (*models.ProviderDetail, error)
	SearchProviders(ctx context.Context, criteria models.ProviderSearchCriteria) (*service.ProviderSearchResult, error)
	Resolve(ctx context.Context, eventName, tenantID string) (*models.ResolvedBinding, error)
}

// Handler handles binding and provider endpoints.
type Handler struct {
	svc     Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a binding Handler.
func New(svc Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

// Register mounts the binding and provider routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/config/v1/binding/_create", h.handleCreateBinding)
	r.Post("/config/v1/binding/_update", h.handleUpdateBinding)
	r.Post("/config/v1/binding/_search", h.handleSearchBindings)
	r.Post("/config/v1/binding/_resolve", h.handleResolve)
	r.Post("/config/v1/provider/_create", h.handleCreateProvider)
	r.Post("/config/v1/provider/_update", h.handleUpdateProvider)
	r.Post("/config/v1/provider/_search", h.handleSearchProviders)
}

// BindingRequest wraps a single binding submission.
type BindingRequest struct {
	TemplateBinding *models.TemplateBinding `json:"templateBinding"`
}

// BindingResponse wraps a single binding result.
type BindingResponse struct {
	TemplateBinding *models.TemplateBinding `json:"templateBinding"`
}

// ProviderRequest wraps a single provider submission.
type ProviderRequest struct {
	ProviderDetail *models.ProviderDetail `json:"providerDetail"`
}

// ProviderResponse wraps a single provider result.
type ProviderResponse struct {
	ProviderDetail *models.ProviderDetail `json:"providerDetail"`
}

// ResolveRequest carries the binding resolution selectors.
type ResolveRequest struct {
	EventName string `json:"eventName"`
	TenantID  string `json:"tenantId"`
}

func (h *Handler) handleCreateBinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("binding_create", time.Now())

	req, ok := httputil.DecodeJSON[BindingRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.TemplateBinding == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "templateBinding is required"))
		return
	}

	created, err := h.svc.CreateBinding(ctx, req.TemplateBinding, auth.Subject(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create template binding", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, BindingResponse{TemplateBinding: created})
}

func (h *Handler) handleUpdateBinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("binding_update", time.Now())

	req, ok := httputil.DecodeJSON[BindingRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.TemplateBinding == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "templateBinding is required"))
		return
	}

	updated, err := h.svc.UpdateBinding(ctx, req.TemplateBinding, auth.Subject(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update template binding",
			"id", req.TemplateBinding.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BindingResponse{TemplateBinding: updated})
}

func (h *Handler) handleSearchBindings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("binding_search", time.Now())

	criteria, ok := httputil.DecodeJSON[models.BindingSearchCriteria](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.svc.SearchBindings(ctx, *criteria)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search template bindings", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if result.Bindings == nil {
		result.Bindings = []*models.TemplateBinding{}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("binding_resolve", time.Now())

	req, ok := httputil.DecodeJSON[ResolveRequest](w, r, h.logger)
	if !ok {
		return
	}

	resolved, err := h.svc.Resolve(ctx, req.EventName, req.TenantID)
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeBindingNotResolved) {
			h.logger.WarnContext(ctx, "binding resolution miss",
				"event_name", req.EventName,
				"tenant_id", req.TenantID,
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to resolve template binding", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("provider_create", time.Now())

	req, ok := httputil.DecodeJSON[ProviderRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ProviderDetail == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "providerDetail is required"))
		return
	}

	created, err := h.svc.CreateProvider(ctx, req.ProviderDetail, auth.Subject(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create provider detail", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ProviderResponse{ProviderDetail: created})
}

func (h *Handler) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("provider_update", time.Now())

	req, ok := httputil.DecodeJSON[ProviderRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ProviderDetail == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "providerDetail is required"))
		return
	}

	updated, err := h.svc.UpdateProvider(ctx, req.ProviderDetail, auth.Subject(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update provider detail",
			"id", req.ProviderDetail.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProviderResponse{ProviderDetail: updated})
}

func (h *Handler) handleSearchProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("provider_search", time.Now())

	criteria, ok := httputil.DecodeJSON[models.ProviderSearchCriteria](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.svc.SearchProviders(ctx, *criteria)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search provider details", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if result.Providers == nil {
		result.Providers = []*models.ProviderDetail{}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) observe(endpoint string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveEndpointLatency(endpoint, time.Since(start).Seconds())
	}
}
