// Package handler exposes the dispatch pipeline over HTTP for operational
// use: dry-running an event through resolution without delivery, and firing
// an ad-hoc provider trigger.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"relay/internal/dispatch/models"
	"relay/internal/platform/metrics"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
	"relay/pkg/platform/httputil"
)

// Service defines the dispatch operations the handler depends on.
type Service interface {
	Process(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error)
	TestTrigger(ctx context.Context, templateKey, subscriberID, phone string, payload document.Document, transactionID, contentSid string, contentVariables map[string]string) (*models.TriggerResponse, error)
}

// Handler handles dispatch endpoints.
type Handler struct {
	svc     Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a dispatch Handler.
func New(svc Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

// Register mounts the dispatch routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/dispatch/v1/_dryrun", h.handleDryRun)
	r.Post("/dispatch/v1/_trigger", h.handleTrigger)
}

// DryRunRequest carries an event through the pipeline. Send defaults to
// false; setting it true delivers for real, same as the consumer path.
type DryRunRequest struct {
	Event *models.DomainEvent `json:"event"`
	Send  bool                `json:"send,omitempty"`
}

// TriggerRequest fires the provider directly, bypassing resolution.
type TriggerRequest struct {
	TemplateKey      string            `json:"templateKey"`
	SubscriberID     string            `json:"subscriberId"`
	Phone            string            `json:"phone,omitempty"`
	Payload          document.Document `json:"payload,omitempty"`
	TransactionID    string            `json:"transactionId,omitempty"`
	ContentSid       string            `json:"contentSid,omitempty"`
	ContentVariables map[string]string `json:"contentVariables,omitempty"`
}

// Validate checks the required trigger fields.
func (r *TriggerRequest) Validate() error {
	if r.TemplateKey == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "templateKey is required")
	}
	if r.SubscriberID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "subscriberId is required")
	}
	return nil
}

func (h *Handler) handleDryRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("dispatch_dryrun", time.Now())

	req, ok := httputil.DecodeJSON[DryRunRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Event == nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "event is required"))
		return
	}

	result, err := h.svc.Process(ctx, req.Event, req.Send)
	if err != nil {
		h.logger.ErrorContext(ctx, "dry run failed",
			"event_id", req.Event.EventID,
			"error_code", domainerrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("dispatch_trigger", time.Now())

	req, ok := httputil.DecodeAndValidate[TriggerRequest](w, r, h.logger)
	if !ok {
		return
	}

	response, err := h.svc.TestTrigger(ctx, req.TemplateKey, req.SubscriberID, req.Phone,
		req.Payload, req.TransactionID, req.ContentSid, req.ContentVariables)
	if err != nil {
		h.logger.ErrorContext(ctx, "test trigger failed",
			"template_key", req.TemplateKey,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) observe(endpoint string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveEndpointLatency(endpoint, time.Since(start).Seconds())
	}
}
