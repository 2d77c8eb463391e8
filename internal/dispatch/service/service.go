// Package service implements the dispatch pipeline: envelope validation,
// context derivation, recipient and preference checks, template resolution,
// payload building, provider triggering, and outcome logging.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"relay/internal/dispatch/models"
	"relay/internal/platform/metrics"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

const tracerName = "relay/dispatch"

type Option func(*Service)

// Service orchestrates one dispatch per event to a terminal outcome.
type Service struct {
	recipients  RecipientResolver
	preferences PreferenceGate
	bindings    BindingResolver
	trigger     TriggerClient
	logs        LogStore

	channel       string
	defaultLocale string
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

func NewService(recipients RecipientResolver, preferences PreferenceGate, bindings BindingResolver,
	trigger TriggerClient, logs LogStore, channel, defaultLocale string, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		recipients:    recipients,
		preferences:   preferences,
		bindings:      bindings,
		trigger:       trigger,
		logs:          logs,
		channel:       channel,
		defaultLocale: defaultLocale,
		logger:        logger,
		tracer:        otel.Tracer(tracerName),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the service clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Process runs the pipeline for one event. With send=false it stops before
// the provider call and logs RECEIVED (dry run). Terminal denials (preference,
// missing vars) return structured results; everything else fatal returns a
// typed error for the caller to route to the dead-letter topic.
func (s *Service) Process(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "dispatch.process")
	defer span.End()

	if err := ValidateEnvelope(event); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("event.id", event.EventID),
		attribute.String("event.name", event.EventName),
		attribute.String("event.tenant", event.TenantID),
	)

	derived := s.deriveContext(event)

	recipientUUID, err := s.recipients.ResolveRecipient(ctx, event.TenantID, derived.Audience, derived.RecipientUserID, derived.RecipientMobile)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeRecipientMissing, "recipient lookup failed")
	}
	if recipientUUID == "" {
		return nil, domainerrors.New(domainerrors.CodeRecipientMissing, "recipient user uuid could not be resolved")
	}
	derived.RecipientUserID = recipientUUID
	subscriberID := event.TenantID + ":" + recipientUUID

	allowed, err := s.preferences.IsChannelAllowed(ctx, event.TenantID, recipientUUID, derived.RecipientMobile)
	if err != nil {
		// Fail closed; gate errors are never fatal.
		s.logger.WarnContext(ctx, "preference check error, denying",
			"event_id", event.EventID,
			"error", err,
		)
		allowed = false
	}
	if !allowed {
		s.persist(ctx, event, derived, nil, models.StatusSkipped,
			string(domainerrors.CodePreferenceDenied), "channel preference denied", nil)
		s.observeOutcome(string(models.StatusSkipped), start)
		return &models.Result{
			Valid:             true,
			PreferenceAllowed: false,
			DerivedContext:    derived,
			Diagnostics:       []string{"Preference denied"},
		}, nil
	}

	template, err := s.bindings.ResolveTemplate(ctx, event.EventName, event.TenantID)
	if err != nil {
		return nil, err
	}
	if err := validateTemplateShape(template); err != nil {
		return nil, err
	}

	if missing := findMissingRequiredVars(template, event.Data); len(missing) > 0 {
		s.persist(ctx, event, derived, template, models.StatusFailed,
			string(domainerrors.CodeRequiredVarsMissing), "missing required vars", nil)
		s.observeOutcome(string(models.StatusFailed), start)
		return &models.Result{
			Valid:               false,
			PreferenceAllowed:   true,
			DerivedContext:      derived,
			ResolvedTemplate:    template,
			MissingRequiredVars: missing,
			Diagnostics:         []string{"Missing required vars"},
		}, nil
	}

	if !send {
		s.persist(ctx, event, derived, template, models.StatusReceived, "", "", nil)
		s.observeOutcome(string(models.StatusReceived), start)
		return &models.Result{
			Valid:             true,
			PreferenceAllowed: true,
			DerivedContext:    derived,
			ResolvedTemplate:  template,
			Diagnostics:       []string{"Validation only mode"},
		}, nil
	}

	overrides, err := buildTemplateOverrides(template, event.Data)
	if err != nil {
		return nil, err
	}

	triggerStart := s.now()
	response, err := s.trigger.Trigger(ctx, template.TemplateKey, subscriberID,
		formatWhatsAppPhone(derived.RecipientMobile), event.Data, event.EventID, overrides)
	if s.metrics != nil {
		s.metrics.TriggerLatency.Observe(s.now().Sub(triggerStart).Seconds())
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTriggerFailed, "failed triggering provider event")
	}

	s.persist(ctx, event, derived, template, models.StatusSent, "", "", response.Response)
	s.observeOutcome(string(models.StatusSent), start)
	s.logger.InfoContext(ctx, "event dispatched",
		"event_id", event.EventID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
		"template_key", template.TemplateKey,
	)
	return &models.Result{
		Valid:             true,
		PreferenceAllowed: true,
		DerivedContext:    derived,
		ResolvedTemplate:  template,
		Triggered:         true,
		TriggerStatusCode: response.StatusCode,
		TriggerResponse:   response.Response,
		Diagnostics:       []string{"Dispatch successful"},
	}, nil
}

// TestTrigger calls the provider directly, bypassing resolution, for
// operational testing.
func (s *Service) TestTrigger(ctx context.Context, templateKey, subscriberID, phone string,
	payload document.Document, transactionID, contentSid string, contentVariables map[string]string) (*models.TriggerResponse, error) {
	overrides, err := buildRawOverrides(contentSid, contentVariables)
	if err != nil {
		return nil, err
	}
	response, err := s.trigger.Trigger(ctx, templateKey, subscriberID,
		formatWhatsAppPhone(phone), payload, transactionID, overrides)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTriggerFailed, "failed triggering provider event")
	}
	return response, nil
}

// persist records the outcome, best-effort. The dispatch outcome is already
// decided; a failed log write must not change it.
func (s *Service) persist(ctx context.Context, event *models.DomainEvent, derived *models.DerivedContext,
	template *models.ResolvedTemplate, status models.LogStatus, errorCode, errorMessage string, providerResponse document.Document) {
	now := s.now().UnixMilli()
	entry := &models.LogEntry{
		EventID:          event.EventID,
		Module:           event.Module,
		EventName:        event.EventName,
		TenantID:         event.TenantID,
		Channel:          derived.Channel,
		RecipientValue:   derived.RecipientUserID,
		Status:           status,
		AttemptCount:     1,
		LastErrorCode:    errorCode,
		LastErrorMessage: errorMessage,
		ProviderResponse: providerResponse,
		CreatedTime:      now,
		LastModifiedTime: now,
	}
	if template != nil {
		entry.TemplateKey = template.TemplateKey
		entry.TemplateVersion = template.TemplateVersion
	}

	if err := s.logs.Upsert(ctx, entry); err != nil {
		if s.metrics != nil {
			s.metrics.LogUpsertFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "dispatch log upsert failed",
			"event_id", event.EventID,
			"status", status,
			"error", err,
		)
	}
}

func (s *Service) observeOutcome(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncDispatchOutcome(status)
	s.metrics.PipelineLatency.Observe(s.now().Sub(start).Seconds())
}
