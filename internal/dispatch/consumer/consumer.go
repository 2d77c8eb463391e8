// Package consumer adapts the dispatch pipeline to the domain event topic.
// Events that fail unrecoverably are published to the dead-letter topic with
// their error code; only a failed dead-letter publish blocks the offset
// commit.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"relay/internal/dispatch/models"
	"relay/internal/platform/kafka/consumer"
	"relay/internal/platform/kafka/producer"
	"relay/internal/platform/metrics"
	domainerrors "relay/pkg/domain-errors"
)

// Pipeline is the slice of the dispatch service the consumer drives.
type Pipeline interface {
	Process(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error)
}

// DLQPublisher publishes dead-letter messages.
type DLQPublisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// EventHandler consumes domain events and drives the dispatch pipeline.
type EventHandler struct {
	pipeline Pipeline
	dlq      DLQPublisher
	dlqTopic string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures the EventHandler.
type Option func(*EventHandler)

// WithMetrics sets the metrics instance for the handler.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *EventHandler) {
		h.metrics = m
	}
}

// NewEventHandler creates a handler publishing failures to dlqTopic.
func NewEventHandler(pipeline Pipeline, dlq DLQPublisher, dlqTopic string, logger *slog.Logger, opts ...Option) *EventHandler {
	h := &EventHandler{
		pipeline: pipeline,
		dlq:      dlq,
		dlqTopic: dlqTopic,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one consumed message. A nil return commits the offset, so
// every path except a failed dead-letter publish returns nil: redelivering an
// event the pipeline already rejected would reject it again.
func (h *EventHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	if h.metrics != nil {
		h.metrics.EventsConsumed.Inc()
	}

	var event models.DomainEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.ErrorContext(ctx, "event payload is not valid JSON",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return h.publishDeadLetter(ctx, nil, string(msg.Key),
			domainerrors.New(domainerrors.CodeInvalidEvent, "event payload is not valid JSON"))
	}

	result, err := h.pipeline.Process(ctx, &event, true)
	if err != nil {
		h.logger.ErrorContext(ctx, "event processing failed",
			"event_id", event.EventID,
			"event_name", event.EventName,
			"tenant_id", event.TenantID,
			"error_code", domainerrors.CodeOf(err),
			"error", err,
		)
		return h.publishDeadLetter(ctx, &event, event.TenantID, err)
	}

	h.logger.DebugContext(ctx, "event processed",
		"event_id", event.EventID,
		"event_name", event.EventName,
		"triggered", result.Triggered,
	)
	return nil
}

// publishDeadLetter routes a failed event to the dead-letter topic, keyed by
// tenant so tenant replays stay ordered.
func (h *EventHandler) publishDeadLetter(ctx context.Context, event *models.DomainEvent, key string, cause error) error {
	deadLetter := models.DeadLetter{
		Event:        event,
		ErrorCode:    string(domainerrors.CodeOf(cause)),
		ErrorMessage: cause.Error(),
	}
	value, err := json.Marshal(deadLetter)
	if err != nil {
		if h.metrics != nil {
			h.metrics.DLQPublishFailed.Inc()
		}
		return err
	}

	msg := &producer.Message{
		Topic: h.dlqTopic,
		Value: value,
	}
	if key != "" {
		msg.Key = []byte(key)
	}

	if err := h.dlq.Produce(ctx, msg); err != nil {
		if h.metrics != nil {
			h.metrics.DLQPublishFailed.Inc()
		}
		h.logger.ErrorContext(ctx, "dead-letter publish failed",
			"topic", h.dlqTopic,
			"error", err,
		)
		return err
	}

	if h.metrics != nil {
		h.metrics.DLQPublished.Inc()
	}
	return nil
}
