package service

import (
	"context"

	"relay/internal/dispatch/models"
	"relay/pkg/document"
)

// RecipientResolver turns event recipient hints into a stable user uuid.
// Error Contract:
// - returns "" (no error) when the recipient cannot be resolved; the
//   orchestrator decides fatality
type RecipientResolver interface {
	ResolveRecipient(ctx context.Context, tenantID, audience, userID, mobile string) (string, error)
}

// PreferenceGate answers whether the channel is allowed for the recipient.
// Implementations are fail-closed: any lookup error yields false, nil.
type PreferenceGate interface {
	IsChannelAllowed(ctx context.Context, tenantID, userID, mobile string) (bool, error)
}

// BindingResolver resolves the template binding that applies to an event.
// Error Contract:
// - returns a BINDING_NOT_RESOLVED domain error when no binding matches
type BindingResolver interface {
	ResolveTemplate(ctx context.Context, eventName, tenantID string) (*models.ResolvedTemplate, error)
}

// TriggerClient calls the external notification delivery API.
// Error Contract:
// - returns an NB_NOVU_TRIGGER_FAILED domain error on any transport or
//   provider failure
type TriggerClient interface {
	Trigger(ctx context.Context, templateKey, subscriberID, phone string, payload document.Document, transactionID string, overrides document.Document) (*models.TriggerResponse, error)
}

// LogStore records dispatch outcomes, idempotently on (EventID, Channel).
type LogStore interface {
	Upsert(ctx context.Context, entry *models.LogEntry) error
}
