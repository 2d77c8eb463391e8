package service

import (
	"relay/internal/dispatch/models"
	domainerrors "relay/pkg/domain-errors"
)

// ValidateEnvelope checks the structural completeness of an inbound event.
// It fails on the first missing field so the dead-letter message names
// exactly one actionable problem.
func ValidateEnvelope(event *models.DomainEvent) error {
	if event == nil {
		return domainerrors.New(domainerrors.CodeInvalidEvent, "event payload is required")
	}
	if event.EventID == "" {
		return domainerrors.New(domainerrors.CodeInvalidEvent, "eventId is required")
	}
	if event.EventType == "" {
		return domainerrors.New(domainerrors.CodeInvalidEvent, "eventType is required")
	}
	if event.EventName == "" {
		return domainerrors.New(domainerrors.CodeInvalidEvent, "eventName is required")
	}
	if event.TenantID == "" {
		return domainerrors.New(domainerrors.CodeInvalidEvent, "tenantId is required")
	}
	if event.Workflow == nil || event.Workflow.ToState == "" {
		return domainerrors.New(domainerrors.CodeInvalidEvent, "workflow.toState is required")
	}
	return nil
}
