package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/dispatch/models"
	domainerrors "relay/pkg/domain-errors"
)

func validEvent() *models.DomainEvent {
	return &models.DomainEvent{
		EventID:   "evt-001",
		EventType: "DOMAIN_EVENT",
		EventName: "BILL_GENERATED",
		TenantID:  "pb.amritsar",
		Workflow:  &models.WorkflowInfo{Action: "GENERATE", ToState: "BILLED"},
		Stakeholders: []models.Stakeholder{
			{Type: "CITIZEN", Mobile: "9876543210"},
		},
	}
}

func TestValidateEnvelope(t *testing.T) {
	t.Run("valid event passes", func(t *testing.T) {
		require.NoError(t, ValidateEnvelope(validEvent()))
	})

	t.Run("nil event", func(t *testing.T) {
		err := ValidateEnvelope(nil)
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidEvent))
	})

	tests := []struct {
		name    string
		mutate  func(*models.DomainEvent)
		message string
	}{
		{
			name:    "missing event id",
			mutate:  func(e *models.DomainEvent) { e.EventID = "" },
			message: "eventId is required",
		},
		{
			name:    "missing event type",
			mutate:  func(e *models.DomainEvent) { e.EventType = "" },
			message: "eventType is required",
		},
		{
			name:    "missing event name",
			mutate:  func(e *models.DomainEvent) { e.EventName = "" },
			message: "eventName is required",
		},
		{
			name:    "missing tenant id",
			mutate:  func(e *models.DomainEvent) { e.TenantID = "" },
			message: "tenantId is required",
		},
		{
			name:    "missing workflow",
			mutate:  func(e *models.DomainEvent) { e.Workflow = nil },
			message: "workflow.toState is required",
		},
		{
			name:    "missing workflow to state",
			mutate:  func(e *models.DomainEvent) { e.Workflow.ToState = "" },
			message: "workflow.toState is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			tt.mutate(event)

			err := ValidateEnvelope(event)
			require.Error(t, err)
			assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidEvent))
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestValidateEnvelopeStopsAtFirstProblem(t *testing.T) {
	event := validEvent()
	event.EventID = ""
	event.TenantID = ""

	err := ValidateEnvelope(event)
	require.Error(t, err)
	assert.EqualError(t, err, "eventId is required")
}
