// Package models holds the domain event envelope consumed by the dispatch
// pipeline and the records it produces.
package models

import "relay/pkg/document"

// Actor identifies who caused the domain event.
type Actor struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// WorkflowInfo carries the workflow transition that emitted the event.
type WorkflowInfo struct {
	Action    string `json:"action,omitempty"`
	FromState string `json:"fromState,omitempty"`
	ToState   string `json:"toState,omitempty"`
}

// Stakeholder is a notification candidate attached to the event.
type Stakeholder struct {
	Type   string `json:"type,omitempty"`
	UserID string `json:"userId,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// ContextInfo carries producer-side context hints.
type ContextInfo struct {
	Locale string `json:"locale,omitempty"`
}

// DomainEvent is the inbound envelope, owned by the producer and consumed
// read-only.
type DomainEvent struct {
	EventID      string            `json:"eventId"`
	EventType    string            `json:"eventType"`
	EventTime    string            `json:"eventTime,omitempty"`
	Producer     string            `json:"producer,omitempty"`
	Module       string            `json:"module,omitempty"`
	EventName    string            `json:"eventName"`
	EntityType   string            `json:"entityType,omitempty"`
	EntityID     string            `json:"entityId,omitempty"`
	TenantID     string            `json:"tenantId"`
	Actor        *Actor            `json:"actor,omitempty"`
	Workflow     *WorkflowInfo     `json:"workflow,omitempty"`
	Stakeholders []Stakeholder     `json:"stakeholders,omitempty"`
	Context      *ContextInfo      `json:"context,omitempty"`
	Data         document.Document `json:"data,omitempty"`
}

// DerivedContext is the per-event dispatch context extracted from the
// envelope before any external call.
type DerivedContext struct {
	Channel         string `json:"channel"`
	Audience        string `json:"audience,omitempty"`
	WorkflowState   string `json:"workflowState,omitempty"`
	Locale          string `json:"locale,omitempty"`
	RecipientMobile string `json:"recipientMobile,omitempty"`
	RecipientUserID string `json:"recipientUserId,omitempty"`
}

// ResolvedTemplate is the provider-facing view of a resolved binding.
type ResolvedTemplate struct {
	TemplateKey     string            `json:"templateKey"`
	TemplateVersion string            `json:"templateVersion,omitempty"`
	ContentSid      string            `json:"contentSid,omitempty"`
	RequiredVars    []string          `json:"requiredVars,omitempty"`
	ParamOrder      []string          `json:"paramOrder,omitempty"`
	ProviderConfig  document.Document `json:"providerConfig,omitempty"`
}

// Result is the terminal pipeline outcome for one event. Terminal states are
// mutually exclusive: a denied preference, missing variables, a dry run, and
// a successful trigger each produce a distinct shape.
type Result struct {
	Valid               bool              `json:"valid"`
	PreferenceAllowed   bool              `json:"preferenceAllowed"`
	DerivedContext      *DerivedContext   `json:"derivedContext,omitempty"`
	ResolvedTemplate    *ResolvedTemplate `json:"resolvedTemplate,omitempty"`
	MissingRequiredVars []string          `json:"missingRequiredVars,omitempty"`
	Triggered           bool              `json:"novuTriggered"`
	TriggerStatusCode   int               `json:"novuStatusCode,omitempty"`
	TriggerResponse     document.Document `json:"novuResponse,omitempty"`
	Diagnostics         []string          `json:"diagnostics,omitempty"`
}

// TriggerResponse is the provider's answer to a trigger call.
type TriggerResponse struct {
	StatusCode int               `json:"statusCode"`
	Response   document.Document `json:"response,omitempty"`
}

// LogStatus enumerates the terminal dispatch log states.
type LogStatus string

const (
	StatusReceived LogStatus = "RECEIVED"
	StatusSent     LogStatus = "SENT"
	StatusSkipped  LogStatus = "SKIPPED"
	StatusFailed   LogStatus = "FAILED"
)

// LogEntry is one dispatch log row, upserted on (EventID, Channel).
type LogEntry struct {
	ID               string            `json:"id"`
	EventID          string            `json:"eventId"`
	Module           string            `json:"module,omitempty"`
	EventName        string            `json:"eventName"`
	TenantID         string            `json:"tenantId"`
	Channel          string            `json:"channel"`
	RecipientValue   string            `json:"recipientValue,omitempty"`
	TemplateKey      string            `json:"templateKey,omitempty"`
	TemplateVersion  string            `json:"templateVersion,omitempty"`
	Status           LogStatus         `json:"status"`
	AttemptCount     int               `json:"attemptCount"`
	LastErrorCode    string            `json:"lastErrorCode,omitempty"`
	LastErrorMessage string            `json:"lastErrorMessage,omitempty"`
	ProviderResponse document.Document `json:"providerResponse,omitempty"`
	CreatedTime      int64             `json:"createdTime"`
	LastModifiedTime int64             `json:"lastModifiedTime"`
}

// DeadLetter wraps an event that failed unrecoverable processing for the
// dead-letter topic.
type DeadLetter struct {
	Event        *DomainEvent `json:"event"`
	ErrorCode    string       `json:"errorCode"`
	ErrorMessage string       `json:"errorMessage"`
}
