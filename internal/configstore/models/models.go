package models

import (
	"relay/pkg/document"
	"relay/pkg/domain"
)

// ConfigEntry is a generic keyed configuration record. The selector columns
// plus the eventName embedded in the opaque value document determine which
// entry applies during resolution.
type ConfigEntry struct {
	ID         string              `json:"id"`
	ConfigCode string              `json:"configCode"`
	Module     string              `json:"module,omitempty"`
	Channel    string              `json:"channel,omitempty"`
	TenantID   string              `json:"tenantId"`
	Value      document.Document   `json:"value"`
	Revision   int                 `json:"revision"`
	Enabled    *bool               `json:"enabled,omitempty"`
	Audit      domain.AuditDetails `json:"auditDetails"`
}

// EventName returns the eventName selector embedded in the value document.
func (e *ConfigEntry) EventName() string {
	if e.Value == nil {
		return ""
	}
	s, _ := e.Value.String("eventName")
	return s
}

// IsEnabled treats a nil Enabled flag as true; disabling is explicit.
func (e *ConfigEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// SearchCriteria filters entry searches. Zero values are ignored.
type SearchCriteria struct {
	IDs         []string          `json:"ids,omitempty"`
	ConfigCode  string            `json:"configCode,omitempty"`
	Module      string            `json:"module,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	TenantID    string            `json:"tenantId,omitempty"`
	EventName   string            `json:"eventName,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	ValueFilter map[string]string `json:"valueFilter,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Offset      int               `json:"offset,omitempty"`
}

// ResolveParams are the selector keys for a tenant-fallback resolution.
// Module, Channel and EventName are optional narrowing selectors.
type ResolveParams struct {
	ConfigCode string `json:"configCode"`
	Module     string `json:"module,omitempty"`
	Channel    string `json:"channel,omitempty"`
	EventName  string `json:"eventName,omitempty"`
	TenantID   string `json:"tenantId"`
}

// ResolutionMeta reports how a resolution was satisfied.
type ResolutionMeta struct {
	MatchedTenant string   `json:"matchedTenant"`
	Chain         []string `json:"tenantChain"`
}

// ResolvedEntry pairs the matched record with its resolution metadata.
type ResolvedEntry struct {
	Entry *ConfigEntry   `json:"entry"`
	Meta  ResolutionMeta `json:"resolutionMeta"`
}
