// Package models holds the template binding and provider detail records that
// map domain events to provider templates.
package models

import (
	"relay/pkg/document"
	"relay/pkg/domain"
)

// TemplateBinding maps an event name to a provider template within a tenant.
type TemplateBinding struct {
	ID              string              `json:"id"`
	EventName       string              `json:"eventName"`
	TenantID        string              `json:"tenantId"`
	TemplateID      string              `json:"templateId"`
	ProviderID      string              `json:"providerId,omitempty"`
	ParamOrder      []string            `json:"paramOrder,omitempty"`
	RequiredVars    []string            `json:"requiredVars,omitempty"`
	ContentSid      string              `json:"contentSid,omitempty"`
	Locale          string              `json:"locale,omitempty"`
	TemplateVersion string              `json:"templateVersion,omitempty"`
	Enabled         *bool               `json:"enabled,omitempty"`
	Audit           domain.AuditDetails `json:"auditDetails"`
}

// IsEnabled treats a nil Enabled flag as true; disabling is explicit.
func (b *TemplateBinding) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// EffectiveContentSid returns the configured content id, falling back to a
// templateVersion that carries one for records written before the dedicated
// column existed.
func (b *TemplateBinding) EffectiveContentSid() string {
	if b.ContentSid != "" {
		return b.ContentSid
	}
	if len(b.TemplateVersion) > 2 && b.TemplateVersion[:2] == "HX" {
		return b.TemplateVersion
	}
	return ""
}

// ProviderDetail is an opaque provider configuration document referenced by
// bindings. The reference is weak; a binding may name a provider that does
// not exist.
type ProviderDetail struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	TenantID string              `json:"tenantId"`
	Value    document.Document   `json:"value"`
	Enabled  *bool               `json:"enabled,omitempty"`
	Audit    domain.AuditDetails `json:"auditDetails"`
}

// IsEnabled treats a nil Enabled flag as true.
func (p *ProviderDetail) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ResolvedBinding pairs a binding with its provider detail, when one is
// configured and present.
type ResolvedBinding struct {
	Binding  *TemplateBinding `json:"binding"`
	Provider *ProviderDetail  `json:"provider,omitempty"`
}

// BindingSearchCriteria filters binding searches. Zero values are ignored.
type BindingSearchCriteria struct {
	IDs        []string `json:"ids,omitempty"`
	EventName  string   `json:"eventName,omitempty"`
	TenantID   string   `json:"tenantId,omitempty"`
	TemplateID string   `json:"templateId,omitempty"`
	ProviderID string   `json:"providerId,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

// ProviderSearchCriteria filters provider searches. Zero values are ignored.
type ProviderSearchCriteria struct {
	IDs      []string `json:"ids,omitempty"`
	Name     string   `json:"name,omitempty"`
	TenantID string   `json:"tenantId,omitempty"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
