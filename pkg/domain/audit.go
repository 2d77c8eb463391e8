// Package domain holds small shared domain types.
package domain

import "time"

// AuditDetails records the actor and time of creation and last modification.
// Timestamps are epoch milliseconds for wire compatibility with upstream
// producers.
type AuditDetails struct {
	CreatedBy        string `json:"createdBy,omitempty"`
	CreatedTime      int64  `json:"createdTime,omitempty"`
	LastModifiedBy   string `json:"lastModifiedBy,omitempty"`
	LastModifiedTime int64  `json:"lastModifiedTime,omitempty"`
}

// NewAudit returns audit details for a freshly created record.
func NewAudit(actor string, now time.Time) AuditDetails {
	ms := now.UnixMilli()
	return AuditDetails{
		CreatedBy:        actor,
		CreatedTime:      ms,
		LastModifiedBy:   actor,
		LastModifiedTime: ms,
	}
}

// Touch refreshes the modification fields, preserving creation fields.
func (a *AuditDetails) Touch(actor string, now time.Time) {
	a.LastModifiedBy = actor
	a.LastModifiedTime = now.UnixMilli()
}
