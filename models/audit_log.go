// Package models contains domain entities and business models for the promotion service
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	EntryID      *uint           `gorm:"index:idx_audit_entry_id" json:"entry_id,omitempty"`
	Entry        *Entry          `gorm:"foreignKey:EntryID;references:ID" json:"entry,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionCodeSubmitted         = "code_submitted"
	AuditActionImageSubmitted        = "image_submitted"
	AuditActionEntryCompleted        = "entry_completed"
	AuditActionRecognitionFailed     = "recognition_failed"
	AuditActionCodeMismatchFlagged   = "code_mismatch_flagged"
	AuditActionDuplicateImageFlagged = "duplicate_image_flagged"
	AuditActionAdminLoginSuccess     = "admin_login_success"
	AuditActionAdminLoginFailed      = "admin_login_failed"
	AuditActionEntriesExported       = "entries_exported"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	EntryID       *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// IsSoftSignal reports whether this row records an advisory anomaly rather
// than a lifecycle event.
func (a *AuditLog) IsSoftSignal() bool {
	switch a.Action {
	case AuditActionCodeMismatchFlagged, AuditActionDuplicateImageFlagged, AuditActionRecognitionFailed:
		return true
	}
	return false
}
