// Package models contains domain entities and business models for the promotion service
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/wafra/Wafra-Promotion/utils"
	"gorm.io/gorm"
)

// OcrProcessingError is the sentinel stored in OcrCode when the recognition
// tool fails or times out. Distinct from "recognition not run yet" (NULL).
const OcrProcessingError = "PROCESSING_ERROR"

// Entry is one participation in the promotion. An entry with a code but no
// image is partial; setting ImagePath makes it complete. Complete entries are
// never mutated again.
type Entry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_entries_uuid;not null" json:"uuid"`
	PhoneNumber string    `gorm:"size:32;not null;index:idx_entries_phone" json:"phone_number"`
	Code        string    `gorm:"size:64;not null" json:"code"`
	ImagePath   *string   `gorm:"type:text" json:"image_path,omitempty"`
	ImageHash   *string   `gorm:"size:64;index:idx_entries_image_hash" json:"image_hash,omitempty"`
	OcrCode     *string   `gorm:"size:255" json:"ocr_code,omitempty"`
	SubmittedAt time.Time `gorm:"not null;index:idx_entries_submitted_at" json:"timestamp"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Entry) TableName() string { return "entries" }

// BeforeCreate ensures UUID and timestamps are set.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = utils.UTCNow()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// IsComplete reports whether the entry carries a pack photo.
func (e *Entry) IsComplete() bool {
	return e.ImagePath != nil && *e.ImagePath != ""
}

// EntryFilter represents filter criteria for entry queries
type EntryFilter struct {
	ID              *uint      `json:"id,omitempty"`
	UUID            *uuid.UUID `json:"uuid,omitempty"`
	PhoneNumber     *string    `json:"phone_number,omitempty"`
	Code            *string    `json:"code,omitempty"`
	ImageHash       *string    `json:"image_hash,omitempty"`
	HasImage        *bool      `json:"has_image,omitempty"`
	SubmittedAfter  *time.Time `json:"submitted_after,omitempty"`
	SubmittedBefore *time.Time `json:"submitted_before,omitempty"`
	ExcludeID       *uint      `json:"exclude_id,omitempty"`
}
