// Package models contains domain entities and business models for the promotion service
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wafra/Wafra-Promotion/utils"
)

func TestEntryIsComplete(t *testing.T) {
	entry := &Entry{PhoneNumber: "+971500000001", Code: "ABC123"}
	assert.False(t, entry.IsComplete())

	entry.ImagePath = utils.ToPtr("")
	assert.False(t, entry.IsComplete())

	entry.ImagePath = utils.ToPtr("/uploads/pack.png")
	assert.True(t, entry.IsComplete())
}

func TestEntryBeforeCreateDefaults(t *testing.T) {
	entry := &Entry{PhoneNumber: "+971500000001", Code: "ABC123"}
	require.NoError(t, entry.BeforeCreate(nil))

	assert.NotEqual(t, uuid.Nil, entry.UUID)
	assert.False(t, entry.SubmittedAt.IsZero())
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestEntryBeforeCreateKeepsExplicitValues(t *testing.T) {
	id := uuid.New()
	submitted := utils.UTCNowAdd(-2 * time.Minute)
	entry := &Entry{
		PhoneNumber: "+971500000001",
		Code:        "ABC123",
		UUID:        id,
		SubmittedAt: submitted,
	}
	require.NoError(t, entry.BeforeCreate(nil))

	assert.Equal(t, id, entry.UUID)
	assert.Equal(t, submitted, entry.SubmittedAt)
}

func TestAuditLogIsSoftSignal(t *testing.T) {
	tests := []struct {
		action string
		want   bool
	}{
		{AuditActionCodeMismatchFlagged, true},
		{AuditActionDuplicateImageFlagged, true},
		{AuditActionRecognitionFailed, true},
		{AuditActionCodeSubmitted, false},
		{AuditActionImageSubmitted, false},
		{AuditActionEntryCompleted, false},
		{AuditActionAdminLoginSuccess, false},
	}

	for _, tt := range tests {
		row := &AuditLog{Action: tt.action}
		assert.Equal(t, tt.want, row.IsSoftSignal(), tt.action)
	}
}

func TestAuditLogIsFailed(t *testing.T) {
	row := &AuditLog{}
	assert.False(t, row.IsFailed())

	row.Success = utils.ToPtr(true)
	assert.False(t, row.IsFailed())

	row.Success = utils.ToPtr(false)
	assert.True(t, row.IsFailed())
}
