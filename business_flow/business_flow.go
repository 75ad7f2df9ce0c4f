// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wafra/Wafra-Promotion/app/dto"
	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/repository"
	"github.com/wafra/Wafra-Promotion/utils"
	"gorm.io/gorm"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToEntryDTO converts an entry model to its API representation
func ToEntryDTO(entry models.Entry) dto.EntryDTO {
	return dto.EntryDTO{
		ID:          entry.ID,
		UUID:        entry.UUID.String(),
		PhoneNumber: entry.PhoneNumber,
		Code:        entry.Code,
		ImagePath:   utils.Deref(entry.ImagePath),
		ImageHash:   utils.Deref(entry.ImageHash),
		OcrCode:     utils.Deref(entry.OcrCode),
		Complete:    entry.IsComplete(),
		SubmittedAt: entry.SubmittedAt.Format(time.RFC3339),
	}
}

// ToAdminDTO converts an admin model to its API representation
func ToAdminDTO(admin models.Admin) dto.AdminDTO {
	return dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Username:  admin.Username,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
}

// ToAdminSessionDTO builds the session payload for a fresh token pair
func ToAdminSessionDTO(accessToken, refreshToken string, expiresIn time.Duration) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(expiresIn.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.UTCNowRFC3339(),
	}
}

// withTx runs fn inside a transaction when a database handle is present.
// Flows constructed with fake repositories in tests pass a nil handle.
func withTx(ctx context.Context, db *gorm.DB, fn func(context.Context) error) error {
	if db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, db, fn)
}

// recordAudit writes an audit row; failures are swallowed so a logging
// problem never changes the participant-visible outcome.
func recordAudit(ctx context.Context, auditRepo repository.AuditLogRepository, entryID *uint, action, description string, success bool, metadata *ClientMetadata, extra map[string]any) {
	if auditRepo == nil {
		return
	}

	row := &models.AuditLog{
		EntryID:     entryID,
		Action:      action,
		Description: utils.ToPtr(description),
		Success:     utils.ToPtr(success),
		CreatedAt:   utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			row.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			row.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			row.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	if len(extra) > 0 {
		if raw, err := json.Marshal(extra); err == nil {
			row.Metadata = raw
		}
	}

	_ = auditRepo.Save(ctx, row)
}
