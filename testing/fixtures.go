// Package testing provides test utilities and database setup for testing the promotion service
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// RandomPhoneNumber returns a unique-looking participant phone number
func RandomPhoneNumber() string {
	return fmt.Sprintf("+9715%08d", rand.Intn(100000000))
}

// CreateTestEntry creates a partial entry (code only) submitted now
func (tf *TestFixtures) CreateTestEntry(phoneNumber, code string) (*models.Entry, error) {
	entry := &models.Entry{
		PhoneNumber: phoneNumber,
		Code:        code,
		SubmittedAt: utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test entry: %w", err)
	}
	return entry, nil
}

// CreateTestEntryAt creates a partial entry with an explicit submission time
func (tf *TestFixtures) CreateTestEntryAt(phoneNumber, code string, submittedAt time.Time) (*models.Entry, error) {
	entry := &models.Entry{
		PhoneNumber: phoneNumber,
		Code:        code,
		SubmittedAt: submittedAt,
	}
	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test entry: %w", err)
	}
	return entry, nil
}

// CreateCompletedTestEntry creates an entry that already has an image
func (tf *TestFixtures) CreateCompletedTestEntry(phoneNumber, code, imagePath, imageHash string) (*models.Entry, error) {
	entry := &models.Entry{
		PhoneNumber: phoneNumber,
		Code:        code,
		ImagePath:   utils.ToPtr(imagePath),
		ImageHash:   utils.ToPtr(imageHash),
		OcrCode:     utils.ToPtr(code),
		SubmittedAt: utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create completed test entry: %w", err)
	}
	return entry, nil
}

// CreateTestAdmin creates an active admin with the given credentials
func (tf *TestFixtures) CreateTestAdmin(username, password string) (*models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateTestAuditLog creates an audit row tied to an entry
func (tf *TestFixtures) CreateTestAuditLog(entryID *uint, action string, success bool) (*models.AuditLog, error) {
	row := &models.AuditLog{
		EntryID:   entryID,
		Action:    action,
		Success:   utils.ToPtr(success),
		CreatedAt: utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}
	return row, nil
}
