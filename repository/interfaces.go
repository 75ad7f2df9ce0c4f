// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/wafra/Wafra-Promotion/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// EntryRepository defines operations for promotion entries
type EntryRepository interface {
	Repository[models.Entry, models.EntryFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Entry, error)
	LatestPartialForDay(ctx context.Context, phoneNumber string) (*models.Entry, error)
}

// AdminRepository defines operations for admin accounts
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByEntry(ctx context.Context, entryID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListSoftSignals(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
