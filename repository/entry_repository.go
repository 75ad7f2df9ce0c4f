// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/utils"
	"gorm.io/gorm"
)

// EntryRepositoryImpl implements EntryRepository interface
type EntryRepositoryImpl struct {
	*BaseRepository[models.Entry, models.EntryFilter]
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &EntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Entry, models.EntryFilter](db),
	}
}

// ByUUID retrieves an entry by UUID
func (r *EntryRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Entry, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.EntryFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// LatestPartialForDay returns the newest imageless entry for the phone number
// submitted during the current UTC day, or nil when none exists.
func (r *EntryRepositoryImpl) LatestPartialForDay(ctx context.Context, phoneNumber string) (*models.Entry, error) {
	start, end := utils.TodayBounds()
	rows, err := r.ByFilter(ctx, models.EntryFilter{
		PhoneNumber:     &phoneNumber,
		HasImage:        utils.ToPtr(false),
		SubmittedAfter:  &start,
		SubmittedBefore: &end,
	}, "submitted_at DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// applyFilter applies filter criteria to a GORM query.
func (r *EntryRepositoryImpl) applyFilter(query *gorm.DB, filter models.EntryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.PhoneNumber != nil {
		query = query.Where("phone_number = ?", *filter.PhoneNumber)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.ImageHash != nil {
		query = query.Where("image_hash = ?", *filter.ImageHash)
	}
	if filter.HasImage != nil {
		if *filter.HasImage {
			query = query.Where("image_path IS NOT NULL AND image_path <> ''")
		} else {
			query = query.Where("image_path IS NULL OR image_path = ''")
		}
	}
	if filter.SubmittedAfter != nil {
		query = query.Where("submitted_at >= ?", *filter.SubmittedAfter)
	}
	if filter.SubmittedBefore != nil {
		query = query.Where("submitted_at < ?", *filter.SubmittedBefore)
	}
	if filter.ExcludeID != nil {
		query = query.Where("id <> ?", *filter.ExcludeID)
	}
	return query
}

// ByFilter retrieves entries based on filter criteria.
func (r *EntryRepositoryImpl) ByFilter(ctx context.Context, filter models.EntryFilter, orderBy string, limit, offset int) ([]*models.Entry, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Entry{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Entry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of entries matching filter.
func (r *EntryRepositoryImpl) Count(ctx context.Context, filter models.EntryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Entry{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any entry matches the filter.
func (r *EntryRepositoryImpl) Exists(ctx context.Context, filter models.EntryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
