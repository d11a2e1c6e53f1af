// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/propmatch/PropMatch/models"
	"gorm.io/gorm"
)

// PropertyRepositoryImpl implements PropertyRepository interface
type PropertyRepositoryImpl struct {
	*BaseRepository[models.Property, models.PropertyFilter]
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &PropertyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Property, models.PropertyFilter](db, applyPropertyFilter),
	}
}

func applyPropertyFilter(db *gorm.DB, filter models.PropertyFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if len(filter.IDs) > 0 {
		db = db.Where("id IN ?", filter.IDs)
	}
	if filter.City != nil {
		db = db.Where("city = ?", *filter.City)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.MinPrice != nil {
		db = db.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		db = db.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinRooms != nil {
		db = db.Where("rooms >= ?", *filter.MinRooms)
	}
	if filter.Query != nil {
		pattern := "%" + *filter.Query + "%"
		db = db.Where("title ILIKE ? OR location ILIKE ?", pattern, pattern)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

// ByIDs retrieves properties by a set of IDs
func (r *PropertyRepositoryImpl) ByIDs(ctx context.Context, ids []uint) ([]*models.Property, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	filter := models.PropertyFilter{IDs: ids}
	properties, err := r.ByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find properties by IDs: %w", err)
	}

	return properties, nil
}

// Search retrieves properties matching the filter, newest first, with pagination
func (r *PropertyRepositoryImpl) Search(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]*models.Property, error) {
	db := r.getDB(ctx)

	if limit <= 0 {
		limit = -1 // no limit
	}

	var properties []*models.Property
	err := applyPropertyFilter(db, filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&properties).Error

	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}

	return properties, nil
}

// Update persists the mutable fields of a property
func (r *PropertyRepositoryImpl) Update(ctx context.Context, property *models.Property) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(property).
		Select("title", "price", "type", "location", "city", "size", "rooms", "image", "description", "updated_at").
		Updates(property).Error
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	return nil
}

// Delete removes a property listing
func (r *PropertyRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.Property{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	return nil
}
