package repository

import (
	"context"

	"github.com/p57/feedback-hub/models"
	"gorm.io/gorm"
)

// AssignmentRuleRepositoryImpl implements AssignmentRuleRepository interface
type AssignmentRuleRepositoryImpl struct {
	*BaseRepository[models.AssignmentRule, models.AssignmentRuleFilter]
}

// NewAssignmentRuleRepository creates a new assignment rule repository
func NewAssignmentRuleRepository(db *gorm.DB) AssignmentRuleRepository {
	return &AssignmentRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AssignmentRule, models.AssignmentRuleFilter](db),
	}
}

// ListMatching returns active rules whose scope covers the given category and
// subcategory. A nil subcategory only matches rules without a subcategory.
// Rows come back in id order so callers can break score ties deterministically.
func (r *AssignmentRuleRepositoryImpl) ListMatching(ctx context.Context, categoryID uint, subcategoryID *uint) ([]*models.AssignmentRule, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AssignmentRule{}).
		Where("is_active = ?", true).
		Where("category_id = ? OR category_id IS NULL", categoryID)

	if subcategoryID != nil {
		query = query.Where("subcategory_id = ? OR subcategory_id IS NULL", *subcategoryID)
	} else {
		query = query.Where("subcategory_id IS NULL")
	}

	var rows []*models.AssignmentRule
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AssignmentRuleRepositoryImpl) applyFilter(query *gorm.DB, filter models.AssignmentRuleFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubcategoryID != nil {
		query = query.Where("subcategory_id = ?", *filter.SubcategoryID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves rules based on filter criteria
func (r *AssignmentRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.AssignmentRuleFilter, orderBy string, limit, offset int) ([]*models.AssignmentRule, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AssignmentRule{}), filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.AssignmentRule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of rules matching filter
func (r *AssignmentRuleRepositoryImpl) Count(ctx context.Context, filter models.AssignmentRuleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AssignmentRule{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any rule matches the filter
func (r *AssignmentRuleRepositoryImpl) Exists(ctx context.Context, filter models.AssignmentRuleFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
