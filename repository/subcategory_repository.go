package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
	"gorm.io/gorm"
)

// SubcategoryRepositoryImpl implements SubcategoryRepository interface
type SubcategoryRepositoryImpl struct {
	*BaseRepository[models.Subcategory, models.SubcategoryFilter]
}

// NewSubcategoryRepository creates a new subcategory repository
func NewSubcategoryRepository(db *gorm.DB) SubcategoryRepository {
	return &SubcategoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Subcategory, models.SubcategoryFilter](db),
	}
}

// ByCategoryAndName retrieves a subcategory of a category by name, ignoring case
func (r *SubcategoryRepositoryImpl) ByCategoryAndName(ctx context.Context, categoryID uint, name string) (*models.Subcategory, error) {
	db := r.getDB(ctx)
	var rows []*models.Subcategory
	err := db.Model(&models.Subcategory{}).
		Where("category_id = ? AND LOWER(name) = ?", categoryID, strings.ToLower(strings.TrimSpace(name))).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListByCategory lists the subcategories of a category ordered by name
func (r *SubcategoryRepositoryImpl) ListByCategory(ctx context.Context, categoryID uint, activeOnly bool) ([]*models.Subcategory, error) {
	filter := models.SubcategoryFilter{CategoryID: &categoryID}
	if activeOnly {
		filter.IsActive = utils.ToPtr(true)
	}
	return r.ByFilter(ctx, filter, "name ASC", 0, 0)
}

// UpdateFormFields replaces the embedded form blob
func (r *SubcategoryRepositoryImpl) UpdateFormFields(ctx context.Context, id uint, form models.FormDefinition) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Subcategory{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"form_fields": form,
			"updated_at":  utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update form fields of subcategory %d: %w", id, err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SubcategoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.SubcategoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves subcategories based on filter criteria
func (r *SubcategoryRepositoryImpl) ByFilter(ctx context.Context, filter models.SubcategoryFilter, orderBy string, limit, offset int) ([]*models.Subcategory, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Subcategory{}), filter)

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

	var rows []*models.Subcategory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of subcategories matching filter
func (r *SubcategoryRepositoryImpl) Count(ctx context.Context, filter models.SubcategoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Subcategory{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any subcategory matches the filter
func (r *SubcategoryRepositoryImpl) Exists(ctx context.Context, filter models.SubcategoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
