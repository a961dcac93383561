package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
	"github.com/redis/go-redis/v9"
)

// FieldCatalog reads dynamic form definitions from the category tree.
// Missing categories or subcategories yield empty results, never errors;
// only storage failures are reported.
type FieldCatalog interface {
	SubcategoriesForCategory(ctx context.Context, categoryID uint) ([]*models.Subcategory, error)
	GetFieldsForSubcategory(ctx context.Context, subcategoryID uint) ([]models.FieldDefinition, error)
	GetGlobalFields(ctx context.Context) ([]models.FieldDefinition, error)
	EffectiveFields(ctx context.Context, categoryID uint, subcategoryID *uint) ([]models.FieldDefinition, error)
	Invalidate(ctx context.Context)
}

// FieldCatalogImpl implements FieldCatalog with an optional Redis cache of
// effective field lists. Cache entries are namespaced by a version counter
// that Invalidate bumps, so stale entries simply age out.
type FieldCatalogImpl struct {
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
	rc              redis.Cmdable
	ttl             time.Duration
	prefix          string
}

func NewFieldCatalog(
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	rc redis.Cmdable,
	ttl time.Duration,
	keyPrefix string,
) FieldCatalog {
	return &FieldCatalogImpl{
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
		rc:              rc,
		ttl:             ttl,
		prefix:          keyPrefix,
	}
}

func (c *FieldCatalogImpl) SubcategoriesForCategory(ctx context.Context, categoryID uint) ([]*models.Subcategory, error) {
	rows, err := c.subcategoryRepo.ListByCategory(ctx, categoryID, true)
	if err != nil {
		return nil, fmt.Errorf("list subcategories of %d: %w", categoryID, err)
	}
	if rows == nil {
		rows = []*models.Subcategory{}
	}
	return rows, nil
}

func (c *FieldCatalogImpl) GetFieldsForSubcategory(ctx context.Context, subcategoryID uint) ([]models.FieldDefinition, error) {
	sub, err := c.subcategoryRepo.ByID(ctx, subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("load subcategory %d: %w", subcategoryID, err)
	}
	if sub == nil {
		return []models.FieldDefinition{}, nil
	}
	return sub.Fields(), nil
}

// GetGlobalFields returns the fields of the "Global" subcategory under the
// "Global" category, both matched without regard to case
func (c *FieldCatalogImpl) GetGlobalFields(ctx context.Context) ([]models.FieldDefinition, error) {
	category, err := c.categoryRepo.ByName(ctx, models.GlobalCatalogName)
	if err != nil {
		return nil, fmt.Errorf("load global category: %w", err)
	}
	if category == nil {
		return []models.FieldDefinition{}, nil
	}
	sub, err := c.subcategoryRepo.ByCategoryAndName(ctx, category.ID, models.GlobalCatalogName)
	if err != nil {
		return nil, fmt.Errorf("load global subcategory: %w", err)
	}
	if sub == nil {
		return []models.FieldDefinition{}, nil
	}
	return sub.Fields(), nil
}

// EffectiveFields merges global and local fields for a (category, subcategory)
// pair. Without a subcategory only the global fields apply.
func (c *FieldCatalogImpl) EffectiveFields(ctx context.Context, categoryID uint, subcategoryID *uint) ([]models.FieldDefinition, error) {
	var subID uint
	if subcategoryID != nil {
		subID = *subcategoryID
	}

	key := c.cacheKey(ctx, categoryID, subID)
	if key != "" {
		if bs, err := c.rc.Get(ctx, key).Bytes(); err == nil && len(bs) > 0 {
			var cached []models.FieldDefinition
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	global, err := c.GetGlobalFields(ctx)
	if err != nil {
		return nil, err
	}
	local := []models.FieldDefinition{}
	if subcategoryID != nil {
		if local, err = c.GetFieldsForSubcategory(ctx, *subcategoryID); err != nil {
			return nil, err
		}
	}

	merged := MergeFields(global, local)

	if key != "" {
		if bs, err := json.Marshal(merged); err == nil {
			if err := c.rc.Set(ctx, key, bs, c.ttl).Err(); err != nil {
				log.Printf("field catalog: cache set %s failed: %v", key, err)
			}
		}
	}
	return merged, nil
}

// Invalidate retires every cached effective field list
func (c *FieldCatalogImpl) Invalidate(ctx context.Context) {
	if c.rc == nil {
		return
	}
	if err := c.rc.Incr(ctx, c.prefix+utils.FieldCacheVersionKey).Err(); err != nil {
		log.Printf("field catalog: cache invalidation failed: %v", err)
	}
}

func (c *FieldCatalogImpl) cacheKey(ctx context.Context, categoryID, subcategoryID uint) string {
	if c.rc == nil {
		return ""
	}
	version, err := c.rc.Get(ctx, c.prefix+utils.FieldCacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		// Cache unreachable; serve from the database
		return ""
	}
	return c.prefix + fmt.Sprintf(utils.FieldCacheKeyFormat, version, categoryID, subcategoryID)
}
