package businessflow

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
)

// CategoryFlow manages the category tree and the forms embedded in subcategories
type CategoryFlow interface {
	CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	DeactivateCategory(ctx context.Context, id uint) (*dto.CategoryResponse, error)

	GetSubcategory(ctx context.Context, id uint) (*dto.SubcategoryResponse, error)
	CreateSubcategory(ctx context.Context, req *dto.CreateSubcategoryRequest) (*dto.SubcategoryResponse, error)
	UpdateSubcategory(ctx context.Context, req *dto.UpdateSubcategoryRequest) (*dto.SubcategoryResponse, error)
	DeactivateSubcategory(ctx context.Context, id uint) (*dto.SubcategoryResponse, error)

	AddField(ctx context.Context, req *dto.AddFieldRequest) (*dto.SubcategoryResponse, error)
	RemoveField(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error)
	ToggleFieldHidden(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error)
	ToggleFieldRequired(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error)
}

// CategoryFlowImpl implements CategoryFlow
type CategoryFlowImpl struct {
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
	catalog         FieldCatalog
}

func NewCategoryFlow(
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	catalog FieldCatalog,
) CategoryFlow {
	return &CategoryFlowImpl{
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
		catalog:         catalog,
	}
}

func (f *CategoryFlowImpl) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Category name is required", ErrCategoryNameRequired)
	}
	department, err := parseDepartment(req.DefaultDepartment)
	if err != nil {
		return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
	}

	existing, err := f.categoryRepo.ByName(ctx, name)
	if err != nil {
		return nil, NewBusinessError("CREATE_CATEGORY_FAILED", "Failed to check category name", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CATEGORY_ALREADY_EXISTS", "A category with this name already exists", ErrCategoryAlreadyExists)
	}

	category := &models.Category{
		Name:              name,
		Description:       req.Description,
		Icon:              req.Icon,
		Color:             req.Color,
		DefaultDepartment: department,
		IsActive:          utils.ToPtr(true),
	}
	if err := f.categoryRepo.Save(ctx, category); err != nil {
		return nil, NewBusinessError("CREATE_CATEGORY_FAILED", "Failed to create category", err)
	}
	f.catalog.Invalidate(ctx)

	return &dto.CategoryResponse{Message: "Category created", Category: ToCategoryDTO(*category)}, nil
}

func (f *CategoryFlowImpl) UpdateCategory(ctx context.Context, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := f.loadCategory(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewBusinessError("VALIDATION_ERROR", "Category name is required", ErrCategoryNameRequired)
		}
		if !strings.EqualFold(name, category.Name) {
			other, err := f.categoryRepo.ByName(ctx, name)
			if err != nil {
				return nil, NewBusinessError("UPDATE_CATEGORY_FAILED", "Failed to check category name", err)
			}
			if other != nil && other.ID != category.ID {
				return nil, NewBusinessError("CATEGORY_ALREADY_EXISTS", "A category with this name already exists", ErrCategoryAlreadyExists)
			}
		}
		category.Name = name
	}
	if req.DefaultDepartment != nil {
		department, err := parseDepartment(req.DefaultDepartment)
		if err != nil {
			return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
		}
		category.DefaultDepartment = department
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.Icon != nil {
		category.Icon = req.Icon
	}
	if req.Color != nil {
		category.Color = req.Color
	}
	if req.IsActive != nil {
		category.IsActive = req.IsActive
	}
	category.UpdatedAt = utils.UTCNow()

	if err := f.categoryRepo.Update(ctx, category); err != nil {
		return nil, NewBusinessError("UPDATE_CATEGORY_FAILED", "Failed to update category", err)
	}
	f.catalog.Invalidate(ctx)

	return &dto.CategoryResponse{Message: "Category updated", Category: ToCategoryDTO(*category)}, nil
}

// DeactivateCategory hides a category from intake; tickets keep referencing it
func (f *CategoryFlowImpl) DeactivateCategory(ctx context.Context, id uint) (*dto.CategoryResponse, error) {
	return f.UpdateCategory(ctx, &dto.UpdateCategoryRequest{ID: id, IsActive: utils.ToPtr(false)})
}

func (f *CategoryFlowImpl) GetSubcategory(ctx context.Context, id uint) (*dto.SubcategoryResponse, error) {
	sub, err := f.loadSubcategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubcategoryResponse{Message: "Subcategory retrieved", Subcategory: ToSubcategoryDTO(*sub, true)}, nil
}

func (f *CategoryFlowImpl) CreateSubcategory(ctx context.Context, req *dto.CreateSubcategoryRequest) (*dto.SubcategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Subcategory name is required", ErrSubcategoryNameRequired)
	}
	if _, err := f.loadCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	department, err := parseDepartment(req.DefaultDepartment)
	if err != nil {
		return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
	}

	existing, err := f.subcategoryRepo.ByCategoryAndName(ctx, req.CategoryID, name)
	if err != nil {
		return nil, NewBusinessError("CREATE_SUBCATEGORY_FAILED", "Failed to check subcategory name", err)
	}
	if existing != nil {
		return nil, NewBusinessError("SUBCATEGORY_ALREADY_EXISTS", "A subcategory with this name already exists in the category", ErrSubcategoryAlreadyExists)
	}

	fields := req.Fields
	if req.DuplicateFromID != nil {
		source, err := f.loadSubcategory(ctx, *req.DuplicateFromID)
		if err != nil {
			return nil, err
		}
		fields = source.Fields()
		if department == nil {
			department = source.DefaultDepartment
		}
	}
	fields, err = NormalizeFieldList(fields)
	if err != nil {
		return nil, NewBusinessError("INVALID_FIELD_DEFINITION", err.Error(), err)
	}
	form, err := models.NewFormDefinition(fields)
	if err != nil {
		return nil, NewBusinessError("CREATE_SUBCATEGORY_FAILED", "Failed to encode form fields", err)
	}

	sub := &models.Subcategory{
		CategoryID:        req.CategoryID,
		Name:              name,
		Description:       req.Description,
		DefaultDepartment: department,
		FormFields:        form,
		IsActive:          utils.ToPtr(true),
	}
	if err := f.subcategoryRepo.Save(ctx, sub); err != nil {
		return nil, NewBusinessError("CREATE_SUBCATEGORY_FAILED", "Failed to create subcategory", err)
	}
	f.catalog.Invalidate(ctx)

	return &dto.SubcategoryResponse{Message: "Subcategory created", Subcategory: ToSubcategoryDTO(*sub, true)}, nil
}

func (f *CategoryFlowImpl) UpdateSubcategory(ctx context.Context, req *dto.UpdateSubcategoryRequest) (*dto.SubcategoryResponse, error) {
	sub, err := f.loadSubcategory(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewBusinessError("VALIDATION_ERROR", "Subcategory name is required", ErrSubcategoryNameRequired)
		}
		if name != sub.Name {
			other, err := f.subcategoryRepo.ByCategoryAndName(ctx, sub.CategoryID, name)
			if err != nil {
				return nil, NewBusinessError("UPDATE_SUBCATEGORY_FAILED", "Failed to check subcategory name", err)
			}
			if other != nil && other.ID != sub.ID {
				return nil, NewBusinessError("SUBCATEGORY_ALREADY_EXISTS", "A subcategory with this name already exists in the category", ErrSubcategoryAlreadyExists)
			}
		}
		sub.Name = name
	}
	if req.DefaultDepartment != nil {
		department, err := parseDepartment(req.DefaultDepartment)
		if err != nil {
			return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
		}
		sub.DefaultDepartment = department
	}
	if req.Description != nil {
		sub.Description = req.Description
	}
	if req.IsActive != nil {
		sub.IsActive = req.IsActive
	}
	sub.UpdatedAt = utils.UTCNow()

	if err := f.subcategoryRepo.Update(ctx, sub); err != nil {
		return nil, NewBusinessError("UPDATE_SUBCATEGORY_FAILED", "Failed to update subcategory", err)
	}
	f.catalog.Invalidate(ctx)

	return &dto.SubcategoryResponse{Message: "Subcategory updated", Subcategory: ToSubcategoryDTO(*sub, true)}, nil
}

func (f *CategoryFlowImpl) DeactivateSubcategory(ctx context.Context, id uint) (*dto.SubcategoryResponse, error) {
	return f.UpdateSubcategory(ctx, &dto.UpdateSubcategoryRequest{ID: id, IsActive: utils.ToPtr(false)})
}

func (f *CategoryFlowImpl) AddField(ctx context.Context, req *dto.AddFieldRequest) (*dto.SubcategoryResponse, error) {
	field, err := NormalizeFieldDefinition(req.Field)
	if err != nil {
		return nil, NewBusinessError("INVALID_FIELD_DEFINITION", err.Error(), err)
	}
	return f.editForm(ctx, req.SubcategoryID, "Field added", func(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
		if indexOfField(fields, field.ID) >= 0 {
			return nil, NewBusinessErrorf("FIELD_ALREADY_EXISTS", "Field %q already exists", ErrFieldAlreadyExists, field.ID)
		}
		return append(fields, field), nil
	})
}

func (f *CategoryFlowImpl) RemoveField(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error) {
	return f.editForm(ctx, req.SubcategoryID, "Field removed", func(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
		i := indexOfField(fields, req.FieldID)
		if i < 0 {
			return nil, NewBusinessErrorf("FIELD_NOT_FOUND", "Field %q not found", ErrFieldNotFound, req.FieldID)
		}
		return append(fields[:i], fields[i+1:]...), nil
	})
}

func (f *CategoryFlowImpl) ToggleFieldHidden(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error) {
	return f.editForm(ctx, req.SubcategoryID, "Field visibility toggled", func(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
		i := indexOfField(fields, req.FieldID)
		if i < 0 {
			return nil, NewBusinessErrorf("FIELD_NOT_FOUND", "Field %q not found", ErrFieldNotFound, req.FieldID)
		}
		fields[i].IsHidden = !fields[i].IsHidden
		return fields, nil
	})
}

func (f *CategoryFlowImpl) ToggleFieldRequired(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error) {
	return f.editForm(ctx, req.SubcategoryID, "Field requirement toggled", func(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
		i := indexOfField(fields, req.FieldID)
		if i < 0 {
			return nil, NewBusinessErrorf("FIELD_NOT_FOUND", "Field %q not found", ErrFieldNotFound, req.FieldID)
		}
		fields[i].IsRequired = !fields[i].IsRequired
		return fields, nil
	})
}

// editForm reads the whole embedded form, applies edit and writes it back in
// the {"fields": [...]} shape
func (f *CategoryFlowImpl) editForm(
	ctx context.Context,
	subcategoryID uint,
	message string,
	edit func([]models.FieldDefinition) ([]models.FieldDefinition, error),
) (*dto.SubcategoryResponse, error) {
	sub, err := f.loadSubcategory(ctx, subcategoryID)
	if err != nil {
		return nil, err
	}

	fields, err := edit(sub.Fields())
	if err != nil {
		return nil, err
	}
	form, err := models.NewFormDefinition(fields)
	if err != nil {
		return nil, NewBusinessError("UPDATE_FORM_FAILED", "Failed to encode form fields", err)
	}
	if err := f.subcategoryRepo.UpdateFormFields(ctx, sub.ID, form); err != nil {
		return nil, NewBusinessError("UPDATE_FORM_FAILED", "Failed to save form fields", err)
	}
	f.catalog.Invalidate(ctx)

	sub.FormFields = form
	log.Printf("subcategory %d form updated: %s", sub.ID, message)
	return &dto.SubcategoryResponse{Message: message, Subcategory: ToSubcategoryDTO(*sub, true)}, nil
}

func (f *CategoryFlowImpl) loadCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := f.categoryRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_CATEGORY_FAILED", "Failed to load category", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}
	return category, nil
}

func (f *CategoryFlowImpl) loadSubcategory(ctx context.Context, id uint) (*models.Subcategory, error) {
	sub, err := f.subcategoryRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_SUBCATEGORY_FAILED", "Failed to load subcategory", err)
	}
	if sub == nil {
		return nil, NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found", ErrSubcategoryNotFound)
	}
	return sub, nil
}

// NormalizeFieldDefinition trims a field, maps loose type names onto the
// known set and rejects unknown rule kinds and patterns that do not compile
func NormalizeFieldDefinition(fd models.FieldDefinition) (models.FieldDefinition, error) {
	fd.ID = strings.TrimSpace(fd.ID)
	fd.Label = strings.TrimSpace(fd.Label)
	if fd.ID == "" {
		return fd, fmt.Errorf("%w: id is required", ErrInvalidFieldDefinition)
	}
	if fd.Label == "" {
		fd.Label = fd.ID
	}
	if !fd.FieldType.IsValid() {
		fd.FieldType = models.NormalizeFieldType(string(fd.FieldType))
	}
	if fd.FieldType == models.FieldTypeDropdown && len(fd.Options) == 0 {
		return fd, fmt.Errorf("%w: field %q needs options", ErrInvalidFieldDefinition, fd.ID)
	}

	for _, rule := range fd.Validation {
		switch rule.Type {
		case models.RuleMinLength, models.RuleMaxLength, models.RuleMin, models.RuleMax:
			if _, ok := rule.NumberValue(); !ok {
				return fd, fmt.Errorf("%w: field %q rule %s needs a numeric value", ErrInvalidFieldDefinition, fd.ID, rule.Type)
			}
		case models.RulePattern:
			if _, err := regexp.Compile(rule.StringValue()); err != nil {
				return fd, fmt.Errorf("%w: field %q pattern does not compile", ErrInvalidFieldDefinition, fd.ID)
			}
		default:
			return fd, fmt.Errorf("%w: field %q has unknown rule %q", ErrInvalidFieldDefinition, fd.ID, rule.Type)
		}
	}
	return fd, nil
}

// NormalizeFieldList normalizes each field and rejects duplicate ids
func NormalizeFieldList(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	out := make([]models.FieldDefinition, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, fd := range fields {
		n, err := NormalizeFieldDefinition(fd)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate field id %q", ErrInvalidFieldDefinition, n.ID)
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

func indexOfField(fields []models.FieldDefinition, id string) int {
	for i, fd := range fields {
		if fd.ID == id {
			return i
		}
	}
	return -1
}
