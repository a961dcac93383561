package dto

import "github.com/p57/feedback-hub/models"

// CategoryDTO is the public shape of a category
type CategoryDTO struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Description       *string `json:"description,omitempty"`
	Icon              *string `json:"icon,omitempty"`
	Color             *string `json:"color,omitempty"`
	DefaultDepartment *string `json:"default_department,omitempty"`
	IsActive          bool    `json:"is_active"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// SubcategoryDTO is the public shape of a subcategory; Fields is only set on detail reads
type SubcategoryDTO struct {
	ID                uint                     `json:"id"`
	CategoryID        uint                     `json:"category_id"`
	Name              string                   `json:"name"`
	Description       *string                  `json:"description,omitempty"`
	DefaultDepartment *string                  `json:"default_department,omitempty"`
	IsActive          bool                     `json:"is_active"`
	FieldCount        int                      `json:"field_count"`
	VisibleFieldCount int                      `json:"visible_field_count"`
	Fields            []models.FieldDefinition `json:"fields,omitempty"`
	CreatedAt         string                   `json:"created_at"`
	UpdatedAt         string                   `json:"updated_at"`
}

// EffectiveFieldDTO is a merged, visible field with its render widget
type EffectiveFieldDTO struct {
	models.FieldDefinition
	Widget string `json:"widget"`
}

// ListCategoriesRequest filters the category listing
type ListCategoriesRequest struct {
	IncludeInactive bool `query:"include_inactive"`
}

// ListCategoriesResponse lists categories
type ListCategoriesResponse struct {
	Message    string        `json:"message"`
	Categories []CategoryDTO `json:"categories"`
}

// ListSubcategoriesResponse lists the subcategories of a category
type ListSubcategoriesResponse struct {
	Message       string           `json:"message"`
	CategoryID    uint             `json:"category_id"`
	Subcategories []SubcategoryDTO `json:"subcategories"`
}

// SubcategoryFieldsResponse returns the normalized embedded fields of a subcategory
type SubcategoryFieldsResponse struct {
	Message       string                   `json:"message"`
	SubcategoryID uint                     `json:"subcategory_id"`
	Fields        []models.FieldDefinition `json:"fields"`
}

// EffectiveFieldsRequest selects a (category, subcategory) form
type EffectiveFieldsRequest struct {
	CategoryID    uint  `query:"category_id" validate:"required"`
	SubcategoryID *uint `query:"subcategory_id" validate:"omitempty"`
}

// EffectiveFieldsResponse returns the render-ready field list
type EffectiveFieldsResponse struct {
	Message       string              `json:"message"`
	CategoryID    uint                `json:"category_id"`
	SubcategoryID *uint               `json:"subcategory_id,omitempty"`
	Fields        []EffectiveFieldDTO `json:"fields"`
	VisibleCount  int                 `json:"visible_count"`
}

// ValidateFormRequest carries dynamic answers keyed by field id
type ValidateFormRequest struct {
	CategoryID    uint           `json:"category_id" validate:"required"`
	SubcategoryID *uint          `json:"subcategory_id,omitempty" validate:"omitempty"`
	Answers       map[string]any `json:"answers"`
}

// ValidateFormResponse reports per-field failures; Errors is empty when Valid
type ValidateFormResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// CreateCategoryRequest creates a category
type CreateCategoryRequest struct {
	Name              string  `json:"name" validate:"required,max=255"`
	Description       *string `json:"description,omitempty" validate:"omitempty"`
	Icon              *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	Color             *string `json:"color,omitempty" validate:"omitempty,max=32"`
	DefaultDepartment *string `json:"default_department,omitempty" validate:"omitempty"`
}

// UpdateCategoryRequest patches a category; nil fields are left unchanged
type UpdateCategoryRequest struct {
	ID                uint    `json:"-"`
	Name              *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description       *string `json:"description,omitempty" validate:"omitempty"`
	Icon              *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	Color             *string `json:"color,omitempty" validate:"omitempty,max=32"`
	DefaultDepartment *string `json:"default_department,omitempty" validate:"omitempty"`
	IsActive          *bool   `json:"is_active,omitempty" validate:"omitempty"`
}

// CategoryResponse returns a single category
type CategoryResponse struct {
	Message  string      `json:"message"`
	Category CategoryDTO `json:"category"`
}

// CreateSubcategoryRequest creates a subcategory either with explicit fields or
// by cloning the form definition of DuplicateFromID
type CreateSubcategoryRequest struct {
	CategoryID        uint                     `json:"category_id" validate:"required"`
	Name              string                   `json:"name" validate:"required,max=255"`
	Description       *string                  `json:"description,omitempty" validate:"omitempty"`
	DefaultDepartment *string                  `json:"default_department,omitempty" validate:"omitempty"`
	Fields            []models.FieldDefinition `json:"fields,omitempty" validate:"omitempty"`
	DuplicateFromID   *uint                    `json:"duplicate_from_id,omitempty" validate:"omitempty"`
}

// UpdateSubcategoryRequest patches subcategory attributes; form edits use the field endpoints
type UpdateSubcategoryRequest struct {
	ID                uint    `json:"-"`
	Name              *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description       *string `json:"description,omitempty" validate:"omitempty"`
	DefaultDepartment *string `json:"default_department,omitempty" validate:"omitempty"`
	IsActive          *bool   `json:"is_active,omitempty" validate:"omitempty"`
}

// SubcategoryResponse returns a single subcategory with its fields
type SubcategoryResponse struct {
	Message     string         `json:"message"`
	Subcategory SubcategoryDTO `json:"subcategory"`
}

// AddFieldRequest appends a field to a subcategory form
type AddFieldRequest struct {
	SubcategoryID uint                   `json:"-"`
	Field         models.FieldDefinition `json:"field"`
}

// FieldEditRequest targets one field of a subcategory form
type FieldEditRequest struct {
	SubcategoryID uint   `json:"-"`
	FieldID       string `json:"-"`
}

// CatalogImportResponse summarizes a spreadsheet or seed import
type CatalogImportResponse struct {
	Message              string   `json:"message"`
	CategoriesCreated    int      `json:"categories_created"`
	SubcategoriesCreated int      `json:"subcategories_created"`
	FieldsAdded          int      `json:"fields_added"`
	RowsSkipped          int      `json:"rows_skipped"`
	Warnings             []string `json:"warnings,omitempty"`
}
