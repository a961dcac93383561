package models

import "time"

// Subcategory belongs to a category and embeds its dynamic form definition
// Table: subcategories
// Unique by (category_id, name)
// FormFields holds either a bare field array or {"fields": [...]}; read it through Fields()
type Subcategory struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CategoryID        uint           `gorm:"not null;index;uniqueIndex:uk_subcategories_category_name" json:"category_id"`
	Name              string         `gorm:"size:255;not null;uniqueIndex:uk_subcategories_category_name" json:"name"`
	Description       *string        `gorm:"type:text" json:"description,omitempty"`
	DefaultDepartment *Department    `gorm:"size:32" json:"default_department,omitempty"`
	FormFields        FormDefinition `gorm:"type:jsonb;not null;default:'[]'" json:"form_fields"`
	IsActive          *bool          `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
}

func (Subcategory) TableName() string { return "subcategories" }

// Fields returns the normalized embedded field list
func (s Subcategory) Fields() []FieldDefinition {
	return s.FormFields.Fields()
}

// SubcategoryFilter represents filter criteria for subcategory queries
type SubcategoryFilter struct {
	ID         *uint
	CategoryID *uint
	Name       *string
	IsActive   *bool
}
