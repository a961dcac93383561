package models

import "time"

// Category is the top level of the ticket taxonomy
// Table: categories
// Unique by name; soft-disabled through is_active
// The category named "Global" carries the fields merged into every form
type Category struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	Name              string      `gorm:"size:255;not null;uniqueIndex:uk_categories_name" json:"name"`
	Description       *string     `gorm:"type:text" json:"description,omitempty"`
	Icon              *string     `gorm:"size:64" json:"icon,omitempty"`
	Color             *string     `gorm:"size:32" json:"color,omitempty"`
	DefaultDepartment *Department `gorm:"size:32" json:"default_department,omitempty"`
	IsActive          *bool       `gorm:"default:true;index:idx_categories_is_active" json:"is_active"`
	CreatedAt         time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

func (Category) TableName() string { return "categories" }

// GlobalCatalogName names both the category and the subcategory holding global fields
const GlobalCatalogName = "Global"

// CategoryFilter represents filter criteria for category queries
type CategoryFilter struct {
	ID       *uint
	Name     *string
	IsActive *bool
}
