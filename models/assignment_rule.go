package models

import "time"

// AssignmentRule overrides department, priority or assignee for matching tickets
// Table: assignment_rules
// Nil CategoryID / SubcategoryID act as wildcards
type AssignmentRule struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	CategoryID     *uint           `gorm:"index" json:"category_id,omitempty"`
	SubcategoryID  *uint           `gorm:"index" json:"subcategory_id,omitempty"`
	Department     *Department     `gorm:"size:32" json:"department,omitempty"`
	Priority       *TicketPriority `gorm:"size:16" json:"priority,omitempty"`
	AssignToUserID *uint           `gorm:"index" json:"assign_to_user_id,omitempty"`
	AssignToTeamID *uint           `json:"assign_to_team_id,omitempty"`
	IsActive       *bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (AssignmentRule) TableName() string { return "assignment_rules" }

// AssignmentRuleFilter represents filter criteria for rule queries
type AssignmentRuleFilter struct {
	ID            *uint
	CategoryID    *uint
	SubcategoryID *uint
	IsActive      *bool
}
