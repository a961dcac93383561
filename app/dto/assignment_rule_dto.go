package dto

// AssignmentRuleDTO is the public shape of an assignment rule
type AssignmentRuleDTO struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	CategoryID     *uint   `json:"category_id,omitempty"`
	SubcategoryID  *uint   `json:"subcategory_id,omitempty"`
	Department     *string `json:"department,omitempty"`
	Priority       *string `json:"priority,omitempty"`
	AssignToUserID *uint   `json:"assign_to_user_id,omitempty"`
	AssignToTeamID *uint   `json:"assign_to_team_id,omitempty"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// CreateAssignmentRuleRequest creates a rule; nil scope ids are wildcards
type CreateAssignmentRuleRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	CategoryID     *uint   `json:"category_id,omitempty" validate:"omitempty"`
	SubcategoryID  *uint   `json:"subcategory_id,omitempty" validate:"omitempty"`
	Department     *string `json:"department,omitempty" validate:"omitempty"`
	Priority       *string `json:"priority,omitempty" validate:"omitempty"`
	AssignToUserID *uint   `json:"assign_to_user_id,omitempty" validate:"omitempty"`
	AssignToTeamID *uint   `json:"assign_to_team_id,omitempty" validate:"omitempty"`
	IsActive       *bool   `json:"is_active,omitempty" validate:"omitempty"`
}

// UpdateAssignmentRuleRequest replaces the rule's scope and outcome.
// Clear* flags reset the matching optional column to null.
type UpdateAssignmentRuleRequest struct {
	ID                  uint    `json:"-"`
	Name                *string `json:"name,omitempty" validate:"omitempty,max=255"`
	CategoryID          *uint   `json:"category_id,omitempty" validate:"omitempty"`
	SubcategoryID       *uint   `json:"subcategory_id,omitempty" validate:"omitempty"`
	Department          *string `json:"department,omitempty" validate:"omitempty"`
	Priority            *string `json:"priority,omitempty" validate:"omitempty"`
	AssignToUserID      *uint   `json:"assign_to_user_id,omitempty" validate:"omitempty"`
	AssignToTeamID      *uint   `json:"assign_to_team_id,omitempty" validate:"omitempty"`
	IsActive            *bool   `json:"is_active,omitempty" validate:"omitempty"`
	ClearCategory       bool    `json:"clear_category,omitempty"`
	ClearSubcategory    bool    `json:"clear_subcategory,omitempty"`
	ClearDepartment     bool    `json:"clear_department,omitempty"`
	ClearPriority       bool    `json:"clear_priority,omitempty"`
	ClearAssignToUserID bool    `json:"clear_assign_to_user_id,omitempty"`
	ClearAssignToTeamID bool    `json:"clear_assign_to_team_id,omitempty"`
}

// AssignmentRuleResponse returns one rule
type AssignmentRuleResponse struct {
	Message string            `json:"message"`
	Rule    AssignmentRuleDTO `json:"rule"`
}

// ListAssignmentRulesResponse lists rules
type ListAssignmentRulesResponse struct {
	Message string              `json:"message"`
	Rules   []AssignmentRuleDTO `json:"rules"`
}
