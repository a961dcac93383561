package businessflow

import (
	"context"
	"strings"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
)

// AssignmentRuleFlow is the settings surface for routing rules
type AssignmentRuleFlow interface {
	ListRules(ctx context.Context) (*dto.ListAssignmentRulesResponse, error)
	CreateRule(ctx context.Context, req *dto.CreateAssignmentRuleRequest) (*dto.AssignmentRuleResponse, error)
	UpdateRule(ctx context.Context, req *dto.UpdateAssignmentRuleRequest) (*dto.AssignmentRuleResponse, error)
	DeleteRule(ctx context.Context, id uint) error
}

// AssignmentRuleFlowImpl implements AssignmentRuleFlow
type AssignmentRuleFlowImpl struct {
	ruleRepo        repository.AssignmentRuleRepository
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
	userRepo        repository.UserRepository
}

func NewAssignmentRuleFlow(
	ruleRepo repository.AssignmentRuleRepository,
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	userRepo repository.UserRepository,
) AssignmentRuleFlow {
	return &AssignmentRuleFlowImpl{
		ruleRepo:        ruleRepo,
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
		userRepo:        userRepo,
	}
}

func (f *AssignmentRuleFlowImpl) ListRules(ctx context.Context) (*dto.ListAssignmentRulesResponse, error) {
	rows, err := f.ruleRepo.ByFilter(ctx, models.AssignmentRuleFilter{}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_RULES_FAILED", "Failed to list assignment rules", err)
	}
	out := make([]dto.AssignmentRuleDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToAssignmentRuleDTO(*r))
	}
	return &dto.ListAssignmentRulesResponse{Message: "Assignment rules retrieved", Rules: out}, nil
}

func (f *AssignmentRuleFlowImpl) CreateRule(ctx context.Context, req *dto.CreateAssignmentRuleRequest) (*dto.AssignmentRuleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Rule name is required", ErrAssignmentRuleNameRequired)
	}
	department, err := parseDepartment(req.Department)
	if err != nil {
		return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, NewBusinessError("INVALID_PRIORITY", "Unknown priority", err)
	}

	rule := &models.AssignmentRule{
		Name:           name,
		CategoryID:     req.CategoryID,
		SubcategoryID:  req.SubcategoryID,
		Department:     department,
		Priority:       priority,
		AssignToUserID: req.AssignToUserID,
		AssignToTeamID: req.AssignToTeamID,
		IsActive:       utils.ToPtr(req.IsActive == nil || *req.IsActive),
	}
	if err := f.checkScope(ctx, rule); err != nil {
		return nil, err
	}
	if err := f.ruleRepo.Save(ctx, rule); err != nil {
		return nil, NewBusinessError("CREATE_RULE_FAILED", "Failed to create assignment rule", err)
	}
	return &dto.AssignmentRuleResponse{Message: "Assignment rule created", Rule: ToAssignmentRuleDTO(*rule)}, nil
}

func (f *AssignmentRuleFlowImpl) UpdateRule(ctx context.Context, req *dto.UpdateAssignmentRuleRequest) (*dto.AssignmentRuleResponse, error) {
	rule, err := f.ruleRepo.ByID(ctx, req.ID)
	if err != nil {
		return nil, NewBusinessError("GET_RULE_FAILED", "Failed to load assignment rule", err)
	}
	if rule == nil {
		return nil, NewBusinessError("RULE_NOT_FOUND", "Assignment rule not found", ErrAssignmentRuleNotFound)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewBusinessError("VALIDATION_ERROR", "Rule name is required", ErrAssignmentRuleNameRequired)
		}
		rule.Name = name
	}
	rule.CategoryID = patchUint(rule.CategoryID, req.CategoryID, req.ClearCategory)
	rule.SubcategoryID = patchUint(rule.SubcategoryID, req.SubcategoryID, req.ClearSubcategory)
	rule.AssignToUserID = patchUint(rule.AssignToUserID, req.AssignToUserID, req.ClearAssignToUserID)
	rule.AssignToTeamID = patchUint(rule.AssignToTeamID, req.AssignToTeamID, req.ClearAssignToTeamID)

	switch {
	case req.ClearDepartment:
		rule.Department = nil
	case req.Department != nil:
		d, err := parseDepartment(req.Department)
		if err != nil {
			return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
		}
		rule.Department = d
	}
	switch {
	case req.ClearPriority:
		rule.Priority = nil
	case req.Priority != nil:
		p, err := parsePriority(req.Priority)
		if err != nil {
			return nil, NewBusinessError("INVALID_PRIORITY", "Unknown priority", err)
		}
		rule.Priority = p
	}
	if req.IsActive != nil {
		rule.IsActive = req.IsActive
	}

	if err := f.checkScope(ctx, rule); err != nil {
		return nil, err
	}
	rule.UpdatedAt = utils.UTCNow()
	if err := f.ruleRepo.Update(ctx, rule); err != nil {
		return nil, NewBusinessError("UPDATE_RULE_FAILED", "Failed to update assignment rule", err)
	}
	return &dto.AssignmentRuleResponse{Message: "Assignment rule updated", Rule: ToAssignmentRuleDTO(*rule)}, nil
}

func (f *AssignmentRuleFlowImpl) DeleteRule(ctx context.Context, id uint) error {
	rule, err := f.ruleRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("GET_RULE_FAILED", "Failed to load assignment rule", err)
	}
	if rule == nil {
		return NewBusinessError("RULE_NOT_FOUND", "Assignment rule not found", ErrAssignmentRuleNotFound)
	}
	if err := f.ruleRepo.Delete(ctx, id); err != nil {
		return NewBusinessError("DELETE_RULE_FAILED", "Failed to delete assignment rule", err)
	}
	return nil
}

// checkScope verifies referenced rows exist and that a scoped subcategory
// sits under the scoped category
func (f *AssignmentRuleFlowImpl) checkScope(ctx context.Context, rule *models.AssignmentRule) error {
	if rule.CategoryID != nil {
		c, err := f.categoryRepo.ByID(ctx, *rule.CategoryID)
		if err != nil {
			return NewBusinessError("RULE_SCOPE_CHECK_FAILED", "Failed to load category", err)
		}
		if c == nil {
			return NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
		}
	}
	if rule.SubcategoryID != nil {
		s, err := f.subcategoryRepo.ByID(ctx, *rule.SubcategoryID)
		if err != nil {
			return NewBusinessError("RULE_SCOPE_CHECK_FAILED", "Failed to load subcategory", err)
		}
		if s == nil {
			return NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found", ErrSubcategoryNotFound)
		}
		if rule.CategoryID != nil && s.CategoryID != *rule.CategoryID {
			return NewBusinessError("VALIDATION_ERROR", "Subcategory does not belong to the category", ErrSubcategoryCategoryMismatch)
		}
	}
	if rule.AssignToUserID != nil {
		u, err := f.userRepo.ByID(ctx, *rule.AssignToUserID)
		if err != nil {
			return NewBusinessError("RULE_SCOPE_CHECK_FAILED", "Failed to load assignee", err)
		}
		if u == nil {
			return NewBusinessError("ASSIGNEE_NOT_FOUND", "Assignee not found", ErrAssigneeNotFound)
		}
	}
	return nil
}

func patchUint(current, next *uint, clear bool) *uint {
	if clear {
		return nil
	}
	if next != nil {
		return next
	}
	return current
}
