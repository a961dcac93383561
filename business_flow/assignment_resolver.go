package businessflow

import (
	"context"
	"fmt"

	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
)

// Rule scoring weights
const (
	scoreSubcategoryMatch = 4
	scoreCategoryMatch    = 2
	scoreDecides          = 1
)

// AssignmentCandidate is the partially specified routing of a new ticket
type AssignmentCandidate struct {
	CategoryID    uint
	SubcategoryID *uint
	Department    *models.Department
	Priority      *models.TicketPriority
	AssigneeID    *uint
}

// AssignmentDefaults are the catalog-configured fallbacks for department
type AssignmentDefaults struct {
	SubcategoryDepartment *models.Department
	CategoryDepartment    *models.Department
}

// AssignmentResult is the backfilled routing and the rule that won, if any
type AssignmentResult struct {
	Department  *models.Department
	Priority    *models.TicketPriority
	AssigneeID  *uint
	MatchedRule *models.AssignmentRule
}

// RuleMatches reports whether an active rule's scope covers the ticket
func RuleMatches(rule *models.AssignmentRule, categoryID uint, subcategoryID *uint) bool {
	if rule == nil || !utils.IsTrue(rule.IsActive) {
		return false
	}
	if rule.CategoryID != nil && *rule.CategoryID != categoryID {
		return false
	}
	if rule.SubcategoryID != nil {
		if subcategoryID == nil || *rule.SubcategoryID != *subcategoryID {
			return false
		}
	}
	return true
}

// ScoreRule rates a matching rule by specificity and by how much it decides
func ScoreRule(rule *models.AssignmentRule, categoryID uint, subcategoryID *uint) int {
	score := 0
	if rule.SubcategoryID != nil && subcategoryID != nil && *rule.SubcategoryID == *subcategoryID {
		score += scoreSubcategoryMatch
	}
	if rule.CategoryID != nil && *rule.CategoryID == categoryID {
		score += scoreCategoryMatch
	}
	if rule.AssignToUserID != nil {
		score += scoreDecides
	}
	if rule.Department != nil {
		score += scoreDecides
	}
	if rule.Priority != nil {
		score += scoreDecides
	}
	return score
}

// PickRule returns the highest scoring matching rule. Ties go to the rule
// that comes first in the given order; callers pass rules sorted by id so the
// oldest rule wins.
func PickRule(rules []*models.AssignmentRule, categoryID uint, subcategoryID *uint) *models.AssignmentRule {
	var best *models.AssignmentRule
	bestScore := -1
	for _, r := range rules {
		if !RuleMatches(r, categoryID, subcategoryID) {
			continue
		}
		if s := ScoreRule(r, categoryID, subcategoryID); s > bestScore {
			best, bestScore = r, s
		}
	}
	return best
}

// ResolveAssignment fills the unset department, priority and assignee of a
// candidate. Values the candidate already carries are never overwritten.
func ResolveAssignment(c AssignmentCandidate, rules []*models.AssignmentRule, defaults AssignmentDefaults) AssignmentResult {
	rule := PickRule(rules, c.CategoryID, c.SubcategoryID)
	res := AssignmentResult{
		Department:  c.Department,
		Priority:    c.Priority,
		AssigneeID:  c.AssigneeID,
		MatchedRule: rule,
	}

	if res.Department == nil {
		switch {
		case rule != nil && rule.Department != nil:
			res.Department = rule.Department
		case defaults.SubcategoryDepartment != nil:
			res.Department = defaults.SubcategoryDepartment
		case defaults.CategoryDepartment != nil:
			res.Department = defaults.CategoryDepartment
		}
	}

	if res.Priority == nil && rule != nil && rule.Priority != nil {
		res.Priority = rule.Priority
	}

	if res.AssigneeID == nil && rule != nil && rule.AssignToUserID != nil {
		res.AssigneeID = rule.AssignToUserID
	}

	return res
}

// AssignmentResolver loads rules and catalog defaults for a candidate ticket
type AssignmentResolver interface {
	Resolve(ctx context.Context, candidate AssignmentCandidate) (AssignmentResult, error)
}

// AssignmentResolverImpl implements AssignmentResolver
type AssignmentResolverImpl struct {
	ruleRepo        repository.AssignmentRuleRepository
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
}

func NewAssignmentResolver(
	ruleRepo repository.AssignmentRuleRepository,
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
) AssignmentResolver {
	return &AssignmentResolverImpl{
		ruleRepo:        ruleRepo,
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
	}
}

// Resolve treats a missing category, subcategory or rule as "no override"
func (r *AssignmentResolverImpl) Resolve(ctx context.Context, candidate AssignmentCandidate) (AssignmentResult, error) {
	rules, err := r.ruleRepo.ListMatching(ctx, candidate.CategoryID, candidate.SubcategoryID)
	if err != nil {
		return AssignmentResult{}, fmt.Errorf("list assignment rules: %w", err)
	}

	var defaults AssignmentDefaults
	category, err := r.categoryRepo.ByID(ctx, candidate.CategoryID)
	if err != nil {
		return AssignmentResult{}, fmt.Errorf("load category %d: %w", candidate.CategoryID, err)
	}
	if category != nil {
		defaults.CategoryDepartment = category.DefaultDepartment
	}

	if candidate.SubcategoryID != nil {
		sub, err := r.subcategoryRepo.ByID(ctx, *candidate.SubcategoryID)
		if err != nil {
			return AssignmentResult{}, fmt.Errorf("load subcategory %d: %w", *candidate.SubcategoryID, err)
		}
		if sub != nil {
			defaults.SubcategoryDepartment = sub.DefaultDepartment
		}
	}

	return ResolveAssignment(candidate, rules, defaults), nil
}
