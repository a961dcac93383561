package businessflow

import (
	"testing"

	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(id uint, opts ...func(*models.AssignmentRule)) *models.AssignmentRule {
	r := &models.AssignmentRule{ID: id, Name: "rule", IsActive: utils.ToPtr(true)}
	for _, o := range opts {
		o(r)
	}
	return r
}

func forCategory(id uint) func(*models.AssignmentRule) {
	return func(r *models.AssignmentRule) { r.CategoryID = &id }
}

func forSubcategory(id uint) func(*models.AssignmentRule) {
	return func(r *models.AssignmentRule) { r.SubcategoryID = &id }
}

func toDepartment(d models.Department) func(*models.AssignmentRule) {
	return func(r *models.AssignmentRule) { r.Department = &d }
}

func withPriority(p models.TicketPriority) func(*models.AssignmentRule) {
	return func(r *models.AssignmentRule) { r.Priority = &p }
}

func toUser(id uint) func(*models.AssignmentRule) {
	return func(r *models.AssignmentRule) { r.AssignToUserID = &id }
}

func inactive(r *models.AssignmentRule) { r.IsActive = utils.ToPtr(false) }

func TestRuleMatches(t *testing.T) {
	sub := uint(20)

	assert.True(t, RuleMatches(rule(1), 10, nil), "wildcard matches anything")
	assert.True(t, RuleMatches(rule(1, forCategory(10)), 10, &sub))
	assert.False(t, RuleMatches(rule(1, forCategory(11)), 10, &sub))
	assert.True(t, RuleMatches(rule(1, forCategory(10), forSubcategory(20)), 10, &sub))
	assert.False(t, RuleMatches(rule(1, forSubcategory(20)), 10, nil), "subcategory rule needs a subcategory")
	assert.False(t, RuleMatches(rule(1, inactive), 10, nil))
	assert.False(t, RuleMatches(nil, 10, nil))
}

func TestPickRule(t *testing.T) {
	sub := uint(20)

	t.Run("subcategory rule with assignee beats category rule", func(t *testing.T) {
		rules := []*models.AssignmentRule{
			rule(1, forCategory(10)),
			rule(2, forCategory(10), forSubcategory(20), toUser(5)),
		}
		got := PickRule(rules, 10, &sub)
		require.NotNil(t, got)
		assert.Equal(t, uint(2), got.ID)
	})

	t.Run("more decisions break specificity ties", func(t *testing.T) {
		rules := []*models.AssignmentRule{
			rule(1, forCategory(10), toDepartment(models.DepartmentOperations)),
			rule(2, forCategory(10), toDepartment(models.DepartmentSales), toUser(9)),
		}
		assert.Equal(t, uint(2), PickRule(rules, 10, nil).ID)
	})

	t.Run("equal score goes to the first rule", func(t *testing.T) {
		rules := []*models.AssignmentRule{
			rule(3, forCategory(10), toDepartment(models.DepartmentOperations)),
			rule(7, forCategory(10), toDepartment(models.DepartmentSales)),
		}
		assert.Equal(t, uint(3), PickRule(rules, 10, nil).ID)
	})

	t.Run("no match", func(t *testing.T) {
		rules := []*models.AssignmentRule{rule(1, forCategory(99)), rule(2, inactive)}
		assert.Nil(t, PickRule(rules, 10, &sub))
	})
}

func TestResolveAssignment(t *testing.T) {
	sub := uint(20)
	facilities := models.DepartmentFacilities
	frontDesk := models.DepartmentFrontDesk
	critical := models.TicketPriorityCritical
	assignee := uint(77)

	matching := rule(1, forCategory(10), toDepartment(models.DepartmentOperations), withPriority(models.TicketPriorityHigh), toUser(5))

	t.Run("backfills unset values from the rule", func(t *testing.T) {
		res := ResolveAssignment(AssignmentCandidate{CategoryID: 10}, []*models.AssignmentRule{matching}, AssignmentDefaults{})
		require.NotNil(t, res.Department)
		assert.Equal(t, models.DepartmentOperations, *res.Department)
		assert.Equal(t, models.TicketPriorityHigh, *res.Priority)
		assert.Equal(t, uint(5), *res.AssigneeID)
		assert.Equal(t, matching, res.MatchedRule)
	})

	t.Run("never overwrites caller values", func(t *testing.T) {
		res := ResolveAssignment(AssignmentCandidate{
			CategoryID: 10,
			Department: &frontDesk,
			Priority:   &critical,
			AssigneeID: &assignee,
		}, []*models.AssignmentRule{matching}, AssignmentDefaults{CategoryDepartment: &facilities})
		assert.Equal(t, models.DepartmentFrontDesk, *res.Department)
		assert.Equal(t, models.TicketPriorityCritical, *res.Priority)
		assert.Equal(t, uint(77), *res.AssigneeID)
	})

	t.Run("falls back to subcategory then category department", func(t *testing.T) {
		defaults := AssignmentDefaults{SubcategoryDepartment: &frontDesk, CategoryDepartment: &facilities}
		res := ResolveAssignment(AssignmentCandidate{CategoryID: 10, SubcategoryID: &sub}, nil, defaults)
		assert.Equal(t, models.DepartmentFrontDesk, *res.Department)
		assert.Nil(t, res.Priority)
		assert.Nil(t, res.AssigneeID)
		assert.Nil(t, res.MatchedRule)

		res = ResolveAssignment(AssignmentCandidate{CategoryID: 10}, nil, AssignmentDefaults{CategoryDepartment: &facilities})
		assert.Equal(t, models.DepartmentFacilities, *res.Department)
	})

	t.Run("rule without department still uses defaults", func(t *testing.T) {
		r := rule(4, forCategory(10), toUser(8))
		res := ResolveAssignment(AssignmentCandidate{CategoryID: 10}, []*models.AssignmentRule{r}, AssignmentDefaults{CategoryDepartment: &facilities})
		assert.Equal(t, models.DepartmentFacilities, *res.Department)
		assert.Equal(t, uint(8), *res.AssigneeID)
	})
}
