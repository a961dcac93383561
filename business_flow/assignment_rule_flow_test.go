package businessflow

import (
	"context"
	"testing"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRuleFlow_Lifecycle(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	category := w.addCategory("Facilities & Equipment", nil)
	sub := w.addSubcategory(category.ID, "Studio Repair")
	manager := w.addUser(models.UserRoleManager)
	flow := NewAssignmentRuleFlow(w.rules, w.categories, w.subcategories, w.users)

	created, err := flow.CreateRule(ctx, &dto.CreateAssignmentRuleRequest{
		Name:           " Repairs to facilities ",
		CategoryID:     &category.ID,
		SubcategoryID:  &sub.ID,
		Department:     utils.ToPtr("facilities"),
		Priority:       utils.ToPtr("high"),
		AssignToUserID: &manager.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Repairs to facilities", created.Rule.Name)
	assert.Equal(t, "facilities", *created.Rule.Department)
	assert.Equal(t, "high", *created.Rule.Priority)
	assert.True(t, created.Rule.IsActive)

	updated, err := flow.UpdateRule(ctx, &dto.UpdateAssignmentRuleRequest{
		ID:               created.Rule.ID,
		ClearSubcategory: true,
		ClearPriority:    true,
		IsActive:         utils.ToPtr(false),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Rule.SubcategoryID)
	assert.Nil(t, updated.Rule.Priority)
	assert.Equal(t, category.ID, *updated.Rule.CategoryID)
	assert.False(t, updated.Rule.IsActive)

	list, err := flow.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, list.Rules, 1)

	require.NoError(t, flow.DeleteRule(ctx, created.Rule.ID))
	assert.True(t, IsAssignmentRuleNotFound(flow.DeleteRule(ctx, created.Rule.ID)))

	list, err = flow.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Rules)
}

func TestAssignmentRuleFlow_Rejections(t *testing.T) {
	w := newWorld()
	facilities := w.addCategory("Facilities & Equipment", nil)
	sales := w.addCategory("Sales", nil)
	salesSub := w.addSubcategory(sales.ID, "Memberships")
	missing := uint(999)
	flow := NewAssignmentRuleFlow(w.rules, w.categories, w.subcategories, w.users)

	tests := []struct {
		name  string
		req   dto.CreateAssignmentRuleRequest
		check func(error) bool
	}{
		{"blank name", dto.CreateAssignmentRuleRequest{Name: "  "}, IsInvalidInput},
		{"bad department", dto.CreateAssignmentRuleRequest{Name: "r", Department: utils.ToPtr("hr")}, IsInvalidInput},
		{"bad priority", dto.CreateAssignmentRuleRequest{Name: "r", Priority: utils.ToPtr("urgent")}, IsInvalidInput},
		{"missing category", dto.CreateAssignmentRuleRequest{Name: "r", CategoryID: &missing}, IsCategoryNotFound},
		{"missing subcategory", dto.CreateAssignmentRuleRequest{Name: "r", SubcategoryID: &missing}, IsSubcategoryNotFound},
		{"subcategory outside category", dto.CreateAssignmentRuleRequest{Name: "r", CategoryID: &facilities.ID, SubcategoryID: &salesSub.ID}, IsInvalidInput},
		{"missing assignee", dto.CreateAssignmentRuleRequest{Name: "r", AssignToUserID: &missing}, IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := flow.CreateRule(context.Background(), &tt.req)
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}

	_, err := flow.UpdateRule(context.Background(), &dto.UpdateAssignmentRuleRequest{ID: missing})
	assert.True(t, IsAssignmentRuleNotFound(err))
	assert.Zero(t, w.rules.saves)
}
