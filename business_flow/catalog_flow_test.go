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

func seedGlobal(w *world, fields ...models.FieldDefinition) {
	global := w.addCategory("Global", nil)
	w.addSubcategory(global.ID, "global", fields...)
}

func TestFieldCatalog_EffectiveFields(t *testing.T) {
	w := newWorld()
	seedGlobal(w,
		field("GLB-001", withLabel("Client Name"), required),
		field("GLB-002", withLabel("Internal Ref"), hidden),
		field("GLB-003", withLabel("Mood")),
	)
	category := w.addCategory("Facilities & Equipment", nil)
	sub := w.addSubcategory(category.ID, "Studio Repair",
		field("FAC-001", withLabel("Equipment")),
		field("GLB-003", hidden),
	)

	catalog := NewFieldCatalog(w.categories, w.subcategories, nil, 0, "")

	fields, err := catalog.EffectiveFields(context.Background(), category.ID, &sub.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLB-001", "FAC-001"}, ids(fields))

	fields, err = catalog.EffectiveFields(context.Background(), category.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLB-001", "GLB-003"}, ids(fields))

	missing := uint(999)
	fields, err = catalog.EffectiveFields(context.Background(), category.ID, &missing)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLB-001", "GLB-003"}, ids(fields))
}

func TestFieldCatalog_MissingGlobalAndEmptyLists(t *testing.T) {
	w := newWorld()
	catalog := NewFieldCatalog(w.categories, w.subcategories, nil, 0, "")

	global, err := catalog.GetGlobalFields(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, global)
	assert.Empty(t, global)

	subs, err := catalog.SubcategoriesForCategory(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)

	fields, err := catalog.GetFieldsForSubcategory(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, fields)

	// no cache configured
	catalog.Invalidate(context.Background())
}

func TestFieldCatalog_InactiveSubcategoriesHidden(t *testing.T) {
	w := newWorld()
	category := w.addCategory("Sales", nil)
	w.addSubcategory(category.ID, "Memberships")
	retired := w.addSubcategory(category.ID, "Old promo")
	retired.IsActive = utils.ToPtr(false)
	require.NoError(t, w.subcategories.Update(context.Background(), retired))

	catalog := NewFieldCatalog(w.categories, w.subcategories, nil, 0, "")
	subs, err := catalog.SubcategoriesForCategory(context.Background(), category.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Memberships", subs[0].Name)
}

func TestCatalogFlow_ValidateForm(t *testing.T) {
	w := newWorld()
	seedGlobal(w, field("client_name", withLabel("Client Name"), required))
	category := w.addCategory("Facilities & Equipment", nil)
	sub := w.addSubcategory(category.ID, "Studio Repair",
		field("severity", withLabel("Severity"), withRules(models.ValidationRule{Type: models.RuleMax, Value: 5.0})),
		field("secret", required, hidden),
	)
	metrics := &recordingMetrics{}
	flow := NewCatalogFlow(w.categories, NewFieldCatalog(w.categories, w.subcategories, nil, 0, ""), metrics)

	resp, err := flow.ValidateForm(context.Background(), &dto.ValidateFormRequest{
		CategoryID:    category.ID,
		SubcategoryID: &sub.ID,
		Answers:       map[string]any{"severity": 8.0},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, map[string]string{
		"client_name": "Client Name is required",
		"severity":    "Severity must be at most 5",
	}, resp.Errors)
	assert.Equal(t, []int{2}, metrics.rejected)

	resp, err = flow.ValidateForm(context.Background(), &dto.ValidateFormRequest{
		CategoryID:    category.ID,
		SubcategoryID: &sub.ID,
		Answers:       map[string]any{"client_name": "Dana", "severity": 3.0},
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)
}

func TestCatalogFlow_Listing(t *testing.T) {
	w := newWorld()
	category := w.addCategory("Member Experience", nil)
	retired := w.addCategory("Retired", nil)
	retired.IsActive = utils.ToPtr(false)
	require.NoError(t, w.categories.Update(context.Background(), retired))
	w.addSubcategory(category.ID, "Cleanliness", field("a"), field("b", hidden))

	flow := NewCatalogFlow(w.categories, NewFieldCatalog(w.categories, w.subcategories, nil, 0, ""), nil)

	cats, err := flow.ListCategories(context.Background(), &dto.ListCategoriesRequest{})
	require.NoError(t, err)
	require.Len(t, cats.Categories, 1)

	cats, err = flow.ListCategories(context.Background(), &dto.ListCategoriesRequest{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, cats.Categories, 2)

	subs, err := flow.ListSubcategories(context.Background(), category.ID)
	require.NoError(t, err)
	require.Len(t, subs.Subcategories, 1)
	assert.Equal(t, 2, subs.Subcategories[0].FieldCount)
	assert.Equal(t, 1, subs.Subcategories[0].VisibleFieldCount)

	form, err := flow.GetEffectiveFields(context.Background(), &dto.EffectiveFieldsRequest{CategoryID: category.ID, SubcategoryID: &subs.Subcategories[0].ID})
	require.NoError(t, err)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, models.WidgetText, form.Fields[0].Widget)
	assert.Equal(t, 1, form.VisibleCount)
}
