package businessflow

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/p57/feedback-hub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const seedYAML = `
categories:
  - name: Global
    subcategories:
      - name: Global
        fields:
          - id: GLB-001
            label: Client Name
            type: text
            required: true
  - name: Facilities & Equipment
    default_department: facilities
    icon: wrench
    subcategories:
      - name: Studio Repair & Maintenance
        fields:
          - id: FAC-001
            label: Equipment
            type: dropdown
            options: [Treadmill, Rower]
          - id: FAC-002
            label: Rating
            type: number
            validation:
              - type: max
                value: 5
          - id: FAC-003
            label: Broken
            type: dropdown
  - name: Sales
    default_department: nowhere
`

func newImportHarness() (*world, *stubCatalog, CatalogImportFlow) {
	w := newWorld()
	catalog := &stubCatalog{}
	return w, catalog, NewCatalogImportFlow(w.categories, w.subcategories, w.tx, catalog)
}

func TestImportSeed(t *testing.T) {
	w, catalog, flow := newImportHarness()
	ctx := context.Background()

	resp, err := flow.ImportSeed(ctx, []byte(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.CategoriesCreated)
	assert.Equal(t, 2, resp.SubcategoriesCreated)
	assert.Equal(t, 3, resp.FieldsAdded)
	// FAC-003 dropdown without options
	assert.Equal(t, 1, resp.RowsSkipped)
	assert.Len(t, resp.Warnings, 2)
	assert.Equal(t, 1, catalog.invalidations)

	facilities, _ := w.categories.ByName(ctx, "facilities & equipment")
	require.NotNil(t, facilities)
	assert.Equal(t, models.DepartmentFacilities, *facilities.DefaultDepartment)
	assert.Equal(t, "wrench", *facilities.Icon)

	sales, _ := w.categories.ByName(ctx, "Sales")
	require.NotNil(t, sales)
	assert.Nil(t, sales.DefaultDepartment)

	sub, _ := w.subcategories.ByCategoryAndName(ctx, facilities.ID, "Studio Repair & Maintenance")
	require.NotNil(t, sub)
	fields := sub.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, models.FieldTypeDropdown, fields[0].FieldType)
	assert.Equal(t, []string{"Treadmill", "Rower"}, fields[0].Options)
	assert.Equal(t, models.FieldTypeNumber, fields[1].FieldType)
	bound, ok := fields[1].Validation[0].NumberValue()
	assert.True(t, ok)
	assert.Equal(t, 5.0, bound)

	again, err := flow.ImportSeed(ctx, []byte(seedYAML))
	require.NoError(t, err)
	assert.Zero(t, again.CategoriesCreated)
	assert.Zero(t, again.SubcategoriesCreated)
	assert.Zero(t, again.FieldsAdded)
}

func TestImportSeed_InvalidYAML(t *testing.T) {
	_, catalog, flow := newImportHarness()
	_, err := flow.ImportSeed(context.Background(), []byte("categories: [unclosed"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCatalogFile)
	assert.Zero(t, catalog.invalidations)
}

func TestLoadSeedFile(t *testing.T) {
	_, _, flow := newImportHarness()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	resp, err := flow.LoadSeedFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.CategoriesCreated)

	_, err = flow.LoadSeedFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()
	sheet := xl.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, xl.SetSheetRow(sheet, cell, &row))
	}
	buf, err := xl.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportSpreadsheet(t *testing.T) {
	w, _, flow := newImportHarness()
	ctx := context.Background()

	buf := workbook(t, [][]any{
		{"Category", "Category_Department", "Subcategory", "Field_ID", "Label", "Field_Type", "Options", "Required", "Hidden"},
		{"Member Experience", "customer_experience", "Cleanliness", "CLN-001", "Area", "Dropdown", "Locker room | Studio", "yes", ""},
		{"Member Experience", "", "Cleanliness", "CLN-002", "Details", "long text", "", "", "x"},
		{"Member Experience", "", "Noise", "", "", "", "", "", ""},
		{"", "", "Orphan", "ORP-001", "", "", "", "", ""},
		{"Sales", "", "", "SAL-001", "Lead", "text", "", "", ""},
	})

	resp, err := flow.ImportSpreadsheet(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.CategoriesCreated)
	assert.Equal(t, 2, resp.SubcategoriesCreated)
	assert.Equal(t, 2, resp.FieldsAdded)
	assert.Equal(t, 2, resp.RowsSkipped)

	category, _ := w.categories.ByName(ctx, "Member Experience")
	require.NotNil(t, category)
	assert.Equal(t, models.DepartmentCustomerExperience, *category.DefaultDepartment)

	sub, _ := w.subcategories.ByCategoryAndName(ctx, category.ID, "Cleanliness")
	require.NotNil(t, sub)
	fields := sub.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, []string{"Locker room", "Studio"}, fields[0].Options)
	assert.True(t, fields[0].IsRequired)
	assert.Equal(t, models.FieldTypeLongText, fields[1].FieldType)
	assert.True(t, fields[1].IsHidden)
}

func TestImportSpreadsheet_BadInput(t *testing.T) {
	_, _, flow := newImportHarness()

	_, err := flow.ImportSpreadsheet(context.Background(), bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, ErrInvalidCatalogFile)

	buf := workbook(t, [][]any{{"Name", "Label"}, {"x", "y"}})
	_, err = flow.ImportSpreadsheet(context.Background(), buf)
	assert.ErrorIs(t, err, ErrInvalidCatalogFile)
}
