package businessflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// CatalogImportFlow bulk-loads categories, subcategories and fields.
// Imports only add: existing rows and fields are left as they are, so
// running the same file twice is a no-op.
type CatalogImportFlow interface {
	ImportSpreadsheet(ctx context.Context, r io.Reader) (*dto.CatalogImportResponse, error)
	ImportSeed(ctx context.Context, data []byte) (*dto.CatalogImportResponse, error)
	LoadSeedFile(ctx context.Context, path string) (*dto.CatalogImportResponse, error)
}

// CatalogImportFlowImpl implements CatalogImportFlow
type CatalogImportFlowImpl struct {
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
	tx              repository.TxRunner
	catalog         FieldCatalog
}

func NewCatalogImportFlow(
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	tx repository.TxRunner,
	catalog FieldCatalog,
) CatalogImportFlow {
	return &CatalogImportFlowImpl{
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
		tx:              tx,
		catalog:         catalog,
	}
}

// seedFile is the YAML layout of CATALOG_SEED_FILE
type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
}

type seedCategory struct {
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	Icon              string            `yaml:"icon"`
	Color             string            `yaml:"color"`
	DefaultDepartment string            `yaml:"default_department"`
	Subcategories     []seedSubcategory `yaml:"subcategories"`
}

type seedSubcategory struct {
	Name              string      `yaml:"name"`
	Description       string      `yaml:"description"`
	DefaultDepartment string      `yaml:"default_department"`
	Fields            []seedField `yaml:"fields"`
}

type seedField struct {
	ID          string     `yaml:"id"`
	Label       string     `yaml:"label"`
	Type        string     `yaml:"type"`
	Options     []string   `yaml:"options"`
	Description string     `yaml:"description"`
	Required    bool       `yaml:"required"`
	Hidden      bool       `yaml:"hidden"`
	Validation  []seedRule `yaml:"validation"`
}

type seedRule struct {
	Type    string `yaml:"type"`
	Value   any    `yaml:"value"`
	Message string `yaml:"message"`
}

// importEntry is one subcategory with the fields to ensure on it
type importEntry struct {
	Category              string
	CategoryDescription   string
	CategoryIcon          string
	CategoryColor         string
	CategoryDepartment    string
	Subcategory           string
	SubcategoryDesc       string
	SubcategoryDepartment string
	Fields                []models.FieldDefinition
}

func (f *CatalogImportFlowImpl) LoadSeedFile(ctx context.Context, path string) (*dto.CatalogImportResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewBusinessError("SEED_READ_FAILED", "Failed to read catalog seed file", err)
	}
	return f.ImportSeed(ctx, data)
}

func (f *CatalogImportFlowImpl) ImportSeed(ctx context.Context, data []byte) (*dto.CatalogImportResponse, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, NewBusinessError("INVALID_CATALOG_FILE", "Catalog seed is not valid YAML", fmt.Errorf("%w: %v", ErrInvalidCatalogFile, err))
	}

	entries := make([]importEntry, 0)
	for _, c := range seed.Categories {
		if len(c.Subcategories) == 0 {
			entries = append(entries, importEntry{
				Category:            c.Name,
				CategoryDescription: c.Description,
				CategoryIcon:        c.Icon,
				CategoryColor:       c.Color,
				CategoryDepartment:  c.DefaultDepartment,
			})
			continue
		}
		for _, s := range c.Subcategories {
			e := importEntry{
				Category:              c.Name,
				CategoryDescription:   c.Description,
				CategoryIcon:          c.Icon,
				CategoryColor:         c.Color,
				CategoryDepartment:    c.DefaultDepartment,
				Subcategory:           s.Name,
				SubcategoryDesc:       s.Description,
				SubcategoryDepartment: s.DefaultDepartment,
			}
			for _, sf := range s.Fields {
				e.Fields = append(e.Fields, sf.toFieldDefinition())
			}
			entries = append(entries, e)
		}
	}
	return f.apply(ctx, entries, 0, nil)
}

func (sf seedField) toFieldDefinition() models.FieldDefinition {
	fd := models.FieldDefinition{
		ID:          sf.ID,
		Label:       sf.Label,
		FieldType:   models.NormalizeFieldType(sf.Type),
		Options:     sf.Options,
		Description: sf.Description,
		IsRequired:  sf.Required,
		IsHidden:    sf.Hidden,
	}
	for _, r := range sf.Validation {
		fd.Validation = append(fd.Validation, models.ValidationRule{Type: r.Type, Value: r.Value, Message: r.Message})
	}
	return fd
}

// Spreadsheet columns, matched by header name without regard to case
const (
	colCategory              = "category"
	colCategoryDepartment    = "category_department"
	colSubcategory           = "subcategory"
	colSubcategoryDepartment = "subcategory_department"
	colFieldID               = "field_id"
	colLabel                 = "label"
	colFieldType             = "field_type"
	colOptions               = "options"
	colRequired              = "required"
	colHidden                = "hidden"
	colDescription           = "description"
)

// ImportSpreadsheet reads the first sheet; one row per field. Rows without a
// category are skipped, rows without a field_id only ensure the tree.
func (f *CatalogImportFlowImpl) ImportSpreadsheet(ctx context.Context, r io.Reader) (*dto.CatalogImportResponse, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewBusinessError("INVALID_CATALOG_FILE", "File is not a valid XLSX workbook", fmt.Errorf("%w: %v", ErrInvalidCatalogFile, err))
	}
	defer func() { _ = xl.Close() }()

	rows, err := xl.GetRows(xl.GetSheetName(0))
	if err != nil {
		return nil, NewBusinessError("INVALID_CATALOG_FILE", "Failed to read workbook rows", fmt.Errorf("%w: %v", ErrInvalidCatalogFile, err))
	}
	if len(rows) == 0 {
		return nil, NewBusinessError("INVALID_CATALOG_FILE", "Workbook is empty", ErrInvalidCatalogFile)
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colCategory, colSubcategory} {
		if _, ok := index[required]; !ok {
			return nil, NewBusinessErrorf("INVALID_CATALOG_FILE", "Missing %q column", ErrInvalidCatalogFile, required)
		}
	}
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	skipped := 0
	var warnings []string
	grouped := make(map[string]*importEntry)
	order := make([]string, 0)
	for n, row := range rows[1:] {
		category := cell(row, colCategory)
		if category == "" {
			skipped++
			continue
		}
		sub := cell(row, colSubcategory)
		key := strings.ToLower(category) + "\x00" + strings.ToLower(sub)
		e, ok := grouped[key]
		if !ok {
			e = &importEntry{
				Category:              category,
				CategoryDepartment:    cell(row, colCategoryDepartment),
				Subcategory:           sub,
				SubcategoryDepartment: cell(row, colSubcategoryDepartment),
			}
			grouped[key] = e
			order = append(order, key)
		}

		fieldID := cell(row, colFieldID)
		if fieldID == "" {
			continue
		}
		if sub == "" {
			skipped++
			warnings = append(warnings, fmt.Sprintf("row %d: field %q has no subcategory", n+2, fieldID))
			continue
		}
		e.Fields = append(e.Fields, models.FieldDefinition{
			ID:          fieldID,
			Label:       cell(row, colLabel),
			FieldType:   models.NormalizeFieldType(cell(row, colFieldType)),
			Options:     splitOptions(cell(row, colOptions)),
			Description: cell(row, colDescription),
			IsRequired:  parseFlag(cell(row, colRequired)),
			IsHidden:    parseFlag(cell(row, colHidden)),
		})
	}

	entries := make([]importEntry, 0, len(order))
	for _, k := range order {
		entries = append(entries, *grouped[k])
	}
	return f.apply(ctx, entries, skipped, warnings)
}

// apply ensures every entry inside one transaction
func (f *CatalogImportFlowImpl) apply(ctx context.Context, entries []importEntry, skipped int, warnings []string) (*dto.CatalogImportResponse, error) {
	resp := &dto.CatalogImportResponse{RowsSkipped: skipped, Warnings: warnings}

	err := f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		for _, e := range entries {
			if err := f.applyEntry(txCtx, e, resp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var be *BusinessError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, NewBusinessError("CATALOG_IMPORT_FAILED", "Failed to import catalog", err)
	}
	f.catalog.Invalidate(ctx)

	resp.Message = fmt.Sprintf("Imported %d categories, %d subcategories, %d fields",
		resp.CategoriesCreated, resp.SubcategoriesCreated, resp.FieldsAdded)
	log.Printf("catalog import: %s (%d rows skipped)", resp.Message, resp.RowsSkipped)
	return resp, nil
}

func (f *CatalogImportFlowImpl) applyEntry(ctx context.Context, e importEntry, resp *dto.CatalogImportResponse) error {
	name := strings.TrimSpace(e.Category)
	if name == "" {
		resp.RowsSkipped++
		return nil
	}

	category, err := f.categoryRepo.ByName(ctx, name)
	if err != nil {
		return err
	}
	if category == nil {
		category = &models.Category{
			Name:              name,
			Description:       optionalString(e.CategoryDescription),
			Icon:              optionalString(e.CategoryIcon),
			Color:             optionalString(e.CategoryColor),
			DefaultDepartment: f.department(e.CategoryDepartment, resp),
			IsActive:          utils.ToPtr(true),
		}
		if err := f.categoryRepo.Save(ctx, category); err != nil {
			return err
		}
		resp.CategoriesCreated++
	}

	subName := strings.TrimSpace(e.Subcategory)
	if subName == "" {
		return nil
	}
	sub, err := f.subcategoryRepo.ByCategoryAndName(ctx, category.ID, subName)
	if err != nil {
		return err
	}
	if sub == nil {
		empty, err := models.NewFormDefinition(nil)
		if err != nil {
			return err
		}
		sub = &models.Subcategory{
			CategoryID:        category.ID,
			Name:              subName,
			Description:       optionalString(e.SubcategoryDesc),
			DefaultDepartment: f.department(e.SubcategoryDepartment, resp),
			FormFields:        empty,
			IsActive:          utils.ToPtr(true),
		}
		if err := f.subcategoryRepo.Save(ctx, sub); err != nil {
			return err
		}
		resp.SubcategoriesCreated++
	}

	fields := sub.Fields()
	added := 0
	for _, fd := range e.Fields {
		n, err := NormalizeFieldDefinition(fd)
		if err != nil {
			resp.RowsSkipped++
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s / %s: %v", name, subName, err))
			continue
		}
		if indexOfField(fields, n.ID) >= 0 {
			continue
		}
		fields = append(fields, n)
		added++
	}
	if added == 0 {
		return nil
	}

	form, err := models.NewFormDefinition(fields)
	if err != nil {
		return err
	}
	if err := f.subcategoryRepo.UpdateFormFields(ctx, sub.ID, form); err != nil {
		return err
	}
	resp.FieldsAdded += added
	return nil
}

func (f *CatalogImportFlowImpl) department(raw string, resp *dto.CatalogImportResponse) *models.Department {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := parseDepartment(&raw)
	if err != nil {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("unknown department %q ignored", raw))
		return nil
	}
	return d
}

func splitOptions(raw string) []string {
	if raw == "" {
		return nil
	}
	sep := ","
	if strings.Contains(raw, "|") {
		sep = "|"
	}
	out := make([]string, 0)
	for _, p := range strings.Split(raw, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "y", "yes", "true", "x":
		return true
	}
	return false
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
