package businessflow

import (
	"context"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
)

// CatalogFlow serves the category tree and the dynamic forms it defines
type CatalogFlow interface {
	ListCategories(ctx context.Context, req *dto.ListCategoriesRequest) (*dto.ListCategoriesResponse, error)
	ListSubcategories(ctx context.Context, categoryID uint) (*dto.ListSubcategoriesResponse, error)
	GetSubcategoryFields(ctx context.Context, subcategoryID uint) (*dto.SubcategoryFieldsResponse, error)
	GetEffectiveFields(ctx context.Context, req *dto.EffectiveFieldsRequest) (*dto.EffectiveFieldsResponse, error)
	ValidateForm(ctx context.Context, req *dto.ValidateFormRequest) (*dto.ValidateFormResponse, error)
}

// CatalogFlowImpl implements CatalogFlow
type CatalogFlowImpl struct {
	categoryRepo repository.CategoryRepository
	catalog      FieldCatalog
	metrics      IntakeMetrics
}

func NewCatalogFlow(categoryRepo repository.CategoryRepository, catalog FieldCatalog, metrics IntakeMetrics) CatalogFlow {
	if metrics == nil {
		metrics = NoopIntakeMetrics()
	}
	return &CatalogFlowImpl{categoryRepo: categoryRepo, catalog: catalog, metrics: metrics}
}

func (f *CatalogFlowImpl) ListCategories(ctx context.Context, req *dto.ListCategoriesRequest) (*dto.ListCategoriesResponse, error) {
	filter := models.CategoryFilter{}
	if req == nil || !req.IncludeInactive {
		filter.IsActive = utils.ToPtr(true)
	}
	rows, err := f.categoryRepo.ByFilter(ctx, filter, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_CATEGORIES_FAILED", "Failed to list categories", err)
	}

	out := make([]dto.CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, ToCategoryDTO(*c))
	}
	return &dto.ListCategoriesResponse{Message: "Categories retrieved", Categories: out}, nil
}

func (f *CatalogFlowImpl) ListSubcategories(ctx context.Context, categoryID uint) (*dto.ListSubcategoriesResponse, error) {
	rows, err := f.catalog.SubcategoriesForCategory(ctx, categoryID)
	if err != nil {
		return nil, NewBusinessError("LIST_SUBCATEGORIES_FAILED", "Failed to list subcategories", err)
	}

	out := make([]dto.SubcategoryDTO, 0, len(rows))
	for _, s := range rows {
		out = append(out, ToSubcategoryDTO(*s, false))
	}
	return &dto.ListSubcategoriesResponse{
		Message:       "Subcategories retrieved",
		CategoryID:    categoryID,
		Subcategories: out,
	}, nil
}

func (f *CatalogFlowImpl) GetSubcategoryFields(ctx context.Context, subcategoryID uint) (*dto.SubcategoryFieldsResponse, error) {
	fields, err := f.catalog.GetFieldsForSubcategory(ctx, subcategoryID)
	if err != nil {
		return nil, NewBusinessError("GET_FIELDS_FAILED", "Failed to load subcategory fields", err)
	}
	return &dto.SubcategoryFieldsResponse{
		Message:       "Fields retrieved",
		SubcategoryID: subcategoryID,
		Fields:        fields,
	}, nil
}

func (f *CatalogFlowImpl) GetEffectiveFields(ctx context.Context, req *dto.EffectiveFieldsRequest) (*dto.EffectiveFieldsResponse, error) {
	fields, err := f.catalog.EffectiveFields(ctx, req.CategoryID, req.SubcategoryID)
	if err != nil {
		return nil, NewBusinessError("GET_FIELDS_FAILED", "Failed to build form fields", err)
	}

	out := make([]dto.EffectiveFieldDTO, 0, len(fields))
	for _, fd := range fields {
		out = append(out, dto.EffectiveFieldDTO{FieldDefinition: fd, Widget: fd.FieldType.Widget()})
	}
	return &dto.EffectiveFieldsResponse{
		Message:       "Form fields retrieved",
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Fields:        out,
		VisibleCount:  len(out),
	}, nil
}

func (f *CatalogFlowImpl) ValidateForm(ctx context.Context, req *dto.ValidateFormRequest) (*dto.ValidateFormResponse, error) {
	fields, err := f.catalog.EffectiveFields(ctx, req.CategoryID, req.SubcategoryID)
	if err != nil {
		return nil, NewBusinessError("VALIDATE_FORM_FAILED", "Failed to load form fields", err)
	}

	errs := ValidateForm(fields, req.Answers)
	if len(errs) > 0 {
		f.metrics.FormRejected(len(errs))
	}
	return &dto.ValidateFormResponse{Valid: len(errs) == 0, Errors: errs}, nil
}
