package handlers

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/dto"
	businessflow "github.com/p57/feedback-hub/business_flow"
)

const (
	maxImportFileSize = 10 << 20
	importTimeout     = time.Minute
)

// AdminCatalogHandlerInterface defines the contract for catalog administration handlers
type AdminCatalogHandlerInterface interface {
	CreateCategory(c fiber.Ctx) error
	UpdateCategory(c fiber.Ctx) error
	DeactivateCategory(c fiber.Ctx) error
	GetSubcategory(c fiber.Ctx) error
	CreateSubcategory(c fiber.Ctx) error
	UpdateSubcategory(c fiber.Ctx) error
	DeactivateSubcategory(c fiber.Ctx) error
	AddField(c fiber.Ctx) error
	RemoveField(c fiber.Ctx) error
	ToggleFieldHidden(c fiber.Ctx) error
	ToggleFieldRequired(c fiber.Ctx) error
	ImportSpreadsheet(c fiber.Ctx) error
}

// AdminCatalogHandler manages categories, subcategories and their form fields
type AdminCatalogHandler struct {
	baseHandler
	flow     businessflow.CategoryFlow
	importer businessflow.CatalogImportFlow
}

// NewAdminCatalogHandler creates a new catalog administration handler
func NewAdminCatalogHandler(flow businessflow.CategoryFlow, importer businessflow.CatalogImportFlow) *AdminCatalogHandler {
	return &AdminCatalogHandler{baseHandler: newBaseHandler(), flow: flow, importer: importer}
}

// CreateCategory
// @Summary Create a category
// @Tags Admin Catalog
// @Accept json
// @Produce json
// @Param request body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} dto.APIResponse{data=dto.CategoryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/admin/categories [post]
func (h *AdminCatalogHandler) CreateCategory(c fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/categories")
	defer cancel()

	result, err := h.flow.CreateCategory(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to create category", "CREATE_CATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// UpdateCategory
// @Summary Patch a category
// @Tags Admin Catalog
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body dto.UpdateCategoryRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.CategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/categories/{id} [put]
func (h *AdminCatalogHandler) UpdateCategory(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_ID", err.Error())
	}
	var req dto.UpdateCategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	req.ID = id

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/categories/:id")
	defer cancel()

	result, err := h.flow.UpdateCategory(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to update category", "UPDATE_CATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// DeactivateCategory
// @Summary Deactivate a category; tickets keep their reference
// @Tags Admin Catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} dto.APIResponse{data=dto.CategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/categories/{id} [delete]
func (h *AdminCatalogHandler) DeactivateCategory(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/categories/:id")
	defer cancel()

	result, err := h.flow.DeactivateCategory(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to deactivate category", "DEACTIVATE_CATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetSubcategory
// @Summary Subcategory with its full field list, hidden fields included
// @Tags Admin Catalog
// @Produce json
// @Param id path int true "Subcategory ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories/{id} [get]
func (h *AdminCatalogHandler) GetSubcategory(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/subcategories/:id")
	defer cancel()

	result, err := h.flow.GetSubcategory(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to load subcategory", "GET_SUBCATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateSubcategory
// @Summary Create a subcategory, optionally duplicating another's form
// @Tags Admin Catalog
// @Accept json
// @Produce json
// @Param request body dto.CreateSubcategoryRequest true "Subcategory"
// @Success 201 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories [post]
func (h *AdminCatalogHandler) CreateSubcategory(c fiber.Ctx) error {
	var req dto.CreateSubcategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/subcategories")
	defer cancel()

	result, err := h.flow.CreateSubcategory(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to create subcategory", "CREATE_SUBCATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// UpdateSubcategory
// @Summary Patch subcategory attributes
// @Tags Admin Catalog
// @Accept json
// @Produce json
// @Param id path int true "Subcategory ID"
// @Param request body dto.UpdateSubcategoryRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories/{id} [put]
func (h *AdminCatalogHandler) UpdateSubcategory(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_ID", err.Error())
	}
	var req dto.UpdateSubcategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	req.ID = id

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/subcategories/:id")
	defer cancel()

	result, err := h.flow.UpdateSubcategory(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to update subcategory", "UPDATE_SUBCATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// DeactivateSubcategory
// @Summary Deactivate a subcategory
// @Tags Admin Catalog
// @Produce json
// @Param id path int true "Subcategory ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories/{id} [delete]
func (h *AdminCatalogHandler) DeactivateSubcategory(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/subcategories/:id")
	defer cancel()

	result, err := h.flow.DeactivateSubcategory(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to deactivate subcategory", "DEACTIVATE_SUBCATEGORY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// AddField
// @Summary Append a field to a subcategory form
// @Tags Admin Catalog
// @Accept json
// @Produce json
// @Param id path int true "Subcategory ID"
// @Param request body dto.AddFieldRequest true "Field definition"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Field id already present"
// @Router /api/v1/admin/subcategories/{id}/fields [post]
func (h *AdminCatalogHandler) AddField(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_ID", err.Error())
	}
	var req dto.AddFieldRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.SubcategoryID = id

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/subcategories/:id/fields")
	defer cancel()

	result, err := h.flow.AddField(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to add field", "ADD_FIELD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// RemoveField
// @Summary Remove a field from a subcategory form
// @Tags Admin Catalog
// @Produce json
// @Param id path int true "Subcategory ID"
// @Param field_id path string true "Field ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories/{id}/fields/{field_id} [delete]
func (h *AdminCatalogHandler) RemoveField(c fiber.Ctx) error {
	return h.fieldEdit(c, "/api/v1/admin/subcategories/:id/fields/:field_id", h.flow.RemoveField)
}

// ToggleFieldHidden
// @Summary Flip a field's hidden flag
// @Tags Admin Catalog
// @Produce json
// @Param id path int true "Subcategory ID"
// @Param field_id path string true "Field ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories/{id}/fields/{field_id}/hidden [patch]
func (h *AdminCatalogHandler) ToggleFieldHidden(c fiber.Ctx) error {
	return h.fieldEdit(c, "/api/v1/admin/subcategories/:id/fields/:field_id/hidden", h.flow.ToggleFieldHidden)
}

// ToggleFieldRequired
// @Summary Flip a field's required flag
// @Tags Admin Catalog
// @Produce json
// @Param id path int true "Subcategory ID"
// @Param field_id path string true "Field ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/subcategories/{id}/fields/{field_id}/required [patch]
func (h *AdminCatalogHandler) ToggleFieldRequired(c fiber.Ctx) error {
	return h.fieldEdit(c, "/api/v1/admin/subcategories/:id/fields/:field_id/required", h.flow.ToggleFieldRequired)
}

func (h *AdminCatalogHandler) fieldEdit(
	c fiber.Ctx,
	endpoint string,
	op func(ctx context.Context, req *dto.FieldEditRequest) (*dto.SubcategoryResponse, error),
) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_ID", err.Error())
	}
	fieldID, err := url.PathUnescape(c.Params("field_id"))
	if err != nil || fieldID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid field ID", "INVALID_FIELD_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, endpoint)
	defer cancel()

	result, err := op(ctx, &dto.FieldEditRequest{SubcategoryID: id, FieldID: fieldID})
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to edit field", "EDIT_FIELD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ImportSpreadsheet
// @Summary Bulk import categories, subcategories and fields from an .xlsx workbook
// @Description Idempotent: existing categories and subcategories are reused and only new field ids are appended.
// @Tags Admin Catalog
// @Accept mpfd
// @Produce json
// @Param file formData file true "Workbook (.xlsx, <=10MB)"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogImportResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/admin/catalog/import [post]
func (h *AdminCatalogHandler) ImportSpreadsheet(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Workbook file is required", "FILE_REQUIRED", err.Error())
	}
	if fileHeader.Size > maxImportFileSize {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Workbook exceeds 10MB", "FILE_TOO_LARGE", nil)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read upload", "FILE_UPLOAD_FAILED", err.Error())
	}
	defer f.Close()

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/admin/catalog/import", importTimeout)
	defer cancel()

	result, err := h.importer.ImportSpreadsheet(ctx, f)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to import catalog", "CATALOG_IMPORT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
