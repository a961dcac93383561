package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/dto"
	businessflow "github.com/p57/feedback-hub/business_flow"
)

// CatalogHandlerInterface defines the contract for catalog and form handlers
type CatalogHandlerInterface interface {
	ListCategories(c fiber.Ctx) error
	ListSubcategories(c fiber.Ctx) error
	GetSubcategoryFields(c fiber.Ctx) error
	GetFormFields(c fiber.Ctx) error
	ValidateForm(c fiber.Ctx) error
}

// CatalogHandler serves the category tree and dynamic forms
type CatalogHandler struct {
	baseHandler
	flow businessflow.CatalogFlow
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(flow businessflow.CatalogFlow) *CatalogHandler {
	return &CatalogHandler{baseHandler: newBaseHandler(), flow: flow}
}

// ListCategories
// @Summary List categories
// @Tags Catalog
// @Produce json
// @Param include_inactive query bool false "Include deactivated categories"
// @Success 200 {object} dto.APIResponse{data=dto.ListCategoriesResponse}
// @Failure 401 {object} dto.APIResponse
// @Router /api/v1/categories [get]
func (h *CatalogHandler) ListCategories(c fiber.Ctx) error {
	var req dto.ListCategoriesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/categories")
	defer cancel()

	result, err := h.flow.ListCategories(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list categories", "LIST_CATEGORIES_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ListSubcategories
// @Summary List the active subcategories of a category
// @Tags Catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} dto.APIResponse{data=dto.ListSubcategoriesResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/categories/{id}/subcategories [get]
func (h *CatalogHandler) ListSubcategories(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/categories/:id/subcategories")
	defer cancel()

	result, err := h.flow.ListSubcategories(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list subcategories", "LIST_SUBCATEGORIES_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetSubcategoryFields
// @Summary Normalized embedded fields of one subcategory
// @Tags Catalog
// @Produce json
// @Param id path int true "Subcategory ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubcategoryFieldsResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/subcategories/{id}/fields [get]
func (h *CatalogHandler) GetSubcategoryFields(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/subcategories/:id/fields")
	defer cancel()

	result, err := h.flow.GetSubcategoryFields(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to load fields", "GET_FIELDS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetFormFields
// @Summary Effective form for a category and optional subcategory
// @Description Global fields merged with subcategory fields, deduplicated by id, hidden fields removed
// @Tags Forms
// @Produce json
// @Param category_id query int true "Category ID"
// @Param subcategory_id query int false "Subcategory ID"
// @Success 200 {object} dto.APIResponse{data=dto.EffectiveFieldsResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/forms/fields [get]
func (h *CatalogHandler) GetFormFields(c fiber.Ctx) error {
	var req dto.EffectiveFieldsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/forms/fields")
	defer cancel()

	result, err := h.flow.GetEffectiveFields(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to build form", "GET_FIELDS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ValidateForm
// @Summary Validate dynamic answers
// @Description Returns 200 when every visible field passes, 422 with field id -> message otherwise
// @Tags Forms
// @Accept json
// @Produce json
// @Param request body dto.ValidateFormRequest true "Answers keyed by field id"
// @Success 200 {object} dto.APIResponse{data=dto.ValidateFormResponse}
// @Failure 422 {object} dto.APIResponse{data=dto.ValidateFormResponse}
// @Router /api/v1/forms/validate [post]
func (h *CatalogHandler) ValidateForm(c fiber.Ctx) error {
	var req dto.ValidateFormRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/forms/validate")
	defer cancel()

	result, err := h.flow.ValidateForm(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to validate form", "VALIDATE_FORM_FAILED")
	}
	if !result.Valid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.APIResponse{
			Success: false,
			Message: "Form has invalid fields",
			Data:    result,
			Error:   dto.ErrorDetail{Code: "FORM_INVALID", Details: result.Errors},
		})
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Form is valid", result)
}
