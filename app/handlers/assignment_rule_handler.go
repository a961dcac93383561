package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/dto"
	businessflow "github.com/p57/feedback-hub/business_flow"
)

// AssignmentRuleHandler manages intake routing rules
type AssignmentRuleHandler struct {
	baseHandler
	flow businessflow.AssignmentRuleFlow
}

// NewAssignmentRuleHandler creates a new assignment rule handler
func NewAssignmentRuleHandler(flow businessflow.AssignmentRuleFlow) *AssignmentRuleHandler {
	return &AssignmentRuleHandler{baseHandler: newBaseHandler(), flow: flow}
}

// List
// @Summary List assignment rules
// @Tags Assignment Rules
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListAssignmentRulesResponse}
// @Router /api/v1/admin/assignment-rules [get]
func (h *AssignmentRuleHandler) List(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/assignment-rules")
	defer cancel()

	result, err := h.flow.ListRules(ctx)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list assignment rules", "LIST_RULES_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Create
// @Summary Create an assignment rule
// @Description Null scope ids match any ticket. The most specific active rule wins at intake.
// @Tags Assignment Rules
// @Accept json
// @Produce json
// @Param request body dto.CreateAssignmentRuleRequest true "Rule"
// @Success 201 {object} dto.APIResponse{data=dto.AssignmentRuleResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/assignment-rules [post]
func (h *AssignmentRuleHandler) Create(c fiber.Ctx) error {
	var req dto.CreateAssignmentRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/assignment-rules")
	defer cancel()

	result, err := h.flow.CreateRule(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to create assignment rule", "CREATE_RULE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// Update
// @Summary Patch an assignment rule
// @Tags Assignment Rules
// @Accept json
// @Produce json
// @Param id path int true "Rule ID"
// @Param request body dto.UpdateAssignmentRuleRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.AssignmentRuleResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/assignment-rules/{id} [put]
func (h *AssignmentRuleHandler) Update(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rule ID", "INVALID_ID", err.Error())
	}
	var req dto.UpdateAssignmentRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	req.ID = id

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/assignment-rules/:id")
	defer cancel()

	result, err := h.flow.UpdateRule(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to update assignment rule", "UPDATE_RULE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Delete
// @Summary Delete an assignment rule
// @Tags Assignment Rules
// @Produce json
// @Param id path int true "Rule ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/assignment-rules/{id} [delete]
func (h *AssignmentRuleHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rule ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/assignment-rules/:id")
	defer cancel()

	if err := h.flow.DeleteRule(ctx, id); err != nil {
		return h.flowErrorResponse(c, err, "Failed to delete assignment rule", "DELETE_RULE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Assignment rule deleted", fiber.Map{"id": id})
}
