package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/middleware"
	businessflow "github.com/p57/feedback-hub/business_flow"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeout   = 2 * time.Minute
)

// TicketHandlerInterface defines the contract for ticket handlers
type TicketHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
	UpdatePriority(c fiber.Ctx) error
	UpdateAssignee(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	AddComment(c fiber.Ctx) error
	ListComments(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	baseHandler
	flow businessflow.TicketFlow
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(flow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{baseHandler: newBaseHandler(), flow: flow}
}

// Create Ticket
// @Summary Submit feedback
// @Description Creates a ticket. Department, priority and assignee are backfilled from assignment rules and catalog defaults when absent.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body dto.CreateTicketRequest true "Ticket"
// @Success 201 {object} dto.APIResponse{data=dto.CreateTicketResponse} "Ticket created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Category, subcategory or assignee not found"
// @Failure 503 {object} dto.APIResponse "Ticket number could not be allocated"
// @Router /api/v1/tickets [post]
func (h *TicketHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.ReporterID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets")
	defer cancel()

	result, err := h.flow.CreateTicket(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to create ticket", "CREATE_TICKET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Tickets
// @Summary List tickets
// @Tags Tickets
// @Produce json
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param department query string false "Department filter"
// @Param category_id query int false "Category filter"
// @Param subcategory_id query int false "Subcategory filter"
// @Param assignee_id query int false "Assignee filter"
// @Param reporter_id query int false "Reporter filter"
// @Param is_escalated query bool false "Escalated only"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTicketsResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/tickets [get]
func (h *TicketHandler) List(c fiber.Ctx) error {
	var req dto.ListTicketsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets")
	defer cancel()

	result, err := h.flow.ListTickets(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list tickets", "LIST_TICKETS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Get Ticket
// @Summary Ticket detail with history and attachments
// @Tags Tickets
// @Produce json
// @Param id path int true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.TicketDetailResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id} [get]
func (h *TicketHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id")
	defer cancel()

	result, err := h.flow.GetTicket(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to load ticket", "GET_TICKET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateStatus
// @Summary Change ticket status
// @Description Escalation requires a reason. Resolving or closing stamps the matching timestamp.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body dto.UpdateTicketStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTicketResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id}/status [patch]
func (h *TicketHandler) UpdateStatus(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}
	var req dto.UpdateTicketStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.TicketID, req.ActorID = id, userID

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id/status")
	defer cancel()

	result, err := h.flow.UpdateStatus(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to update status", "UPDATE_STATUS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdatePriority
// @Summary Change ticket priority
// @Description The SLA deadline computed at creation is kept.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body dto.UpdateTicketPriorityRequest true "New priority"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTicketResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id}/priority [patch]
func (h *TicketHandler) UpdatePriority(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}
	var req dto.UpdateTicketPriorityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.TicketID, req.ActorID = id, userID

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id/priority")
	defer cancel()

	result, err := h.flow.UpdatePriority(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to update priority", "UPDATE_PRIORITY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateAssignee
// @Summary Assign or unassign a ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body dto.UpdateTicketAssigneeRequest true "Assignee, null to unassign"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTicketResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id}/assignee [patch]
func (h *TicketHandler) UpdateAssignee(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}
	var req dto.UpdateTicketAssigneeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.TicketID, req.ActorID = id, userID

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id/assignee")
	defer cancel()

	result, err := h.flow.UpdateAssignee(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to update assignee", "UPDATE_ASSIGNEE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Delete Ticket
// @Summary Delete a ticket with its history, comments and attachments
// @Tags Tickets
// @Produce json
// @Param id path int true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteTicketResponse}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id} [delete]
func (h *TicketHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id")
	defer cancel()

	result, err := h.flow.DeleteTicket(ctx, &dto.DeleteTicketRequest{TicketID: id, ActorID: userID})
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to delete ticket", "DELETE_TICKET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// AddComment
// @Summary Comment on a ticket
// @Description The first comment from someone other than the reporter stamps first_response_at.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body dto.AddCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.AddCommentResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id}/comments [post]
func (h *TicketHandler) AddComment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}
	var req dto.AddCommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.TicketID, req.AuthorID = id, userID

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id/comments")
	defer cancel()

	result, err := h.flow.AddComment(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to add comment", "ADD_COMMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ListComments
// @Summary List ticket comments, oldest first
// @Tags Tickets
// @Produce json
// @Param id path int true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.ListCommentsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tickets/{id}/comments [get]
func (h *TicketHandler) ListComments(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/tickets/:id/comments")
	defer cancel()

	result, err := h.flow.ListComments(ctx, id)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list comments", "LIST_COMMENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Export Tickets
// @Summary Download tickets as an Excel workbook
// @Tags Tickets
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param department query string false "Department filter"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/admin/tickets/export [get]
func (h *TicketHandler) Export(c fiber.Ctx) error {
	var req dto.ListTicketsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/admin/tickets/export", exportTimeout)
	defer cancel()

	filename, data, err := h.flow.ExportTickets(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to export tickets", "EXPORT_TICKETS_FAILED")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(data)
}
