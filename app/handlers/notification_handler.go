package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/middleware"
	businessflow "github.com/p57/feedback-hub/business_flow"
)

// NotificationHandler serves the caller's in-app inbox
type NotificationHandler struct {
	baseHandler
	flow businessflow.NotificationFlow
}

func NewNotificationHandler(flow businessflow.NotificationFlow) *NotificationHandler {
	return &NotificationHandler{baseHandler: newBaseHandler(), flow: flow}
}

// List
// @Summary List my notifications, newest first
// @Tags Notifications
// @Produce json
// @Param unread_only query bool false "Only unread"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListNotificationsResponse}
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c fiber.Ctx) error {
	var req dto.ListNotificationsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationErrorResponse(c, err)
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.UserID = userID

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications")
	defer cancel()

	result, err := h.flow.ListNotifications(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list notifications", "LIST_NOTIFICATIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// MarkRead
// @Summary Mark one of my notifications as read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification ID", "INVALID_ID", err.Error())
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications/:id/read")
	defer cancel()

	if err := h.flow.MarkRead(ctx, id, userID); err != nil {
		return h.flowErrorResponse(c, err, "Failed to mark notification", "MARK_READ_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Notification marked as read", fiber.Map{"id": id})
}
