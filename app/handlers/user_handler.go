package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/middleware"
	businessflow "github.com/p57/feedback-hub/business_flow"
)

// UserHandler exposes the authenticated caller's profile
type UserHandler struct {
	baseHandler
	flow businessflow.UserFlow
}

func NewUserHandler(flow businessflow.UserFlow) *UserHandler {
	return &UserHandler{baseHandler: newBaseHandler(), flow: flow}
}

// Me
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CurrentUserDTO}
// @Failure 401 {object} dto.APIResponse
// @Router /api/v1/me [get]
func (h *UserHandler) Me(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/me")
	defer cancel()

	result, err := h.flow.Me(ctx, userID)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to load user", "GET_USER_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User retrieved", result)
}
