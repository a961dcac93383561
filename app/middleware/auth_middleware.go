// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/services"
	businessflow "github.com/p57/feedback-hub/business_flow"
	"github.com/p57/feedback-hub/models"
)

// Locals keys set by Authenticate
const (
	LocalUserID      = "user_id"
	LocalUserRole    = "user_role"
	LocalTokenClaims = "token_claims"
	LocalRequestID   = "request_id"
)

const provisionTimeout = 10 * time.Second

// AuthMiddleware verifies Supabase access tokens and resolves the application user
type AuthMiddleware struct {
	tokenService services.TokenService
	users        businessflow.UserFlow
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService, users businessflow.UserFlow) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		users:        users,
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's user id and role in Locals
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenWrongAudience):
				return unauthorized(c, "Access token audience mismatch", "TOKEN_WRONG_AUDIENCE")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			default:
				return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
		defer cancel()
		user, err := m.users.EnsureUser(ctx, claims)
		if err != nil {
			if errors.Is(err, businessflow.ErrUserInactive) {
				return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
					Success: false,
					Message: "User account is disabled",
					Error:   dto.ErrorDetail{Code: "USER_INACTIVE"},
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to resolve user",
				Error:   dto.ErrorDetail{Code: "USER_RESOLUTION_FAILED"},
			})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUserRole, user.Role)
		c.Locals(LocalTokenClaims, claims)
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals(LocalRequestID, requestID)
		}

		return c.Next()
	}
}

// RequireSettingsRole allows only admins and managers through; use after Authenticate
func (m *AuthMiddleware) RequireSettingsRole() fiber.Handler {
	return func(c fiber.Ctx) error {
		role, ok := GetUserRoleFromContext(c)
		if !ok || !role.CanManageSettings() {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Settings access requires an admin or manager role",
				Error:   dto.ErrorDetail{Code: "FORBIDDEN"},
			})
		}
		return c.Next()
	}
}

// GetUserIDFromContext extracts the application user id
func GetUserIDFromContext(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// GetUserRoleFromContext extracts the application user role
func GetUserRoleFromContext(c fiber.Ctx) (models.UserRole, bool) {
	role, ok := c.Locals(LocalUserRole).(models.UserRole)
	return role, ok
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(LocalTokenClaims).(*services.TokenClaims)
	return claims, ok
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}
