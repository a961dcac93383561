package businessflow

import (
	"context"
	"log"
	"slices"
	"strings"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/services"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
)

// UserFlow maps Supabase identities onto application users
type UserFlow interface {
	EnsureUser(ctx context.Context, claims *services.TokenClaims) (*models.User, error)
	Me(ctx context.Context, userID uint) (*dto.CurrentUserDTO, error)
}

// UserFlowImpl implements UserFlow
type UserFlowImpl struct {
	userRepo    repository.UserRepository
	adminEmails []string
}

// NewUserFlow creates the flow; users whose email is listed in adminEmails are provisioned as admins
func NewUserFlow(userRepo repository.UserRepository, adminEmails []string) UserFlow {
	normalized := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			normalized = append(normalized, e)
		}
	}
	return &UserFlowImpl{userRepo: userRepo, adminEmails: normalized}
}

// EnsureUser loads the user behind a verified token, creating it on first sight
func (f *UserFlowImpl) EnsureUser(ctx context.Context, claims *services.TokenClaims) (*models.User, error) {
	user, err := f.userRepo.ByAuthID(ctx, claims.Subject)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}

	if user == nil {
		role := models.UserRoleStaff
		if slices.Contains(f.adminEmails, strings.ToLower(claims.Email)) {
			role = models.UserRoleAdmin
		}
		user = &models.User{
			AuthID:   claims.Subject,
			Email:    claims.Email,
			FullName: claims.FullName,
			Role:     role,
			IsActive: utils.ToPtr(true),
		}
		if err := f.userRepo.Save(ctx, user); err != nil {
			return nil, NewBusinessError("USER_PROVISION_FAILED", "Failed to provision user", err)
		}
		log.Printf("provisioned user %d (%s) with role %s", user.ID, user.Email, user.Role)
		return user, nil
	}

	if !utils.IsTrue(user.IsActive) {
		return nil, NewBusinessError("USER_INACTIVE", "User account is disabled", ErrUserInactive)
	}

	// Keep profile fields in step with the identity provider
	changed := false
	if claims.Email != "" && claims.Email != user.Email {
		user.Email = claims.Email
		changed = true
	}
	if claims.FullName != "" && claims.FullName != user.FullName {
		user.FullName = claims.FullName
		changed = true
	}
	if changed {
		user.UpdatedAt = utils.UTCNow()
		if err := f.userRepo.Update(ctx, user); err != nil {
			log.Printf("failed to refresh profile of user %d: %v", user.ID, err)
		}
	}
	return user, nil
}

func (f *UserFlowImpl) Me(ctx context.Context, userID uint) (*dto.CurrentUserDTO, error) {
	user, err := f.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	out := ToCurrentUserDTO(*user)
	return &out, nil
}
