package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/p57/feedback-hub/app/services"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFlow_EnsureUser(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	flow := NewUserFlow(w.users, []string{" Owner@P57.studio ", ""})

	t.Run("provisions staff on first sight", func(t *testing.T) {
		claims := &services.TokenClaims{Subject: uuid.New(), Email: "coach@p57.studio", FullName: "Sam Coach"}
		user, err := flow.EnsureUser(ctx, claims)
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, models.UserRoleStaff, user.Role)

		again, err := flow.EnsureUser(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, 1, w.users.saves)
	})

	t.Run("admin emails are case-insensitive", func(t *testing.T) {
		user, err := flow.EnsureUser(ctx, &services.TokenClaims{Subject: uuid.New(), Email: "owner@p57.studio"})
		require.NoError(t, err)
		assert.Equal(t, models.UserRoleAdmin, user.Role)
		assert.True(t, user.Role.CanManageSettings())
	})

	t.Run("refreshes profile from the token", func(t *testing.T) {
		existing := w.addUser(models.UserRoleManager)
		user, err := flow.EnsureUser(ctx, &services.TokenClaims{Subject: existing.AuthID, Email: "new@p57.studio", FullName: "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, models.UserRoleManager, user.Role)

		stored, _ := w.users.ByID(ctx, existing.ID)
		assert.Equal(t, "new@p57.studio", stored.Email)
		assert.Equal(t, "Renamed", stored.FullName)
	})

	t.Run("rejects disabled users", func(t *testing.T) {
		disabled := w.addUser(models.UserRoleStaff)
		disabled.IsActive = utils.ToPtr(false)
		require.NoError(t, w.users.Update(ctx, disabled))

		user, err := flow.EnsureUser(ctx, &services.TokenClaims{Subject: disabled.AuthID})
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestUserFlow_Me(t *testing.T) {
	w := newWorld()
	facilities := models.DepartmentFacilities
	user := w.addUser(models.UserRoleManager)
	user.Department = &facilities
	require.NoError(t, w.users.Update(context.Background(), user))

	flow := NewUserFlow(w.users, nil)

	me, err := flow.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.AuthID.String(), me.AuthID)
	assert.Equal(t, "manager", me.Role)
	assert.Equal(t, "facilities", *me.Department)

	_, err = flow.Me(context.Background(), 999)
	assert.True(t, IsUserNotFound(err))
}
