package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/utils"
)

func TestUserRepo(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	t.Run("Create hashes and normalizes", func(t *testing.T) {
		u := model.User{Name: "Ann", Email: "  Ann@X.com ", Contact: "555"}
		require.NoError(t, users.Create(ctx, &u, "secret", bcrypt.MinCost))
		assert.NotZero(t, u.ID)
		assert.Equal(t, "ann@x.com", u.Email)
		assert.Equal(t, model.RoleUser, u.Role)
		assert.NotEmpty(t, u.CreatedAt)

		got, err := users.GetByEmail(ctx, "ANN@x.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotEqual(t, "secret", got.PasswordHash)
		assert.True(t, utils.VerifyPassword(got.PasswordHash, "secret"))
	})

	t.Run("Create duplicate email leaves store untouched", func(t *testing.T) {
		before, err := users.List(ctx)
		require.NoError(t, err)

		dup := model.User{Name: "Other", Email: "ann@x.com"}
		err = users.Create(ctx, &dup, "x", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrEmailExists)

		after, err := users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("GetByID and RoleByID", func(t *testing.T) {
		c := seedUser(t, users, "boss@x.com", model.RoleCompany)
		got, err := users.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "boss@x.com", got.Email)

		role, err := users.RoleByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleCompany, role)

		_, err = users.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = users.RoleByID(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = users.GetByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Update overwrites profile", func(t *testing.T) {
		u := seedUser(t, users, "edit@x.com", model.RoleUser)
		u.Name, u.Email, u.Contact, u.CompanyName, u.Location = "Edited", "Edited@X.com", "1", "Acme", "Berlin"
		require.NoError(t, users.Update(ctx, &u))

		got, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Edited", got.Name)
		assert.Equal(t, "edited@x.com", got.Email)
		assert.Equal(t, "Acme", got.CompanyName)
		assert.Equal(t, "Berlin", got.Location)
	})

	t.Run("Update missing and conflicting", func(t *testing.T) {
		missing := model.User{ID: 424242, Name: "n", Email: "n@x.com"}
		assert.ErrorIs(t, users.Update(ctx, &missing), ErrNotFound)

		u := seedUser(t, users, "clash@x.com", model.RoleUser)
		u.Email = "ann@x.com"
		assert.ErrorIs(t, users.Update(ctx, &u), ErrEmailExists)
	})

	t.Run("Delete unassigns assets and drops requests", func(t *testing.T) {
		assets := NewAssetRepo(db)
		services := NewServiceRepo(db)
		u := seedUser(t, users, "leaver@x.com", model.RoleUser)
		a := seedAsset(t, assets, "leaver-laptop", u.ID)
		svc := model.Service{ServiceName: "Repair"}
		require.NoError(t, services.Create(ctx, &svc))
		require.NoError(t, services.CreateRequest(ctx, &model.ServiceRequest{UserID: u.ID, ServiceID: svc.ID}))

		require.NoError(t, users.Delete(ctx, u.ID))

		_, err := users.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		got, err := assets.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Nil(t, got.AssignedTo)
		reqs, err := services.ListRequestsByUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, reqs)

		assert.ErrorIs(t, users.Delete(ctx, u.ID), ErrNotFound)
	})
}

func TestUserRepoRejectsUnknownRole(t *testing.T) {
	users := NewUserRepo(newTestDB(t))
	u := model.User{Name: "Eve", Email: "eve@x.com", Role: "admin"}
	err := users.Create(context.Background(), &u, "pw", bcrypt.MinCost)
	require.Error(t, err)
	assert.Zero(t, u.ID)
}
