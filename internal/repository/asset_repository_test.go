package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/asset-management/internal/model"
)

func TestAssetRepo(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	assets := NewAssetRepo(db)
	records := NewMaintenanceRepo(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@x.com", model.RoleUser)
	bob := seedUser(t, users, "bob@x.com", model.RoleUser)

	t.Run("Create requires existing user", func(t *testing.T) {
		a := model.Asset{AssetName: "ghost", AssetType: "t", SerialNumber: "s", AssignedTo: ptr(uint64(9999))}
		assert.ErrorIs(t, assets.Create(ctx, &a), ErrUserNotFound)

		all, err := assets.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	a1 := seedAsset(t, assets, "a1", alice.ID)
	a2 := seedAsset(t, assets, "a2", bob.ID)

	t.Run("Get and scoped get", func(t *testing.T) {
		got, err := assets.GetByID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, "a1", got.AssetName)
		require.NotNil(t, got.PurchaseDate)
		assert.Equal(t, "2024-01-10", *got.PurchaseDate)
		assert.Nil(t, got.Status)
		assert.True(t, got.AssignedToUser(alice.ID))

		_, err = assets.GetByIDForAssignee(ctx, a1.ID, alice.ID)
		require.NoError(t, err)
		_, err = assets.GetByIDForAssignee(ctx, a1.ID, bob.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = assets.GetByID(ctx, 777)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Lists", func(t *testing.T) {
		all, err := assets.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mine, err := assets.ListByAssignee(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, a2.ID, mine[0].ID)
	})

	t.Run("Update reassigns and reports previous", func(t *testing.T) {
		upd := a2
		upd.AssetName = "a2-renamed"
		upd.Status = ptr("in_repair")
		upd.AssignedTo = ptr(alice.ID)
		prev, err := assets.Update(ctx, &upd)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, bob.ID, *prev)

		got, err := assets.GetByID(ctx, a2.ID)
		require.NoError(t, err)
		assert.Equal(t, "a2-renamed", got.AssetName)
		assert.Equal(t, "in_repair", *got.Status)
		assert.True(t, got.AssignedToUser(alice.ID))
	})

	t.Run("Update errors", func(t *testing.T) {
		missing := model.Asset{ID: 5555, AssetName: "x", AssignedTo: ptr(alice.ID)}
		_, err := assets.Update(ctx, &missing)
		assert.ErrorIs(t, err, ErrNotFound)

		badUser := a1
		badUser.AssignedTo = ptr(uint64(8888))
		_, err = assets.Update(ctx, &badUser)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Delete cascades maintenance", func(t *testing.T) {
		rec := model.MaintenanceRecord{AssetID: a1.ID, MaintenanceDate: "2024-05-01", MaintenanceType: "check", PerformedBy: "tech", Status: "done"}
		require.NoError(t, records.Create(ctx, &rec, alice.ID))

		require.NoError(t, assets.Delete(ctx, a1.ID))

		_, err := assets.GetByID(ctx, a1.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = records.GetForAssignee(ctx, rec.ID, alice.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM maintenance_records WHERE id = ?", rec.ID).Scan(&n))
		assert.Zero(t, n)

		assert.ErrorIs(t, assets.Delete(ctx, a1.ID), ErrNotFound)
	})
}
