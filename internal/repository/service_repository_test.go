package repository

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/asset-management/internal/model"
)

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

func TestServiceRepo(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	services := NewServiceRepo(db)
	ctx := context.Background()

	u := seedUser(t, users, "req@x.com", model.RoleUser)

	cleaning := model.Service{ServiceName: "Cleaning", Description: ptr("Monthly deep clean")}
	require.NoError(t, services.Create(ctx, &cleaning))
	assert.NotZero(t, cleaning.ID)
	assert.NotEmpty(t, cleaning.CreatedAt)
	bare := model.Service{ServiceName: "Audit"}
	require.NoError(t, services.Create(ctx, &bare))

	t.Run("List", func(t *testing.T) {
		list, err := services.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Cleaning", list[0].ServiceName)
		assert.Equal(t, "Monthly deep clean", *list[0].Description)
		assert.Nil(t, list[1].Description)
	})

	t.Run("CreateRequest unknown service inserts nothing", func(t *testing.T) {
		err := services.CreateRequest(ctx, &model.ServiceRequest{UserID: u.ID, ServiceID: 999})
		assert.ErrorIs(t, err, ErrServiceNotFound)

		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_services").Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("CreateRequest and list", func(t *testing.T) {
		req := model.ServiceRequest{UserID: u.ID, ServiceID: cleaning.ID}
		require.NoError(t, services.CreateRequest(ctx, &req))
		assert.Equal(t, "Cleaning", req.ServiceName)
		assert.NotEmpty(t, req.RequestedAt)

		list, err := services.ListRequestsByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, req.ID, list[0].ID)
		assert.Equal(t, cleaning.ID, list[0].ServiceID)
		assert.Equal(t, "Monthly deep clean", *list[0].Description)

		none, err := services.ListRequestsByUser(ctx, u.ID+100)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
