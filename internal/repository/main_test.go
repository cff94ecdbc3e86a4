package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/database"
	"github.com/iliyamo/asset-management/internal/model"
)

// newTestDB returns a migrated SQLite database private to the test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, config.DriverSQLite))
	return db
}

func seedUser(t *testing.T, users *UserRepo, email, role string) model.User {
	t.Helper()
	u := model.User{Name: "User " + email, Email: email, Role: role}
	require.NoError(t, users.Create(context.Background(), &u, "pw", bcrypt.MinCost))
	return u
}

func seedAsset(t *testing.T, assets *AssetRepo, name string, owner uint64) model.Asset {
	t.Helper()
	purchase, warranty := "2024-01-10", "2026-01-10"
	a := model.Asset{
		AssetName:      name,
		AssetType:      "laptop",
		SerialNumber:   "SN-" + name,
		PurchaseDate:   &purchase,
		WarrantyExpiry: &warranty,
		AssignedTo:     &owner,
	}
	require.NoError(t, assets.Create(context.Background(), &a))
	return a
}

func ptr[T any](v T) *T { return &v }
