package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/iliyamo/asset-management/internal/config"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending migration for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect, dir := goose.DialectMySQL, "migrations/mysql"
	if driver == config.DriverSQLite {
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	}
	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
