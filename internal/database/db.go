package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/asset-management/internal/config"
)

// Open connects to the configured store, applies pool settings and verifies
// the connection. Every repository shares the returned pool; connections are
// borrowed per statement or transaction.
func Open(cfg config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
}

// OpenMySQL connects to MySQL. DATE and DATETIME columns are returned as
// text (parseTime is off) so they serialize exactly as stored.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = user
	mc.Passwd = pass
	mc.Net = "tcp"
	mc.Addr = host + ":" + port
	mc.DBName = name
	mc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, ping(db)
}

// OpenSQLite opens (creating if needed) a SQLite database file with foreign
// keys enforced. Transactions take the write lock at BEGIN so a
// read-then-write transaction never fails to upgrade its lock under
// concurrent writers. Used for local development and tests.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	return db, ping(db)
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	return nil
}

// Now asks the store for its clock. It backs the /healthz/db probe.
func Now(ctx context.Context, db *sql.DB) (string, error) {
	var now string
	err := db.QueryRowContext(ctx, "SELECT CURRENT_TIMESTAMP").Scan(&now)
	return now, err
}
