package db

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// RunMigrations applies the embedded migrations matching the handle's driver.
// A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sqlx.DB) error {
	if database == nil {
		return nil
	}
	dialect, dir, err := migrationTarget(database.DriverName())
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database.DB, dir); err != nil {
		return fmt.Errorf("goose up (%s): %w", dialect, err)
	}
	return nil
}

func migrationTarget(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverSQLite:
		return "sqlite3", "migrations/sqlite", nil
	case DriverPostgres, "postgres":
		return "postgres", "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}
