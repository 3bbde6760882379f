package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/fircode/shelter/internal/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema for cfg.Driver.  It uses its own
// short-lived handle because closing a migrate instance closes the
// underlying *sql.DB.
func Migrate(cfg config.DBConfig) error {
	dsn, err := DSN(cfg)
	if err != nil {
		return err
	}
	if cfg.Driver == config.DriverMySQL {
		dsn += "&multiStatements=true"
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return err
	}

	var drv migratedb.Driver
	switch cfg.Driver {
	case config.DriverSQLite:
		drv, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case config.DriverMySQL:
		drv, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case config.DriverPostgres:
		drv, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, cfg.Driver, drv)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate init: %w", err)
	}
	defer func() {
		_, _ = m.Close()
		_ = db.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
