package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/fircode/shelter/internal/config"
)

// Open connects to the configured backend and verifies the connection.
// The returned handle rebinds '?' placeholders for the driver in use, so
// repositories write their SQL once.
func Open(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; busy_timeout covers the migration handle
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// DSN renders the driver specific connection string for cfg.
func DSN(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		q := url.Values{}
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", "busy_timeout(5000)")
		return "file:" + cfg.SQLitePath + "?" + q.Encode(), nil
	case config.DriverMySQL:
		auth := cfg.User
		if cfg.Password != "" {
			auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		// clientFoundRows=true -> RowsAffected counts matched rows, so a no-op UPDATE is not "not found"
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
			auth, cfg.Host, cfg.Port, cfg.Name), nil
	case config.DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode), nil
	}
	return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
}
