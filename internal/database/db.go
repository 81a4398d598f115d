// Package database provides the storage layer: the Store interface, its
// in-memory and SQL implementations, connection setup and migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" //revive:disable:blank-imports
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" //revive:disable:blank-imports

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/migrations"
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// ParseURL maps a database URL onto a dialect and driver DSN.
// Accepted forms: postgres://..., postgresql://..., sqlite://path,
// sqlite:path, file:path and bare file paths.
func ParseURL(raw string) (Dialect, string, error) {
	switch {
	case raw == "":
		return "", "", errors.New("database URL is empty")
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, err := url.Parse(raw); err != nil {
			return "", "", fmt.Errorf("invalid postgres URL: %w", err)
		}
		return DialectPostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(raw, "sqlite://"), nil
	case strings.HasPrefix(raw, "sqlite:"):
		return DialectSQLite, strings.TrimPrefix(raw, "sqlite:"), nil
	case strings.Contains(raw, "://"):
		return "", "", fmt.Errorf("unsupported database URL scheme in %q", redact(raw))
	default:
		return DialectSQLite, raw, nil
	}
}

// redact hides credentials before a URL is logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// NewDB connects to the configured database, applies migrations and
// returns the connection pool.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, Dialect, error) {
	dialect, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, "", err
	}

	db, err := sqlx.ConnectContext(ctx, dialect.driverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}

	switch dialect {
	case DialectSQLite:
		// SQLite doesn't support concurrent writes, so max open conns = 1
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
			logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
		}
	default:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := ApplyMigrations(db.DB, dialect, logger); err != nil {
		CloseDB(db, logger)
		return nil, "", fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.InfoContext(ctx, "Database connected and migrations applied successfully",
		"dialect", dialect, "url", redact(cfg.URL))
	return db, dialect, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("Error closing database connection", "error", err)
	} else {
		logger.Info("Database connection closed successfully.")
	}
}

// ApplyMigrations runs the embedded migrations for the dialect.
func ApplyMigrations(db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	logger.Info("Applying database migrations...", "dialect", dialect)

	sub, err := fs.Sub(migrations.FS, string(dialect))
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", dialect, err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	var dbDriver database.Driver
	switch dialect {
	case DialectPostgres:
		dbDriver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		dbDriver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", dialect, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, string(dialect), dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("Database migrations applied successfully.")
	return nil
}

// queryTimeout bounds a single store call when the caller set no deadline.
func queryTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
