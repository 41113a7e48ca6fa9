// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect names a supported SQL backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect validates a configured database type.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case SQLite, Postgres:
		return d, nil
	case "postgresql":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database type %q (use sqlite or postgres)", s)
	}
}

// Open connects to the database and verifies the connection.
//
// SQLite connections get foreign keys and a busy timeout, and the pool is
// limited to one connection so writers never contend for the file lock.
func Open(dialect Dialect, url string) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case SQLite:
		conn, err = sql.Open("sqlite", SQLiteDSN(url))
		if err == nil {
			conn.SetMaxOpenConns(1)
		}
	case Postgres:
		conn, err = sql.Open("postgres", url)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// SQLiteDSN adds the pragmas the store relies on unless the URL sets them.
func SQLiteDSN(url string) string {
	pragmas := []struct{ key, value string }{
		{"foreign_keys", "_pragma=foreign_keys(1)"},
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
	}
	for _, p := range pragmas {
		if strings.Contains(url, p.key) {
			continue
		}
		if strings.Contains(url, "?") {
			url += "&" + p.value
		} else {
			url += "?" + p.value
		}
	}
	return url
}

// Migrate applies all pending migrations. Already applied migrations are
// skipped, so it is safe to call on every start.
func Migrate(conn *sql.DB, dialect Dialect) error {
	m, release, err := newMigrator(conn, dialect)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	if dirty {
		slog.Warn("database migration state is dirty", "version", version)
	} else {
		slog.Info("database migrations complete", "version", version, "dialect", dialect)
	}
	return nil
}

// Version returns the current migration version.
func Version(conn *sql.DB, dialect Dialect) (uint, bool, error) {
	m, release, err := newMigrator(conn, dialect)
	if err != nil {
		return 0, false, err
	}
	defer release()
	return m.Version()
}

// Down rolls back every migration. All data is lost.
func Down(conn *sql.DB, dialect Dialect) error {
	m, release, err := newMigrator(conn, dialect)
	if err != nil {
		return err
	}
	defer release()
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// newMigrator builds a migrator over conn. release frees what the migrator
// holds and leaves conn open; migrate.Migrate.Close would close conn.
func newMigrator(conn *sql.DB, dialect Dialect) (*migrate.Migrate, func(), error) {
	var (
		driver  database.Driver
		release = func() {}
		err     error
	)
	switch dialect {
	case SQLite:
		// Runs on the pool directly and holds nothing of its own.
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	case Postgres:
		// The driver gets its own connection, returned to the pool by release.
		ctx := context.Background()
		var pgConn *sql.Conn
		if pgConn, err = conn.Conn(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to reserve migration connection: %w", err)
		}
		var pg *postgres.Postgres
		pg, err = postgres.WithConnection(ctx, pgConn, &postgres.Config{})
		if err != nil {
			pgConn.Close()
		} else {
			driver = pg
			release = func() {
				if err := pg.Close(); err != nil {
					slog.Warn("failed to release migration connection", "error", err)
				}
			}
		}
	default:
		return nil, nil, fmt.Errorf("unsupported database type %q", dialect)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s migration driver: %w", dialect, err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, release, nil
}
