//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("poker"),
		postgres.WithUsername("poker"),
		postgres.WithPassword("poker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestMigratePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	connStr := startPostgres(t)

	conn, err := Open(Postgres, connStr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(conn, Postgres))
	require.NoError(t, Migrate(conn, Postgres))

	version, dirty, err := Version(conn, Postgres)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(2), version)

	var exists bool
	err = conn.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'participation'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestMigratePostgresReleasesConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	conn, err := Open(Postgres, startPostgres(t))
	require.NoError(t, err)
	defer conn.Close()

	// With a single pooled connection, a migrator that kept its connection
	// would block every later call.
	conn.SetMaxOpenConns(1)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 3; i++ {
			if err := Migrate(conn, Postgres); err != nil {
				done <- err
				return
			}
			if _, _, err := Version(conn, Postgres); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("migrations did not return their connection to the pool")
	}

	require.NoError(t, conn.Ping())
	require.Equal(t, 0, conn.Stats().InUse)

	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM poker_session`).Scan(&count))
}
