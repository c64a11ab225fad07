//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aqasim81/stepmigrate/internal/database"
)

const (
	postgresImage = "postgres:16-alpine"
	testDB        = "stepmigrate_test"
	testUser      = "stepmigrate"
	testPassword  = "stepmigrate"
)

// SetupPostgres starts a PostgreSQL 16 container and returns its connection URL.
// The container is automatically cleaned up when the test completes.
func SetupPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDB,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return "postgres://" + testUser + ":" + testPassword + "@" + host + ":" + port.Port() + "/" + testDB + "?sslmode=disable"
}

// OpenPostgres starts a container and opens it through the connection manager.
func OpenPostgres(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.DriverPostgres, SetupPostgres(t))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// WriteSteps lays out "<step dir>/<file>" entries under a fresh data directory.
func WriteSteps(t *testing.T, files map[string]string) string {
	t.Helper()

	base := filepath.Join(t.TempDir(), "data")

	for rel, content := range files {
		path := filepath.Join(base, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return base
}
