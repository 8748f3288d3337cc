//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupPostgres(t *testing.T, ctx context.Context) (*PostgresOrgRepo, *PostgresUserRepo) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "authdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{
		DatabaseURL: fmt.Sprintf("postgres://test:test@%s:%s/authdb?sslmode=disable", host, port.Port()),
		MaxConns:    4,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool, zap.NewNop()))
	// Second run must be a no-op.
	require.NoError(t, Migrate(ctx, pool, zap.NewNop()))

	return NewPostgresOrgRepo(pool), NewPostgresUserRepo(pool)
}

func TestIntegration_PostgresDirectory(t *testing.T) {
	ctx := context.Background()
	orgs, users := setupPostgres(t, ctx)
	runDirectoryContract(t, orgs, users)
}
