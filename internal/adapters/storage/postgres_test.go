package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alejandrodnm/tradejournal/internal/adapters/storage"
	"github.com/alejandrodnm/tradejournal/internal/ports"
)

// setupPostgres arranca un contenedor y devuelve su DSN. Se omite con -short.
func setupPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in -short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("journal"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresStorage_Contract(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()

	runLedgerContract(t, func(t *testing.T) ports.Storage {
		s, err := storage.NewPostgresStorage(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		// Un contenedor compartido: cada subtest empieza con las tablas vacías.
		s2, err := storage.Open(ctx, storage.Options{Driver: "postgres", DSN: dsn})
		require.NoError(t, err)
		defer s2.Close()
		trades, err := s2.List(ctx)
		require.NoError(t, err)
		for _, tr := range trades {
			require.NoError(t, s2.Delete(ctx, tr.ID))
		}
		accounts, err := s2.ListAccounts(ctx)
		require.NoError(t, err)
		for _, a := range accounts {
			require.NoError(t, s2.DeleteAccount(ctx, a.ID))
		}
		return s
	})
}
