package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradejournal/internal/adapters/storage"
	"github.com/alejandrodnm/tradejournal/internal/ports"
)

func TestSQLiteStorage_Contract(t *testing.T) {
	runLedgerContract(t, func(t *testing.T) ports.Storage {
		db, err := storage.NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, db.Insert(ctx, makeTrade("a", day(3), 42)))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.PnL)
}

func TestMemoryStorage_Contract(t *testing.T) {
	runLedgerContract(t, func(t *testing.T) ports.Storage {
		return storage.NewMemoryStorage()
	})
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStorage()
	require.NoError(t, s.Insert(ctx, makeTrade("a", day(1), 1)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "trend", again.Tags[0])
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := storage.Open(ctx, storage.Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStorage{}, s)

	s, err = storage.Open(ctx, storage.Options{DSN: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteStorage{}, s)
	require.NoError(t, s.Close())

	_, err = storage.Open(ctx, storage.Options{Driver: "sqlite"})
	assert.Error(t, err)

	_, err = storage.Open(ctx, storage.Options{Driver: "mongo", DSN: "x"})
	assert.Error(t, err)
}
