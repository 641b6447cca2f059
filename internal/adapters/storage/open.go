package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/tradejournal/internal/ports"
)

// Drivers soportados por Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selecciona el backend del ledger.
type Options struct {
	Driver string // sqlite | postgres | memory
	DSN    string // ruta del archivo SQLite o DSN de Postgres
}

// Compile-time interface checks.
var (
	_ ports.Storage = (*SQLiteStorage)(nil)
	_ ports.Storage = (*PostgresStorage)(nil)
	_ ports.Storage = (*MemoryStorage)(nil)
)

// Open devuelve el backend indicado. Driver vacío es SQLite.
func Open(ctx context.Context, opts Options) (ports.Storage, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	slog.Debug("opening ledger", "driver", driver)

	switch driver {
	case "", DriverSQLite, "sqlite3":
		if opts.DSN == "" {
			return nil, fmt.Errorf("storage.Open: sqlite: empty path")
		}
		return NewSQLiteStorage(opts.DSN)
	case DriverPostgres, "postgresql", "pgx":
		if opts.DSN == "" {
			return nil, fmt.Errorf("storage.Open: postgres: empty dsn")
		}
		return NewPostgresStorage(ctx, opts.DSN)
	case DriverMemory:
		return NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("storage.Open: unknown driver %q", opts.Driver)
}
