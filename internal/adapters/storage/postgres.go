package storage

// postgres.go: ledger para despliegues con servidor (storage.driver: postgres).
// Mismo contrato que SQLite: Update es DELETE + INSERT en una transacción y los
// lotes son atómicos.

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id               TEXT PRIMARY KEY,
    date             TIMESTAMPTZ NOT NULL,
    ticker           TEXT NOT NULL DEFAULT '',
    direction        TEXT NOT NULL,
    entry            DOUBLE PRECISION NOT NULL DEFAULT 0,
    exit             DOUBLE PRECISION NOT NULL DEFAULT 0,
    size             DOUBLE PRECISION NOT NULL DEFAULT 0,
    pnl              DOUBLE PRECISION NOT NULL DEFAULT 0,
    notes            TEXT NOT NULL DEFAULT '',
    tags             TEXT[] NOT NULL DEFAULT '{}',
    strategy         TEXT NOT NULL DEFAULT '',
    market_condition TEXT NOT NULL DEFAULT '',
    instrument_type  TEXT NOT NULL DEFAULT '',
    win_loss         TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    platform   TEXT NOT NULL,
    server     TEXT NOT NULL,
    login      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE (platform, server, login)
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date, id);
`

const pgInsertTradeSQL = `INSERT INTO trades (` + tradeColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// pgErrUniqueViolation es el SQLSTATE de una violación de PK/UNIQUE.
const pgErrUniqueViolation = "23505"

// PostgresStorage implementa ports.Storage sobre un pool de pgx.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage conecta, verifica con Ping y aplica el schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStorage: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStorage: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStorage: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStorage: apply schema: %w", err)
	}
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) List(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.List: query: %w", err)
	}
	defer rows.Close()

	trades := []domain.Trade{}
	for rows.Next() {
		t, err := scanPgTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.List: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *PostgresStorage) Get(ctx context.Context, id string) (domain.Trade, error) {
	t, err := scanPgTrade(s.pool.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Trade{}, fmt.Errorf("storage.Get: trade %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("storage.Get: %w", err)
	}
	return t, nil
}

func (s *PostgresStorage) Insert(ctx context.Context, t domain.Trade) error {
	if err := validateTrade(t); err != nil {
		return fmt.Errorf("storage.Insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, pgInsertTradeSQL, pgTradeArgs(t)...); err != nil {
		return fmt.Errorf("storage.Insert: trade %q: %w", t.ID, pgErr(err))
	}
	return nil
}

// InsertBatch falla el lote entero ante cualquier duplicado.
func (s *PostgresStorage) InsertBatch(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage.InsertBatch: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if err := validateTrade(t); err != nil {
			return fmt.Errorf("storage.InsertBatch: %w", err)
		}
		if _, err := tx.Exec(ctx, pgInsertTradeSQL, pgTradeArgs(t)...); err != nil {
			return fmt.Errorf("storage.InsertBatch: trade %q: %w", t.ID, pgErr(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage.InsertBatch: commit: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Update(ctx context.Context, t domain.Trade) error {
	if err := validateTrade(t); err != nil {
		return fmt.Errorf("storage.Update: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage.Update: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM trades WHERE id = $1`, t.ID)
	if err != nil {
		return fmt.Errorf("storage.Update: delete %q: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage.Update: trade %q: %w", t.ID, domain.ErrNotFound)
	}
	if _, err := tx.Exec(ctx, pgInsertTradeSQL, pgTradeArgs(t)...); err != nil {
		return fmt.Errorf("storage.Update: reinsert %q: %w", t.ID, pgErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage.Update: commit: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage.Delete: %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage.Delete: trade %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *PostgresStorage) SaveAccount(ctx context.Context, a domain.Account) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("storage.SaveAccount: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, name, platform, server, login, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, string(a.Platform), a.Server, a.Login, a.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveAccount: %q: %w", a.Name, pgErr(err))
	}
	return nil
}

func (s *PostgresStorage) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, platform, server, login, created_at FROM accounts ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListAccounts: query: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var a domain.Account
		var platform string
		if err := rows.Scan(&a.ID, &a.Name, &platform, &a.Server, &a.Login, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.ListAccounts: scan row: %w", err)
		}
		a.Platform = domain.Platform(platform)
		a.CreatedAt = a.CreatedAt.UTC()
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PostgresStorage) DeleteAccount(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage.DeleteAccount: %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage.DeleteAccount: account %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Close cierra el pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func scanPgTrade(row pgx.Row) (domain.Trade, error) {
	var (
		t                  domain.Trade
		direction, winLoss string
	)
	if err := row.Scan(
		&t.ID, &t.Date, &t.Ticker, &direction,
		&t.Entry, &t.Exit, &t.Size, &t.PnL,
		&t.Notes, &t.Tags, &t.Strategy, &t.MarketCondition, &t.InstrumentType,
		&winLoss, &t.CreatedAt,
	); err != nil {
		return domain.Trade{}, err
	}
	t.Direction = domain.Direction(direction)
	t.WinLoss = domain.WinLoss(winLoss)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

func pgTradeArgs(t domain.Trade) []any {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		t.ID, t.Date.UTC(), t.Ticker, string(t.Direction),
		t.Entry, t.Exit, t.Size, t.PnL,
		t.Notes, tags, t.Strategy, t.MarketCondition, t.InstrumentType,
		string(t.WinLoss), t.CreatedAt.UTC(),
	}
}

// pgErr traduce unique_violation a domain.ErrDuplicateKey.
func pgErr(err error) error {
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == pgErrUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, pe.Detail)
	}
	return err
}
