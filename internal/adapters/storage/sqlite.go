package storage

// sqlite.go: ledger por defecto, un solo archivo y sin CGo.
//
// Estrategia:
//   - `trades`: una fila por trade, PK = id. Las fechas se guardan como texto de
//     ancho fijo en UTC para que ORDER BY date sea cronológico.
//   - Update = DELETE + INSERT en la misma transacción (los trades son inmutables).
//   - InsertBatch en una transacción: o entran todos o ninguno.
//   - `accounts`: cuentas de terminal, nunca con contraseña.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id               TEXT PRIMARY KEY,
    date             TEXT NOT NULL,
    ticker           TEXT NOT NULL DEFAULT '',
    direction        TEXT NOT NULL,
    entry            REAL NOT NULL DEFAULT 0,
    exit             REAL NOT NULL DEFAULT 0,
    size             REAL NOT NULL DEFAULT 0,
    pnl              REAL NOT NULL DEFAULT 0,
    notes            TEXT NOT NULL DEFAULT '',
    tags             TEXT NOT NULL DEFAULT '[]',
    strategy         TEXT NOT NULL DEFAULT '',
    market_condition TEXT NOT NULL DEFAULT '',
    instrument_type  TEXT NOT NULL DEFAULT '',
    win_loss         TEXT NOT NULL,
    created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    platform   TEXT NOT NULL,
    server     TEXT NOT NULL,
    login      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (platform, server, login)
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date, id);
`

const tradeColumns = `id, date, ticker, direction, entry, exit, size, pnl, notes, tags,
	strategy, market_condition, instrument_type, win_loss, created_at`

const insertTradeSQL = `INSERT INTO trades (` + tradeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
// ":memory:" sirve para tests.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// List devuelve el ledger completo en orden cronológico.
func (s *SQLiteStorage) List(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.List: query: %w", err)
	}
	defer rows.Close()

	trades := []domain.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.List: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Get devuelve un trade por ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (domain.Trade, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trade{}, fmt.Errorf("storage.Get: trade %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("storage.Get: %w", err)
	}
	return t, nil
}

// Insert guarda un trade nuevo.
func (s *SQLiteStorage) Insert(ctx context.Context, t domain.Trade) error {
	if err := validateTrade(t); err != nil {
		return fmt.Errorf("storage.Insert: %w", err)
	}
	args, err := tradeArgs(t)
	if err != nil {
		return fmt.Errorf("storage.Insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertTradeSQL, args...); err != nil {
		return fmt.Errorf("storage.Insert: trade %q: %w", t.ID, sqliteErr(err))
	}
	return nil
}

// InsertBatch guarda todos los trades en una sola transacción.
func (s *SQLiteStorage) InsertBatch(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.InsertBatch: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTradeSQL)
	if err != nil {
		return fmt.Errorf("storage.InsertBatch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if err := validateTrade(t); err != nil {
			return fmt.Errorf("storage.InsertBatch: %w", err)
		}
		args, err := tradeArgs(t)
		if err != nil {
			return fmt.Errorf("storage.InsertBatch: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("storage.InsertBatch: trade %q: %w", t.ID, sqliteErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.InsertBatch: commit: %w", err)
	}
	return nil
}

// Update borra y reinserta el trade en la misma transacción.
func (s *SQLiteStorage) Update(ctx context.Context, t domain.Trade) error {
	if err := validateTrade(t); err != nil {
		return fmt.Errorf("storage.Update: %w", err)
	}
	args, err := tradeArgs(t)
	if err != nil {
		return fmt.Errorf("storage.Update: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Update: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, t.ID)
	if err != nil {
		return fmt.Errorf("storage.Update: delete %q: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.Update: trade %q: %w", t.ID, domain.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, insertTradeSQL, args...); err != nil {
		return fmt.Errorf("storage.Update: reinsert %q: %w", t.ID, sqliteErr(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Update: commit: %w", err)
	}
	return nil
}

// Delete elimina un trade por ID.
func (s *SQLiteStorage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage.Delete: %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.Delete: trade %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SaveAccount registra una cuenta. Misma plataforma+servidor+login es duplicado.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, a domain.Account) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("storage.SaveAccount: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, platform, server, login, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Platform), a.Server, a.Login, formatTime(a.CreatedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveAccount: %q: %w", a.Name, sqliteErr(err))
	}
	return nil
}

// ListAccounts devuelve las cuentas por orden de alta.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, platform, server, login, created_at FROM accounts ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListAccounts: query: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var a domain.Account
		var platform, createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &platform, &a.Server, &a.Login, &createdAt); err != nil {
			return nil, fmt.Errorf("storage.ListAccounts: scan row: %w", err)
		}
		a.Platform = domain.Platform(platform)
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("storage.ListAccounts: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount elimina una cuenta por ID.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage.DeleteAccount: %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.DeleteAccount: account %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// rowScanner cubre *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (domain.Trade, error) {
	var (
		t                     domain.Trade
		date, createdAt, tags string
		direction, winLoss    string
	)
	if err := row.Scan(
		&t.ID, &date, &t.Ticker, &direction,
		&t.Entry, &t.Exit, &t.Size, &t.PnL,
		&t.Notes, &tags, &t.Strategy, &t.MarketCondition, &t.InstrumentType,
		&winLoss, &createdAt,
	); err != nil {
		return domain.Trade{}, err
	}

	t.Direction = domain.Direction(direction)
	t.WinLoss = domain.WinLoss(winLoss)

	var err error
	if t.Date, err = parseTime(date); err != nil {
		return domain.Trade{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Trade{}, err
	}
	if t.Tags, err = decodeTags(tags); err != nil {
		return domain.Trade{}, err
	}
	return t, nil
}

func tradeArgs(t domain.Trade) ([]any, error) {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		t.ID, formatTime(t.Date), t.Ticker, string(t.Direction),
		t.Entry, t.Exit, t.Size, t.PnL,
		t.Notes, tags, t.Strategy, t.MarketCondition, t.InstrumentType,
		string(t.WinLoss), formatTime(t.CreatedAt),
	}, nil
}

// sqliteErr traduce violaciones de PK/UNIQUE a domain.ErrDuplicateKey.
func sqliteErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")) {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateKey, err)
		}
	}
	return err
}
