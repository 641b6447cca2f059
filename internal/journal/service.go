// Package journal es el dueño del ledger: orquesta importación, edición y el
// recálculo de estadísticas tras cada cambio.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/importer"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
	"github.com/alejandrodnm/tradejournal/internal/ports"
	"github.com/alejandrodnm/tradejournal/internal/stats"
)

// ErrTerminalUnavailable indica que no hay fetcher configurado.
var ErrTerminalUnavailable = errors.New("terminal fetcher not configured")

// Config del servicio.
type Config struct {
	// Currency se copia en el snapshot (el ledger no la conoce).
	Currency string
	// Location para agrupar la curva de rendimiento.
	Location *time.Location
}

// Service coordina ledger, normalizer, importer y los publicadores.
// No guarda estado mutable propio: cada snapshot se reconstruye del ledger.
type Service struct {
	ledger    ports.Ledger
	accounts  ports.AccountStore
	norm      *normalize.Normalizer
	importer  *importer.Importer
	publisher ports.StatsPublisher
	terminal  ports.TerminalFetcher
	cfg       Config
	now       func() time.Time
}

// Option configura dependencias opcionales.
type Option func(*Service)

// WithPublisher registra quién recibe el snapshot tras cada cambio.
func WithPublisher(p ports.StatsPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithTerminal registra el fetcher del terminal (local o relay remoto).
func WithTerminal(f ports.TerminalFetcher) Option {
	return func(s *Service) { s.terminal = f }
}

// WithAccounts registra el almacén de cuentas.
func WithAccounts(a ports.AccountStore) Option {
	return func(s *Service) { s.accounts = a }
}

// WithClock fija el reloj usado para las altas de cuentas (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService crea el servicio sobre un ledger.
func NewService(ledger ports.Ledger, norm *normalize.Normalizer, imp *importer.Importer, cfg Config, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Service{
		ledger:   ledger,
		norm:     norm,
		importer: imp,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import detecta el formato por nombre, normaliza y guarda el lote completo.
// Ante cualquier error el ledger queda intacto.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) ([]domain.Trade, error) {
	format, err := importer.DetectFormat(filename)
	if err != nil {
		return nil, fmt.Errorf("journal.Import: %w", err)
	}

	trades, err := s.importer.Import(ctx, format, r)
	if err != nil {
		return nil, fmt.Errorf("journal.Import: %s: %w", filename, err)
	}
	if err := s.ledger.InsertBatch(ctx, trades); err != nil {
		return nil, fmt.Errorf("journal.Import: persist: %w", err)
	}

	slog.Info("trades imported", "file", filename, "format", format, "count", len(trades))
	s.publish(ctx)
	return trades, nil
}

// Preview devuelve las filas que el importer aceptaría, sin normalizar ni persistir.
func (s *Service) Preview(ctx context.Context, filename string, r io.Reader) ([]normalize.Record, error) {
	format, err := importer.DetectFormat(filename)
	if err != nil {
		return nil, fmt.Errorf("journal.Preview: %w", err)
	}
	rows, err := s.importer.Extract(ctx, format, r)
	if err != nil {
		return nil, fmt.Errorf("journal.Preview: %w", err)
	}
	return rows, nil
}

// AddTrade normaliza una entrada manual y la guarda.
func (s *Service) AddTrade(ctx context.Context, rec normalize.Record) (domain.Trade, error) {
	t := s.norm.Normalize(rec)
	if err := s.ledger.Insert(ctx, t); err != nil {
		return domain.Trade{}, fmt.Errorf("journal.AddTrade: %w", err)
	}
	slog.Debug("trade added", "id", t.ID, "ticker", t.Ticker, "pnl", t.PnL)
	s.publish(ctx)
	return t, nil
}

// EditTrade sustituye el trade id por la normalización de rec. Conserva ID y
// CreatedAt del original: la edición es un borrado + reinserción.
func (s *Service) EditTrade(ctx context.Context, id string, rec normalize.Record) (domain.Trade, error) {
	orig, err := s.ledger.Get(ctx, id)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("journal.EditTrade: %w", err)
	}

	merged := normalize.Merge(normalize.FromTrade(orig), rec)
	merged = normalize.Merge(merged, normalize.Record{string(normalize.FieldID): orig.ID})

	t := s.norm.Normalize(merged)
	t.ID = orig.ID
	t.CreatedAt = orig.CreatedAt

	if err := s.ledger.Update(ctx, t); err != nil {
		return domain.Trade{}, fmt.Errorf("journal.EditTrade: %w", err)
	}
	slog.Debug("trade edited", "id", t.ID)
	s.publish(ctx)
	return t, nil
}

// DeleteTrade elimina un trade del ledger.
func (s *Service) DeleteTrade(ctx context.Context, id string) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		return fmt.Errorf("journal.DeleteTrade: %w", err)
	}
	slog.Debug("trade deleted", "id", id)
	s.publish(ctx)
	return nil
}

// ListTrades devuelve el ledger en orden cronológico.
func (s *Service) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	trades, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal.ListTrades: %w", err)
	}
	return trades, nil
}

// Stats reconstruye el snapshot desde el ledger completo.
func (s *Service) Stats(ctx context.Context) (domain.Statistics, error) {
	trades, err := s.ledger.List(ctx)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("journal.Stats: %w", err)
	}
	snap := stats.Compute(trades)
	snap.Currency = s.cfg.Currency
	return snap, nil
}

// Performance agrupa el ledger por periodo.
func (s *Service) Performance(ctx context.Context, period domain.Period) ([]domain.PerformancePoint, error) {
	trades, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal.Performance: %w", err)
	}
	return stats.Performance(trades, period, s.cfg.Location), nil
}

// FetchTerminal pide las estadísticas de una cuenta al terminal. Los errores
// upstream se devuelven sin reinterpretar.
func (s *Service) FetchTerminal(ctx context.Context, req domain.TerminalRequest) (domain.Statistics, error) {
	if s.terminal == nil {
		return domain.Statistics{}, fmt.Errorf("journal.FetchTerminal: %w", ErrTerminalUnavailable)
	}
	if err := req.Validate(); err != nil {
		return domain.Statistics{}, fmt.Errorf("journal.FetchTerminal: %w", err)
	}
	snap, err := s.terminal.Fetch(ctx, req)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("journal.FetchTerminal: %w", err)
	}
	return snap, nil
}

// AddAccount registra una cuenta de terminal. La contraseña no forma parte de Account.
func (s *Service) AddAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, fmt.Errorf("journal.AddAccount: %w: account store not configured", domain.ErrInvalidInput)
	}
	a.Name = strings.TrimSpace(a.Name)
	a.Server = strings.TrimSpace(a.Server)
	a.Login = strings.TrimSpace(a.Login)
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if err := s.accounts.SaveAccount(ctx, a); err != nil {
		return domain.Account{}, fmt.Errorf("journal.AddAccount: %w", err)
	}
	return a, nil
}

// ListAccounts devuelve las cuentas registradas.
func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if s.accounts == nil {
		return []domain.Account{}, nil
	}
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal.ListAccounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount elimina una cuenta.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if s.accounts == nil {
		return fmt.Errorf("journal.DeleteAccount: %w", domain.ErrNotFound)
	}
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("journal.DeleteAccount: %w", err)
	}
	return nil
}

// publish recalcula y emite el snapshot. Un fallo aquí no deshace la mutación.
func (s *Service) publish(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	snap, err := s.Stats(ctx)
	if err != nil {
		slog.Warn("stats recompute failed", "err", err)
		return
	}
	s.publisher.PublishStats(ctx, snap)
}
