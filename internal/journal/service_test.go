package journal_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradejournal/internal/adapters/storage"
	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/importer"
	"github.com/alejandrodnm/tradejournal/internal/journal"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
)

var clock = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []domain.Statistics
}

func (p *recordingPublisher) PublishStats(_ context.Context, s domain.Statistics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *recordingPublisher) last() domain.Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots[len(p.snapshots)-1]
}

type stubFetcher struct {
	stats domain.Statistics
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, _ domain.TerminalRequest) (domain.Statistics, error) {
	f.calls++
	return f.stats, f.err
}

func newService(t *testing.T, opts ...journal.Option) (*journal.Service, *storage.MemoryStorage) {
	t.Helper()
	seq := 0
	norm := normalize.New(normalize.DefaultConfig()).
		WithClock(func() time.Time { return clock }).
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("t-%d", seq)
		})
	store := storage.NewMemoryStorage()
	opts = append([]journal.Option{journal.WithAccounts(store), journal.WithClock(func() time.Time { return clock })}, opts...)
	svc := journal.NewService(store, norm, importer.New(norm, importer.Config{}), journal.Config{Currency: "USD"}, opts...)
	return svc, store
}

const exampleCSV = "date,pnl\n1/15/2024,100\n1/10/2024,-50\n"

func TestService_ImportAndStats(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, journal.WithPublisher(pub))
	ctx := context.Background()

	trades, err := svc.Import(ctx, "journal.csv", strings.NewReader(exampleCSV))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, -50.0, trades[0].PnL)

	s, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 50.0, s.WinRate)
	assert.Equal(t, 100.0, s.TotalProfit)
	assert.Equal(t, 50.0, s.TotalLoss)
	assert.Equal(t, 50.0, s.NetProfit)
	assert.Equal(t, 2.0, s.AverageRR)
	assert.Equal(t, "USD", s.Currency)

	require.Len(t, pub.snapshots, 1)
	assert.Equal(t, s, pub.last())
}

func TestService_ImportErrorsLeaveLedgerUnchanged(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newService(t, journal.WithPublisher(pub))
	ctx := context.Background()

	_, err := svc.Import(ctx, "journal.json", strings.NewReader(exampleCSV))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = svc.Import(ctx, "journal.csv", strings.NewReader("comment\nnothing here\n"))
	assert.ErrorIs(t, err, domain.ErrNoValidTrades)

	// Segundo import con IDs repetidos: el lote entero se rechaza.
	withIDs := "id,date,pnl\na,2024-01-01,1\nb,2024-01-02,2\n"
	_, err = svc.Import(ctx, "a.csv", strings.NewReader(withIDs))
	require.NoError(t, err)
	_, err = svc.Import(ctx, "b.csv", strings.NewReader("id,date,pnl\nc,2024-01-03,3\na,2024-01-04,4\n"))
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Len(t, pub.snapshots, 1, "only the successful import publishes")
}

func TestService_AddEditDelete(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, journal.WithPublisher(pub))
	ctx := context.Background()

	added, err := svc.AddTrade(ctx, normalize.Record{"date": "2024-02-01", "ticker": "EURUSD", "pnl": "25", "tags": "a, b"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", added.ID)
	assert.Equal(t, domain.OutcomeWin, added.WinLoss)
	assert.Equal(t, 25.0, pub.last().NetProfit)

	edited, err := svc.EditTrade(ctx, added.ID, normalize.Record{"Profit": "-10", "notes": "stopped out"})
	require.NoError(t, err)
	assert.Equal(t, added.ID, edited.ID)
	assert.Equal(t, added.CreatedAt, edited.CreatedAt)
	assert.Equal(t, -10.0, edited.PnL)
	assert.Equal(t, domain.OutcomeLoss, edited.WinLoss)
	assert.Equal(t, "EURUSD", edited.Ticker, "untouched fields are kept")
	assert.Equal(t, []string{"a", "b"}, edited.Tags)
	assert.Equal(t, "stopped out", edited.Notes)
	assert.Equal(t, -10.0, pub.last().NetProfit)

	_, err = svc.EditTrade(ctx, "missing", normalize.Record{"pnl": "1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.DeleteTrade(ctx, added.ID))
	assert.Equal(t, 0, pub.last().TotalTrades)
	assert.ErrorIs(t, svc.DeleteTrade(ctx, added.ID), domain.ErrNotFound)

	trades, err := svc.ListTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestService_EditCannotChangeID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	added, err := svc.AddTrade(ctx, normalize.Record{"pnl": "1"})
	require.NoError(t, err)

	edited, err := svc.EditTrade(ctx, added.ID, normalize.Record{"id": "other", "pnl": "2"})
	require.NoError(t, err)
	assert.Equal(t, added.ID, edited.ID)
}

func TestService_Performance(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, "journal.csv", strings.NewReader(exampleCSV))
	require.NoError(t, err)

	points, err := svc.Performance(ctx, domain.PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-01", points[0].Label)
	assert.Equal(t, 50.0, points[0].Profit)
	assert.Equal(t, 2, points[0].Trades)
}

func TestService_FetchTerminal(t *testing.T) {
	req := domain.TerminalRequest{Server: "Broker", Login: "42", Password: "pw"}

	svc, _ := newService(t)
	_, err := svc.FetchTerminal(context.Background(), req)
	assert.ErrorIs(t, err, journal.ErrTerminalUnavailable)

	upstream := &domain.TerminalError{Message: "MT5 connection failed", ExitCode: 1}
	f := &stubFetcher{err: upstream}
	svc, _ = newService(t, journal.WithTerminal(f))
	_, err = svc.FetchTerminal(context.Background(), req)
	var te *domain.TerminalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "MT5 connection failed", te.Message)
	assert.Equal(t, 1, f.calls, "no retries")

	f = &stubFetcher{stats: domain.Statistics{TotalTrades: 9}}
	svc, _ = newService(t, journal.WithTerminal(f))
	s, err := svc.FetchTerminal(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 9, s.TotalTrades)

	_, err = svc.FetchTerminal(context.Background(), domain.TerminalRequest{Server: "Broker"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, f.calls)
}

func TestService_Accounts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	acc, err := svc.AddAccount(ctx, domain.Account{Name: " Main ", Platform: domain.PlatformMT4, Server: "Broker-Live", Login: "1001"})
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "Main", acc.Name)
	assert.Equal(t, clock, acc.CreatedAt)

	_, err = svc.AddAccount(ctx, domain.Account{Name: "Dup", Platform: domain.PlatformMT4, Server: "Broker-Live", Login: "1001"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	_, err = svc.AddAccount(ctx, domain.Account{Name: "Bad", Platform: "MT9", Server: "x", Login: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, svc.DeleteAccount(ctx, acc.ID))
	assert.ErrorIs(t, svc.DeleteAccount(ctx, acc.ID), domain.ErrNotFound)
}

func TestService_Preview(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	rows, err := svc.Preview(ctx, "journal.csv", strings.NewReader(exampleCSV))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "preview never persists")
}
