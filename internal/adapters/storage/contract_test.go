package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/ports"
)

func makeTrade(id string, date time.Time, pnl float64) domain.Trade {
	return domain.Trade{
		ID:             id,
		Date:           date,
		Ticker:         "EURUSD",
		Direction:      domain.DirectionFor(pnl),
		Entry:          1.085,
		Exit:           1.09,
		Size:           0.5,
		PnL:            pnl,
		Notes:          "note " + id,
		Tags:           []string{"trend", "london"},
		Strategy:       "breakout",
		InstrumentType: "FOREX",
		WinLoss:        domain.OutcomeFor(pnl),
		CreatedAt:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 9, 30, 0, 0, time.UTC)
}

func assertSameTrade(t *testing.T, want, got domain.Trade) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Date.Equal(got.Date), "date: want %s got %s", want.Date, got.Date)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s got %s", want.CreatedAt, got.CreatedAt)
	assert.Equal(t, want.Ticker, got.Ticker)
	assert.Equal(t, want.Direction, got.Direction)
	assert.Equal(t, want.Entry, got.Entry)
	assert.Equal(t, want.Exit, got.Exit)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.PnL, got.PnL)
	assert.Equal(t, want.Notes, got.Notes)
	assert.Equal(t, want.Tags, got.Tags)
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.MarketCondition, got.MarketCondition)
	assert.Equal(t, want.InstrumentType, got.InstrumentType)
	assert.Equal(t, want.WinLoss, got.WinLoss)
}

// runLedgerContract ejecuta el mismo contrato contra cada backend.
func runLedgerContract(t *testing.T, open func(t *testing.T) ports.Storage) {
	ctx := context.Background()

	t.Run("InsertGetList", func(t *testing.T) {
		s := open(t)
		a := makeTrade("a", day(15), 100)
		b := makeTrade("b", day(10), -50)
		require.NoError(t, s.Insert(ctx, a))
		require.NoError(t, s.Insert(ctx, b))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assertSameTrade(t, a, got)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "b", list[0].ID, "ordered by date asc")
		assert.Equal(t, "a", list[1].ID)
	})

	t.Run("ListEmpty", func(t *testing.T) {
		s := open(t)
		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("SameDateTieBreaksByID", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, makeTrade("z", day(1), 1)))
		require.NoError(t, s.Insert(ctx, makeTrade("m", day(1), 1)))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "m", list[0].ID)
		assert.Equal(t, "z", list[1].ID)
	})

	t.Run("EmptyTagsRoundTrip", func(t *testing.T) {
		s := open(t)
		tr := makeTrade("a", day(1), 0)
		tr.Tags = nil
		require.NoError(t, s.Insert(ctx, tr))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []string{}, got.Tags)
	})

	t.Run("DuplicateInsert", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, makeTrade("a", day(1), 1)))
		err := s.Insert(ctx, makeTrade("a", day(2), 2))
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("MissingID", func(t *testing.T) {
		s := open(t)
		err := s.Insert(ctx, makeTrade("", day(1), 1))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("DateOutOfRange", func(t *testing.T) {
		s := open(t)
		far := makeTrade("far", time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), 1)

		assert.ErrorIs(t, s.Insert(ctx, far), domain.ErrInvalidInput)
		err := s.InsertBatch(ctx, []domain.Trade{makeTrade("ok", day(1), 1), far})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		require.NoError(t, s.Insert(ctx, makeTrade("a", day(2), 5)))
		far.ID = "a"
		assert.ErrorIs(t, s.Update(ctx, far), domain.ErrInvalidInput)

		trades, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "a", trades[0].ID)
		assert.True(t, day(2).Equal(trades[0].Date))
	})

	t.Run("InsertBatchAllOrNothing", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, makeTrade("existing", day(1), 1)))

		err := s.InsertBatch(ctx, []domain.Trade{
			makeTrade("new-1", day(2), 1),
			makeTrade("existing", day(3), 1),
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1, "failed batch leaves the ledger unchanged")

		require.NoError(t, s.InsertBatch(ctx, []domain.Trade{
			makeTrade("new-1", day(2), 1),
			makeTrade("new-2", day(3), -1),
		}))
		list, err = s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		assert.NoError(t, s.InsertBatch(ctx, nil))
	})

	t.Run("UpdateReplacesTrade", func(t *testing.T) {
		s := open(t)
		orig := makeTrade("a", day(1), 10)
		require.NoError(t, s.Insert(ctx, orig))

		edited := orig
		edited.PnL = -5
		edited.WinLoss = domain.OutcomeLoss
		edited.Date = day(20)
		edited.Tags = []string{"revised"}
		require.NoError(t, s.Update(ctx, edited))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assertSameTrade(t, edited, got)
		assert.True(t, orig.CreatedAt.Equal(got.CreatedAt))

		err = s.Update(ctx, makeTrade("ghost", day(1), 1))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteAndNotFound", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, makeTrade("a", day(1), 1)))
		require.NoError(t, s.Delete(ctx, "a"))

		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "a"), domain.ErrNotFound)
	})

	t.Run("Accounts", func(t *testing.T) {
		s := open(t)
		acc := domain.Account{
			ID:        "acc-1",
			Name:      "Main",
			Platform:  domain.PlatformMT5,
			Server:    "Broker-Live",
			Login:     "123456",
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, s.SaveAccount(ctx, acc))

		dup := acc
		dup.ID = "acc-2"
		assert.ErrorIs(t, s.SaveAccount(ctx, dup), domain.ErrDuplicateKey)

		invalid := acc
		invalid.ID, invalid.Name = "acc-3", ""
		assert.ErrorIs(t, s.SaveAccount(ctx, invalid), domain.ErrInvalidInput)

		accounts, err := s.ListAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Main", accounts[0].Name)
		assert.Equal(t, domain.PlatformMT5, accounts[0].Platform)
		assert.True(t, acc.CreatedAt.Equal(accounts[0].CreatedAt))

		require.NoError(t, s.DeleteAccount(ctx, "acc-1"))
		assert.ErrorIs(t, s.DeleteAccount(ctx, "acc-1"), domain.ErrNotFound)
	})
}
