package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/stats"
)

func trade(id string, date time.Time, pnl float64) domain.Trade {
	return domain.Trade{
		ID:        id,
		Date:      date,
		PnL:       pnl,
		Direction: domain.DirectionFor(pnl),
		WinLoss:   domain.OutcomeFor(pnl),
	}
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_Empty(t *testing.T) {
	s := stats.Compute(nil)

	assert.Equal(t, domain.Statistics{}, s)
	assert.Equal(t, 0, s.TotalTrades)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.NetProfit)
	assert.Equal(t, 0.0, s.AverageRR)
}

func TestCompute_CoreExample(t *testing.T) {
	s := stats.Compute([]domain.Trade{
		trade("b", at(2024, 1, 15), 100),
		trade("a", at(2024, 1, 10), -50),
	})

	assert.Equal(t, 2, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 50.0, s.WinRate)
	assert.Equal(t, 100.0, s.TotalProfit)
	assert.Equal(t, 50.0, s.TotalLoss)
	assert.Equal(t, 50.0, s.NetProfit)
	assert.Equal(t, 2.0, s.AverageRR)
}

func TestCompute_BreakevenCountedOnlyInTotal(t *testing.T) {
	s := stats.Compute([]domain.Trade{
		trade("a", at(2024, 1, 1), 10),
		trade("b", at(2024, 1, 2), 0),
		trade("c", at(2024, 1, 3), 0),
	})

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 0, s.LosingTrades)
	assert.InDelta(t, 33.333, s.WinRate, 0.001)
	assert.Equal(t, 0.0, s.AverageRR, "no losses means averageRR 0")
	assert.Equal(t, 0.0, s.AverageLoss)
}

func TestCompute_StreaksAreChronological(t *testing.T) {
	// Orden de ingestión alterno; cronológicamente son W W W L L B W
	trades := []domain.Trade{
		trade("7", at(2024, 1, 7), 5),
		trade("1", at(2024, 1, 1), 10),
		trade("4", at(2024, 1, 4), -5),
		trade("2", at(2024, 1, 2), 20),
		trade("6", at(2024, 1, 6), 0),
		trade("3", at(2024, 1, 3), 30),
		trade("5", at(2024, 1, 5), -15),
	}
	original := append([]domain.Trade(nil), trades...)

	s := stats.Compute(trades)

	assert.Equal(t, 3, s.MaxConsecutiveWins)
	assert.Equal(t, 2, s.MaxConsecutiveLosses)
	assert.Equal(t, original, trades, "input must not be reordered")
}

func TestCompute_BreakevenResetsStreaks(t *testing.T) {
	s := stats.Compute([]domain.Trade{
		trade("1", at(2024, 1, 1), 1),
		trade("2", at(2024, 1, 2), 1),
		trade("3", at(2024, 1, 3), 0),
		trade("4", at(2024, 1, 4), 1),
		trade("5", at(2024, 1, 5), -1),
		trade("6", at(2024, 1, 6), 0),
		trade("7", at(2024, 1, 7), -1),
	})

	assert.Equal(t, 2, s.MaxConsecutiveWins)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)
}

func TestCompute_ExtendedFields(t *testing.T) {
	trades := []domain.Trade{
		{ID: "1", Date: at(2024, 2, 1), Direction: domain.DirectionBuy, Entry: 100, Size: 2, PnL: 40},
		{ID: "2", Date: at(2024, 2, 2), Direction: domain.DirectionSell, Entry: 50, Size: 1, PnL: -20},
		{ID: "3", Date: at(2024, 2, 3), Direction: domain.DirectionBuy, Entry: 10, Size: 1, PnL: 5},
		{ID: "4", Date: at(2024, 2, 4), Direction: domain.DirectionUnknown, PnL: 0},
	}

	s := stats.Compute(trades)

	assert.Equal(t, 40.0, s.BestTrade)
	assert.Equal(t, -20.0, s.WorstTrade)
	assert.Equal(t, 22.5, s.AverageWin)
	assert.Equal(t, 20.0, s.AverageLoss)
	assert.Equal(t, 4.0, s.TotalLots)
	assert.Equal(t, 1.0, s.AverageLotSize)
	assert.InDelta(t, 2.0+0.5, s.PipsGained, 1e-9)
	assert.InDelta(t, 2.0, s.PipsLost, 1e-9)
	assert.Equal(t, 2, s.BuyTrades)
	assert.Equal(t, 1, s.SellTrades)
	assert.Equal(t, 45.0, s.BuyProfit)
	assert.Equal(t, -20.0, s.SellProfit)
	assert.InDelta(t, 50.0, s.BestTradeReturnPercent, 1e-9)
	assert.Equal(t, 40.0, s.BestTradeReturnUSD)
	assert.Equal(t, 0.0, s.Deposits)
	assert.Empty(t, s.Currency)
}

func TestCompute_AllLosses(t *testing.T) {
	s := stats.Compute([]domain.Trade{
		trade("1", at(2024, 1, 1), -10),
		trade("2", at(2024, 1, 2), -30),
	})

	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.AverageRR)
	assert.Equal(t, -40.0, s.NetProfit)
	assert.Equal(t, -10.0, s.BestTrade)
	assert.Equal(t, -30.0, s.WorstTrade)
	assert.Equal(t, 2, s.MaxConsecutiveLosses)
}

func TestChronological_TieBreaksByID(t *testing.T) {
	d := at(2024, 1, 1)
	out := stats.Chronological([]domain.Trade{trade("b", d, 1), trade("a", d, 2), trade("c", at(2023, 1, 1), 3)})

	require.Len(t, out, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{out[0].ID, out[1].ID, out[2].ID})
}
