// Package stats agrega un ledger de trades en un snapshot de Statistics y en
// la curva de rendimiento por periodo. Funciones puras: no mutan la entrada.
package stats

import (
	"math"
	"sort"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// pipFactor aproxima pips a partir de PnL y lotes: pnl / (lots × 10).
const pipFactor = 10

// Compute construye el snapshot completo. Nunca falla: una colección vacía
// devuelve todos los campos a 0.
func Compute(trades []domain.Trade) domain.Statistics {
	var s domain.Statistics
	if len(trades) == 0 {
		return s
	}

	var (
		curWins, curLosses int
		bestReturnSet      bool
	)
	s.BestTrade = math.Inf(-1)
	s.WorstTrade = math.Inf(1)

	// Las rachas dependen del orden: siempre cronológico, nunca el de ingestión.
	for _, t := range Chronological(trades) {
		s.TotalTrades++
		pnl := t.PnL

		switch {
		case pnl > 0:
			s.WinningTrades++
			s.TotalProfit += pnl
			curWins++
			curLosses = 0
			s.MaxConsecutiveWins = max(s.MaxConsecutiveWins, curWins)
		case pnl < 0:
			s.LosingTrades++
			s.TotalLoss += -pnl
			curLosses++
			curWins = 0
			s.MaxConsecutiveLosses = max(s.MaxConsecutiveLosses, curLosses)
		default:
			curWins, curLosses = 0, 0
		}

		s.BestTrade = math.Max(s.BestTrade, pnl)
		s.WorstTrade = math.Min(s.WorstTrade, pnl)

		lots := math.Abs(t.Size)
		s.TotalLots += lots
		if lots > 0 {
			pips := math.Abs(pnl / (lots * pipFactor))
			if pnl > 0 {
				s.PipsGained += pips
			} else if pnl < 0 {
				s.PipsLost += pips
			}
		}

		switch t.Direction {
		case domain.DirectionBuy:
			s.BuyTrades++
			s.BuyProfit += pnl
		case domain.DirectionSell:
			s.SellTrades++
			s.SellProfit += pnl
		}

		if notional := t.Notional(); notional > 0 {
			ret := pnl / notional * 100
			if !bestReturnSet || ret > s.BestTradeReturnPercent {
				s.BestTradeReturnPercent = ret
			}
			if !bestReturnSet || pnl > s.BestTradeReturnUSD {
				s.BestTradeReturnUSD = pnl
			}
			bestReturnSet = true
		}
	}

	s.NetProfit = s.TotalProfit - s.TotalLoss
	s.WinRate = ratio(float64(s.WinningTrades), float64(s.TotalTrades)) * 100
	s.AverageRR = ratio(s.TotalProfit, s.TotalLoss)
	s.AverageWin = ratio(s.TotalProfit, float64(s.WinningTrades))
	s.AverageLoss = ratio(s.TotalLoss, float64(s.LosingTrades))
	s.AverageLotSize = ratio(s.TotalLots, float64(s.TotalTrades))

	return s
}

// Chronological devuelve una copia ordenada por fecha ascendente (empate por ID).
func Chronological(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ratio es a/b, 0 cuando b es 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
