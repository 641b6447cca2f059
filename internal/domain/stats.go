package domain

import "time"

// Statistics es la proyección agregada del ledger. Nunca se muta: se reconstruye
// desde el ledger completo tras cada cambio.
//
// Los tags JSON coinciden con el payload que devuelve el relay del terminal, así
// un mismo struct sirve para ambos orígenes.
type Statistics struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"` // 0-100
	TotalProfit   float64 `json:"totalProfit"`
	TotalLoss     float64 `json:"totalLoss"` // valor absoluto
	NetProfit     float64 `json:"netProfit"`
	AverageRR     float64 `json:"averageRR"`

	// --- Métricas extendidas (dependen del orden cronológico las rachas) ---
	MaxConsecutiveWins     int     `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses   int     `json:"maxConsecutiveLosses"`
	BestTrade              float64 `json:"bestTrade"`
	WorstTrade             float64 `json:"worstTrade"`
	AverageWin             float64 `json:"averageWin"`
	AverageLoss            float64 `json:"averageLoss"` // magnitud
	TotalLots              float64 `json:"totalLots"`
	AverageLotSize         float64 `json:"averageLotSize"`
	PipsGained             float64 `json:"pipsGained"`
	PipsLost               float64 `json:"pipsLost"`
	BestTradeReturnPercent float64 `json:"bestTradeReturnPercent"`
	BestTradeReturnUSD     float64 `json:"bestTradeReturnUSD"`
	BuyTrades              int     `json:"buyTrades"`
	SellTrades             int     `json:"sellTrades"`
	BuyProfit              float64 `json:"buyProfit"`
	SellProfit             float64 `json:"sellProfit"`
	Deposits               float64 `json:"deposits"`
	Withdrawals            float64 `json:"withdrawals"`
	Currency               string  `json:"currency"`
}

// Period agrupa trades para la curva de rendimiento.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"
)

// PerformancePoint es un bucket de la curva de rendimiento.
type PerformancePoint struct {
	Label     string    `json:"name"`
	Start     time.Time `json:"start"`
	Profit    float64   `json:"profit"`
	ReturnPct float64   `json:"return"`
	Trades    int       `json:"trades"`
}
