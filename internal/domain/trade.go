package domain

import "time"

// Direction es el sentido de un trade.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionUnknown Direction = "UNKNOWN"
)

// WinLoss clasifica el resultado de un trade. Siempre se deriva del signo del PnL.
type WinLoss string

const (
	OutcomeWin       WinLoss = "WIN"
	OutcomeLoss      WinLoss = "LOSS"
	OutcomeBreakeven WinLoss = "BREAKEVEN"
)

// DefaultInstrumentType se usa cuando ni la fuente ni la config indican el tipo.
const DefaultInstrumentType = "FOREX"

// Trade es la entrada canónica del diario. Inmutable una vez creada:
// una edición es un borrado + reinserción a nivel de ledger.
type Trade struct {
	ID              string    `json:"id"`
	Date            time.Time `json:"date"`
	Ticker          string    `json:"ticker"`
	Direction       Direction `json:"direction"`
	Entry           float64   `json:"entry"`
	Exit            float64   `json:"exit"`
	Size            float64   `json:"size"`
	PnL             float64   `json:"pnl"`
	Notes           string    `json:"notes"`
	Tags            []string  `json:"tags"`
	Strategy        string    `json:"strategy"`
	MarketCondition string    `json:"market_condition"`
	InstrumentType  string    `json:"instrument_type"`
	WinLoss         WinLoss   `json:"win_loss"`
	CreatedAt       time.Time `json:"created_at"`
}

// OutcomeFor devuelve WIN/LOSS/BREAKEVEN según el signo del PnL.
func OutcomeFor(pnl float64) WinLoss {
	switch {
	case pnl > 0:
		return OutcomeWin
	case pnl < 0:
		return OutcomeLoss
	default:
		return OutcomeBreakeven
	}
}

// DirectionFor infiere la dirección a partir del signo del PnL.
// Solo se usa cuando la fuente no trae dirección.
func DirectionFor(pnl float64) Direction {
	switch {
	case pnl > 0:
		return DirectionBuy
	case pnl < 0:
		return DirectionSell
	default:
		return DirectionUnknown
	}
}

// IsWin es true si el trade cerró con beneficio.
func (t Trade) IsWin() bool { return t.PnL > 0 }

// IsLoss es true si el trade cerró con pérdida.
func (t Trade) IsLoss() bool { return t.PnL < 0 }

// Notional es |entry × size|, la base para calcular retornos porcentuales.
func (t Trade) Notional() float64 {
	n := t.Entry * t.Size
	if n < 0 {
		return -n
	}
	return n
}
