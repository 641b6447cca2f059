package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

const maxNotes = 30

// Console implementa ports.Reporter escribiendo tablas en texto plano.
type Console struct {
	out io.Writer
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// ReportStats imprime el resumen de rendimiento del ledger.
func (c *Console) ReportStats(_ context.Context, s domain.Statistics) error {
	if s.TotalTrades == 0 {
		fmt.Fprintln(c.out, "No trades in the journal yet.")
		return nil
	}

	cur := s.Currency
	if cur == "" {
		cur = "USD"
	}

	fmt.Fprintf(c.out, "\n=== JOURNAL SUMMARY (%s) ===\n", cur)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	rows := [][2]string{
		{"Trades", fmt.Sprintf("%d (W:%d L:%d)", s.TotalTrades, s.WinningTrades, s.LosingTrades)},
		{"Win rate", percent(s.WinRate)},
		{"Total profit", money(s.TotalProfit)},
		{"Total loss", money(s.TotalLoss)},
		{"Net profit", money(s.NetProfit)},
		{"Average R:R", round2(s.AverageRR)},
		{"Average win", money(s.AverageWin)},
		{"Average loss", money(s.AverageLoss)},
		{"Best / worst", money(s.BestTrade) + " / " + money(s.WorstTrade)},
		{"Max streak W / L", fmt.Sprintf("%d / %d", s.MaxConsecutiveWins, s.MaxConsecutiveLosses)},
		{"Lots (avg)", round2(s.TotalLots) + " (" + round2(s.AverageLotSize) + ")"},
		{"Pips + / -", round2(s.PipsGained) + " / " + round2(s.PipsLost)},
		{"Buy", fmt.Sprintf("%d trades, %s", s.BuyTrades, money(s.BuyProfit))},
		{"Sell", fmt.Sprintf("%d trades, %s", s.SellTrades, money(s.SellProfit))},
		{"Best return", percent(s.BestTradeReturnPercent) + " (" + money(s.BestTradeReturnUSD) + ")"},
	}
	if s.Deposits != 0 || s.Withdrawals != 0 {
		rows = append(rows,
			[2]string{"Deposits", money(s.Deposits)},
			[2]string{"Withdrawals", money(s.Withdrawals)},
		)
	}
	for _, r := range rows {
		table.Append(r[0], r[1])
	}
	table.Render()
	return nil
}

// ReportTrades imprime el ledger en orden cronológico.
func (c *Console) ReportTrades(_ context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "No trades in the journal yet.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Date", "Ticker", "Dir", "Size", "Entry", "Exit", "PnL", "Result", "Strategy", "Notes")
	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.Date.Format("2006-01-02 15:04"),
			t.Ticker,
			string(t.Direction),
			trimZeros(t.Size),
			trimZeros(t.Entry),
			trimZeros(t.Exit),
			money(t.PnL),
			string(t.WinLoss),
			t.Strategy,
			truncate(t.Notes, maxNotes),
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "  %d trades\n", len(trades))
	return nil
}

// ReportPerformance imprime un bucket por fila.
func (c *Console) ReportPerformance(_ context.Context, period domain.Period, points []domain.PerformancePoint) error {
	if len(points) == 0 {
		fmt.Fprintf(c.out, "No %s performance data.\n", period)
		return nil
	}

	fmt.Fprintf(c.out, "\n=== %s PERFORMANCE ===\n", strings.ToUpper(string(period)))
	table := tablewriter.NewWriter(c.out)
	table.Header("Period", "Trades", "Profit", "Return")

	total := decimal.Zero
	for _, p := range points {
		total = total.Add(decimal.NewFromFloat(p.Profit))
		table.Append(p.Label, fmt.Sprintf("%d", p.Trades), money(p.Profit), percent(p.ReturnPct))
	}
	table.Render()
	fmt.Fprintf(c.out, "  Total: %s\n", total.StringFixed(2))
	return nil
}

// money redondea a céntimos sin errores de coma flotante ("12.345" → "12.35").
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

func round2(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

// trimZeros muestra precios y lotes sin ceros de relleno; 0 se muestra vacío.
func trimZeros(v float64) string {
	if v == 0 {
		return ""
	}
	return decimal.NewFromFloat(v).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
