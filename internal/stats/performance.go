package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// ParsePeriod acepta daily/weekly/monthly/annual (también day/week/month/year).
func ParsePeriod(s string) (domain.Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return domain.PeriodDaily, nil
	case "weekly", "week", "w":
		return domain.PeriodWeekly, nil
	case "monthly", "month", "m", "":
		return domain.PeriodMonthly, nil
	case "annual", "annually", "yearly", "year", "y":
		return domain.PeriodAnnual, nil
	}
	return "", fmt.Errorf("stats.ParsePeriod: %w: unknown period %q", domain.ErrInvalidInput, s)
}

// Performance agrupa los trades por periodo y devuelve un punto por bucket,
// ordenado cronológicamente. ReturnPct = profit / Σ|entry×size| × 100.
// Un periodo desconocido se trata como mensual.
func Performance(trades []domain.Trade, period domain.Period, loc *time.Location) []domain.PerformancePoint {
	if loc == nil {
		loc = time.UTC
	}

	type bucket struct {
		point    domain.PerformancePoint
		notional float64
	}
	buckets := make(map[time.Time]*bucket)
	var order []time.Time

	for _, t := range Chronological(trades) {
		start := bucketStart(t.Date.In(loc), period)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{point: domain.PerformancePoint{
				Label: bucketLabel(start, period),
				Start: start,
			}}
			buckets[start] = b
			order = append(order, start)
		}
		b.point.Profit += t.PnL
		b.point.Trades++
		b.notional += t.Notional()
	}

	points := make([]domain.PerformancePoint, 0, len(order))
	for _, start := range order {
		b := buckets[start]
		b.point.ReturnPct = ratio(b.point.Profit, b.notional) * 100
		points = append(points, b.point)
	}
	return points
}

func bucketStart(t time.Time, period domain.Period) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch period {
	case domain.PeriodDaily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case domain.PeriodWeekly:
		// Semana ISO: empieza en lunes.
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case domain.PeriodAnnual:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

func bucketLabel(start time.Time, period domain.Period) string {
	switch period {
	case domain.PeriodDaily:
		return start.Format("2006-01-02")
	case domain.PeriodWeekly:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case domain.PeriodAnnual:
		return start.Format("2006")
	default:
		return start.Format("2006-01")
	}
}
