package ports

import (
	"context"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// StatsPublisher recibe el snapshot recalculado tras cada cambio del ledger.
// En la API es el hub de websockets.
type StatsPublisher interface {
	PublishStats(ctx context.Context, s domain.Statistics)
}

// Reporter presenta el ledger y sus métricas al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Reporter interface {
	ReportStats(ctx context.Context, s domain.Statistics) error
	ReportTrades(ctx context.Context, trades []domain.Trade) error
	ReportPerformance(ctx context.Context, period domain.Period, points []domain.PerformancePoint) error
}
