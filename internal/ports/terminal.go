package ports

import (
	"context"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// TerminalFetcher obtiene las estadísticas de una cuenta desde el terminal de
// trading. Una sola petición/respuesta: los fallos se devuelven tal cual, sin
// reintentos.
type TerminalFetcher interface {
	Fetch(ctx context.Context, req domain.TerminalRequest) (domain.Statistics, error)
}
