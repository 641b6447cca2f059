package ports

import (
	"context"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// Ledger persiste los trades del diario, indexados por ID.
//
// Los trades no se editan in situ: Update es un borrado + reinserción dentro de
// la misma transacción.
type Ledger interface {
	// List devuelve todos los trades ordenados por fecha ascendente (empate por ID).
	List(ctx context.Context) ([]domain.Trade, error)

	// Get devuelve un trade o domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Trade, error)

	// Insert guarda un trade nuevo. Un ID repetido es domain.ErrDuplicateKey.
	Insert(ctx context.Context, t domain.Trade) error

	// InsertBatch guarda todos los trades o ninguno.
	InsertBatch(ctx context.Context, trades []domain.Trade) error

	// Update sustituye el trade con el mismo ID. domain.ErrNotFound si no existe.
	Update(ctx context.Context, t domain.Trade) error

	// Delete elimina un trade. domain.ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error

	// Close libera la conexión.
	Close() error
}

// AccountStore persiste las cuentas de terminal registradas (sin contraseña).
type AccountStore interface {
	SaveAccount(ctx context.Context, a domain.Account) error
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// Storage es lo que devuelve storage.Open: ledger y cuentas en el mismo backend.
type Storage interface {
	Ledger
	AccountStore
}
