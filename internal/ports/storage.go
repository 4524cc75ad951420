package ports

import (
	"context"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// LedgerStore persiste el ledger de paper trades. Cada Save reescribe el ledger entero.
type LedgerStore interface {
	// LoadTrades devuelve todos los trades en orden de creación. Vacío si no hay ledger.
	LoadTrades(ctx context.Context) ([]domain.TradeRecord, error)

	// SaveTrades reemplaza el ledger completo.
	SaveTrades(ctx context.Context, trades []domain.TradeRecord) error
}

// StatsStore persiste el último StatsSnapshot calculado.
type StatsStore interface {
	// LoadStats devuelve las stats guardadas, o un snapshot vacío si no hay.
	LoadStats(ctx context.Context) (domain.StatsSnapshot, error)

	SaveStats(ctx context.Context, stats domain.StatsSnapshot) error
}
