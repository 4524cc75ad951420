package ports

import (
	"context"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// MarketGetter obtiene un mercado por ticker. Es lo único que necesita el resolver.
type MarketGetter interface {
	GetMarket(ctx context.Context, ticker string) (domain.MarketQuote, error)
}

// Exchange es el cliente autenticado del exchange de contratos.
// Los errores devueltos se reportan; el core no reintenta.
type Exchange interface {
	MarketGetter

	// GetBalance devuelve el saldo disponible en centavos.
	GetBalance(ctx context.Context) (int64, error)

	// GetOpenOrders devuelve las órdenes en reposo.
	GetOpenOrders(ctx context.Context) ([]domain.Order, error)

	// GetPositions devuelve las posiciones abiertas.
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// GetMarkets devuelve los mercados abiertos de la serie dada (p.ej. KXBTCD).
	GetMarkets(ctx context.Context, series string) ([]domain.MarketQuote, error)

	// PlaceOrder coloca una orden límite de compra.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}
