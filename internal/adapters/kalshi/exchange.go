package kalshi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

const marketsPageLimit = 50

// GetBalance devuelve el saldo disponible en centavos.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	var resp balanceResponse
	if err := c.get(ctx, apiPrefix+"/portfolio/balance", &resp); err != nil {
		return 0, fmt.Errorf("kalshi.GetBalance: %w", err)
	}
	return resp.Balance, nil
}

// GetOpenOrders devuelve las órdenes en reposo.
func (c *Client) GetOpenOrders(ctx context.Context) ([]domain.Order, error) {
	var resp ordersResponse
	if err := c.get(ctx, apiPrefix+"/portfolio/orders?status=resting", &resp); err != nil {
		return nil, fmt.Errorf("kalshi.GetOpenOrders: %w", err)
	}
	orders := make([]domain.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, toOrder(o))
	}
	return orders, nil
}

// GetPositions devuelve las posiciones de mercado.
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	var resp positionsResponse
	if err := c.get(ctx, apiPrefix+"/portfolio/positions", &resp); err != nil {
		return nil, fmt.Errorf("kalshi.GetPositions: %w", err)
	}
	positions := make([]domain.Position, 0, len(resp.MarketPositions))
	for _, p := range resp.MarketPositions {
		positions = append(positions, domain.Position{Ticker: p.Ticker, Quantity: p.Position})
	}
	return positions, nil
}

// GetMarkets devuelve la primera página de mercados abiertos de la serie.
func (c *Client) GetMarkets(ctx context.Context, series string) ([]domain.MarketQuote, error) {
	q := url.Values{}
	q.Set("series_ticker", series)
	q.Set("status", "open")
	q.Set("limit", fmt.Sprint(marketsPageLimit))

	var resp marketsResponse
	if err := c.get(ctx, apiPrefix+"/markets?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("kalshi.GetMarkets: %w", err)
	}
	markets := make([]domain.MarketQuote, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		markets = append(markets, toMarketQuote(m))
	}
	return markets, nil
}

// GetMarket devuelve un mercado por ticker, incluido su estado y resultado.
func (c *Client) GetMarket(ctx context.Context, ticker string) (domain.MarketQuote, error) {
	var resp marketResponse
	if err := c.get(ctx, apiPrefix+"/markets/"+url.PathEscape(ticker), &resp); err != nil {
		return domain.MarketQuote{}, fmt.Errorf("kalshi.GetMarket %s: %w", ticker, err)
	}
	if resp.Market == nil {
		return domain.MarketQuote{}, fmt.Errorf("kalshi.GetMarket %s: empty market in response", ticker)
	}
	return toMarketQuote(*resp.Market), nil
}

// PlaceOrder coloca una orden límite de compra al precio de la recomendación.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	var resp createOrderResponse
	if err := c.post(ctx, apiPrefix+"/portfolio/orders", toCreateOrder(req), &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder %s: %w", req.Ticker, err)
	}
	res := domain.OrderResult{OrderID: resp.Order.OrderID, Status: resp.Order.Status}
	if res.OrderID == "" {
		res.OrderID = "unknown"
	}
	if res.Status == "" {
		res.Status = "unknown"
	}
	return res, nil
}
