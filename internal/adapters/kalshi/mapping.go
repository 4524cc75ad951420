package kalshi

import (
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// toMarketQuote convierte un mercado crudo. Un close_time ilegible se descarta
// (queda nil) y el mercado sigue siendo candidato.
func toMarketQuote(m marketDTO) domain.MarketQuote {
	q := domain.NewMarketQuote(m.Ticker, m.YesBid, m.YesAsk, parseCloseTime(m.Ticker, m.CloseTime))
	q.Status = m.Status
	q.Result = domain.Side(strings.ToLower(m.Result))
	return q
}

func parseCloseTime(ticker, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		slog.Debug("unparseable close_time", "ticker", ticker, "close_time", raw, "err", err)
		return nil
	}
	t = t.UTC()
	return &t
}

func toOrder(o orderDTO) domain.Order {
	side := domain.Side(o.Side)
	price := o.YesPrice
	if side == domain.SideNo {
		price = o.NoPrice
	}
	return domain.Order{
		OrderID:        o.OrderID,
		Ticker:         o.Ticker,
		Side:           side,
		RemainingCount: o.RemainingCount,
		PriceCents:     price,
		Status:         o.Status,
	}
}

func toCreateOrder(req domain.OrderRequest) createOrderRequest {
	body := createOrderRequest{
		Ticker: req.Ticker,
		Action: "buy",
		Side:   string(req.Side),
		Type:   "limit",
		Count:  req.Count,
	}
	if req.Side == domain.SideNo {
		body.NoPrice = req.PriceCents
	} else {
		body.YesPrice = req.PriceCents
	}
	return body
}
