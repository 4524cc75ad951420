package paper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
)

// sweepWorkers limita las consultas simultáneas al exchange; el cliente ya aplica rate limit.
const sweepWorkers = 4

type settlement struct {
	market domain.MarketQuote
	err    error
}

// fetchSettlements consulta cada ticker una sola vez con un pool de workers.
// Los resultados se devuelven por ticker; el llamador aplica las resoluciones en orden.
func fetchSettlements(ctx context.Context, markets ports.MarketGetter, tickers []string, workers int) map[string]settlement {
	if workers <= 0 {
		workers = 1
	}

	type result struct {
		ticker string
		settlement
	}

	workCh := make(chan string, len(tickers))
	resultCh := make(chan result, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < min(workers, len(tickers)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range workCh {
				m, err := markets.GetMarket(ctx, ticker)
				resultCh <- result{ticker: ticker, settlement: settlement{market: m, err: err}}
			}
		}()
	}

	for _, t := range tickers {
		workCh <- t
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make(map[string]settlement, len(tickers))
	for r := range resultCh {
		out[r.ticker] = r.settlement
	}

	slog.Debug("settlement fetch complete", "tickers", len(tickers), "workers", workers)
	return out
}

// openTickers devuelve los tickers distintos con trades abiertos, en orden de aparición.
func openTickers(trades []domain.TradeRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range trades {
		if t.Status != domain.TradeOpen {
			continue
		}
		if _, ok := seen[t.Ticker]; ok {
			continue
		}
		seen[t.Ticker] = struct{}{}
		out = append(out, t.Ticker)
	}
	return out
}
