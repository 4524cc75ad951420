package paper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
)

// Resolution describe un trade que pasó a win/loss en un barrido.
type Resolution struct {
	Trade  domain.TradeRecord
	Result domain.Side
}

// ResolveAll recorre los trades abiertos y resuelve los que ya liquidaron.
// Un error al pedir el mercado o un mercado sin liquidar dejan el trade como está
// para el próximo barrido. Los trades win/loss nunca se vuelven a consultar.
// Devuelve el ledger actualizado (una copia) y las resoluciones nuevas, en el orden del ledger.
func ResolveAll(ctx context.Context, trades []domain.TradeRecord, markets ports.MarketGetter, now time.Time) ([]domain.TradeRecord, []Resolution) {
	updated := make([]domain.TradeRecord, len(trades))
	copy(updated, trades)

	settled := fetchSettlements(ctx, markets, openTickers(updated), sweepWorkers)

	var resolved []Resolution
	for i := range updated {
		t := &updated[i]
		if t.Status != domain.TradeOpen {
			continue
		}

		s := settled[t.Ticker]
		if s.err != nil {
			slog.Warn("market fetch failed, will retry next sweep", "id", t.ID, "ticker", t.Ticker, "err", s.err)
			continue
		}
		if !s.market.IsSettled() {
			slog.Info("market not yet settled", "id", t.ID, "ticker", t.Ticker, "status", s.market.Status)
			continue
		}

		if err := t.Resolve(s.market.Result, now); err != nil {
			continue
		}
		resolved = append(resolved, Resolution{Trade: *t, Result: s.market.Result})
	}
	return updated, resolved
}

// SweepResult es el resultado de un barrido completo del resolver.
type SweepResult struct {
	NewlyResolved int
	Milestone     bool
	Stats         domain.StatsSnapshot
	Resolutions   []Resolution
}

// Resolver cierra paper trades liquidados y mantiene las stats.
type Resolver struct {
	ledger    ports.LedgerStore
	stats     ports.StatsStore
	markets   ports.MarketGetter
	journal   ports.Journal
	milestone int
	now       func() time.Time
}

// NewResolver crea un Resolver. milestone <= 0 desactiva el aviso.
func NewResolver(ledger ports.LedgerStore, stats ports.StatsStore, markets ports.MarketGetter, journal ports.Journal, milestone int) *Resolver {
	return &Resolver{
		ledger:    ledger,
		stats:     stats,
		markets:   markets,
		journal:   journal,
		milestone: milestone,
		now:       time.Now,
	}
}

// Sweep resuelve los trades abiertos, persiste ledger y stats recalculadas, y detecta
// si se cruzó el milestone. Sin trades abiertos devuelve las stats guardadas.
//
// Es la única parte concurrente del proceso: los mercados se consultan con un pool de
// sweepWorkers (un GET por ticker distinto). Resoluciones, escrituras y journal se
// aplican después en esta goroutine, en el orden del ledger.
func (r *Resolver) Sweep(ctx context.Context) (SweepResult, error) {
	trades, err := r.ledger.LoadTrades(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("paper.Sweep: load ledger: %w", err)
	}

	open := len(trades) - domain.CountResolved(trades)
	if open == 0 {
		slog.Info("no open paper trades to resolve")
		stats, err := r.stats.LoadStats(ctx)
		if err != nil {
			return SweepResult{}, fmt.Errorf("paper.Sweep: load stats: %w", err)
		}
		return SweepResult{Stats: stats}, nil
	}

	slog.Info("resolving open paper trades", "open", open)
	prevResolved := domain.CountResolved(trades)

	now := r.now()
	updated, resolutions := ResolveAll(ctx, trades, r.markets, now)
	for _, res := range resolutions {
		r.logResolution(res)
	}

	if err := r.ledger.SaveTrades(ctx, updated); err != nil {
		return SweepResult{}, fmt.Errorf("paper.Sweep: save ledger: %w", err)
	}

	stats := domain.ComputeStats(updated, now)
	if err := r.stats.SaveStats(ctx, stats); err != nil {
		return SweepResult{}, fmt.Errorf("paper.Sweep: save stats: %w", err)
	}

	return SweepResult{
		NewlyResolved: len(resolutions),
		Milestone:     domain.MilestoneReached(prevResolved, stats.TotalResolved, r.milestone),
		Stats:         stats,
		Resolutions:   resolutions,
	}, nil
}

// Stats devuelve el último snapshot persistido sin tocar el ledger.
func (r *Resolver) Stats(ctx context.Context) (domain.StatsSnapshot, error) {
	stats, err := r.stats.LoadStats(ctx)
	if err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("paper.Stats: %w", err)
	}
	return stats, nil
}

func (r *Resolver) logResolution(res Resolution) {
	t := res.Trade
	pnl := t.PnL()
	outcome := fmt.Sprintf("WIN  +$%.2f", pnl)
	title := domain.EventPaperWin
	if t.Status == domain.TradeLoss {
		outcome = fmt.Sprintf("LOSS -$%.2f", -pnl)
		title = domain.EventPaperLoss
	}

	slog.Info("paper trade resolved", "id", t.ID, "ticker", t.Ticker, "status", t.Status, "pnl", pnl)

	if r.journal == nil {
		return
	}
	entry := domain.JournalEntry{Title: title}.
		Add("id", t.ID).
		Add("ticker", t.Ticker).
		Add("our_side", strings.ToUpper(string(t.Side))).
		Add("market_result", strings.ToUpper(string(res.Result))).
		Add("outcome", outcome).
		Add("signal_score", fmt.Sprintf("%d/5", t.SignalScore))
	if err := r.journal.Append(entry); err != nil {
		slog.Warn("journal append failed", "title", entry.Title, "err", err)
	}
}
