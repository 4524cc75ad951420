package paper

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)

func openTrade(id, ticker string, side domain.Side, cost, contracts int) domain.TradeRecord {
	return domain.TradeRecord{
		ID:             id,
		Ticker:         ticker,
		Side:           side,
		EntryCostCents: cost,
		Contracts:      contracts,
		Status:         domain.TradeOpen,
	}
}

func newTestResolver(store *memStore, markets *fakeMarkets, journal ports.Journal, milestone int) *Resolver {
	r := NewResolver(store, store, markets, journal, milestone)
	r.now = func() time.Time { return sweepNow }
	return r
}

func TestResolveAll_WinAndLoss(t *testing.T) {
	trades := []domain.TradeRecord{
		openTrade("A", "KX-T1", domain.SideYes, 30, 10),
		openTrade("B", "KX-T2", domain.SideNo, 30, 10),
	}
	markets := newFakeMarkets()
	markets.settle("KX-T1", domain.SideYes)
	markets.settle("KX-T2", domain.SideYes)

	updated, res := ResolveAll(context.Background(), trades, markets, sweepNow)
	require.Len(t, res, 2)

	assert.Equal(t, domain.TradeWin, updated[0].Status)
	assert.InDelta(t, 7.00, updated[0].PnL(), 1e-9)
	assert.Equal(t, domain.TradeLoss, updated[1].Status)
	assert.InDelta(t, -3.00, updated[1].PnL(), 1e-9)
	require.NotNil(t, updated[1].ResultSide)
	assert.Equal(t, domain.SideYes, *updated[1].ResultSide)
	assert.Equal(t, sweepNow, *updated[1].ResolvedAt)

	// la entrada no se muta
	assert.Equal(t, domain.TradeOpen, trades[0].Status)
}

func TestResolveAll_LeavesUnsettledAndFailedOpen(t *testing.T) {
	trades := []domain.TradeRecord{
		openTrade("A", "KX-OPEN", domain.SideYes, 30, 10),
		openTrade("B", "KX-FAIL", domain.SideYes, 30, 10),
	}
	markets := newFakeMarkets()
	markets.failing["KX-FAIL"] = true

	updated, res := ResolveAll(context.Background(), trades, markets, sweepNow)
	assert.Empty(t, res)
	assert.Equal(t, trades, updated)
}

func TestResolveAll_SkipsTerminalTrades(t *testing.T) {
	pnl := 7.0
	done := openTrade("A", "KX-T1", domain.SideYes, 30, 10)
	done.Status = domain.TradeWin
	done.RealizedPnL = &pnl

	markets := newFakeMarkets()
	markets.settle("KX-T1", domain.SideNo)

	updated, res := ResolveAll(context.Background(), []domain.TradeRecord{done}, markets, sweepNow)
	assert.Empty(t, res)
	assert.Zero(t, markets.calls["KX-T1"], "un trade cerrado no se consulta")
	assert.Equal(t, domain.TradeWin, updated[0].Status)
}

func TestSweep_PersistsAndIsIdempotent(t *testing.T) {
	store := &memStore{trades: []domain.TradeRecord{
		openTrade("A", "KX-T1", domain.SideYes, 30, 10),
		openTrade("B", "KX-T2", domain.SideNo, 30, 10),
		openTrade("C", "KX-T3", domain.SideYes, 25, 4),
	}}
	markets := newFakeMarkets()
	markets.settle("KX-T1", domain.SideYes)
	markets.settle("KX-T2", domain.SideYes)
	journal := &memJournal{}
	r := newTestResolver(store, markets, journal, 20)

	res, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewlyResolved)
	assert.False(t, res.Milestone)
	assert.Equal(t, 2, res.Stats.TotalResolved)
	assert.Equal(t, 1, res.Stats.OpenTrades)
	assert.InDelta(t, 4.00, res.Stats.TotalPnL, 1e-9)
	assert.Equal(t, res.Stats, store.stats)
	assert.Equal(t, []string{domain.EventPaperWin, domain.EventPaperLoss}, journal.titles())

	first := append([]domain.TradeRecord(nil), store.trades...)

	again, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.NewlyResolved)
	assert.Equal(t, first, store.trades)
	assert.Equal(t, 1, markets.calls["KX-T1"])
	assert.Len(t, journal.entries, 2)
}

func TestSweep_NoOpenTradesReturnsStoredStats(t *testing.T) {
	stored := domain.StatsSnapshot{TotalResolved: 3, TotalPnL: 12.5}
	store := &memStore{stats: stored}
	r := newTestResolver(store, newFakeMarkets(), nil, 20)

	res, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.NewlyResolved)
	assert.Equal(t, stored, res.Stats)
	assert.Zero(t, store.saves)
}

func TestSweep_MilestoneFiresOnce(t *testing.T) {
	var trades []domain.TradeRecord
	pnl := 1.0
	for i := range 19 {
		tr := openTrade(string(rune('a'+i)), "KX-OLD", domain.SideYes, 30, 1)
		tr.Status = domain.TradeWin
		tr.RealizedPnL = &pnl
		trades = append(trades, tr)
	}
	trades = append(trades, openTrade("LAST", "KX-NEW", domain.SideYes, 30, 1))
	store := &memStore{trades: trades}
	markets := newFakeMarkets()
	markets.settle("KX-NEW", domain.SideYes)
	r := newTestResolver(store, markets, nil, 20)

	res, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Milestone)
	assert.Equal(t, 20, res.Stats.TotalResolved)

	store.trades = append(store.trades, openTrade("NEXT", "KX-NEXT", domain.SideYes, 30, 1))
	markets.settle("KX-NEXT", domain.SideNo)
	res, err = r.Sweep(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Milestone)
}

func TestResolverStats_ReadOnly(t *testing.T) {
	store := &memStore{
		trades: []domain.TradeRecord{openTrade("A", "KX-T1", domain.SideYes, 30, 10)},
		stats:  domain.StatsSnapshot{TotalResolved: 1},
	}
	markets := newFakeMarkets()
	markets.settle("KX-T1", domain.SideYes)
	r := newTestResolver(store, markets, nil, 20)

	stats, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalResolved)
	assert.Zero(t, markets.calls["KX-T1"])
	assert.Equal(t, domain.TradeOpen, store.trades[0].Status)
}
