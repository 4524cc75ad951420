package monitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeExchange struct {
	balance    int64
	balanceErr error
	markets    []domain.MarketQuote
	marketsErr error
	orders     []domain.Order
	positions  []domain.Position
	placeErr   error
	placed     []domain.OrderRequest
	seriesSeen []string
}

func (f *fakeExchange) GetMarket(_ context.Context, ticker string) (domain.MarketQuote, error) {
	return domain.MarketQuote{Ticker: ticker}, nil
}

func (f *fakeExchange) GetBalance(_ context.Context) (int64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeExchange) GetOpenOrders(_ context.Context) ([]domain.Order, error) {
	return f.orders, nil
}

func (f *fakeExchange) GetPositions(_ context.Context) ([]domain.Position, error) {
	return f.positions, nil
}

func (f *fakeExchange) GetMarkets(_ context.Context, series string) ([]domain.MarketQuote, error) {
	f.seriesSeen = append(f.seriesSeen, series)
	return f.markets, f.marketsErr
}

func (f *fakeExchange) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return domain.OrderResult{}, f.placeErr
	}
	return domain.OrderResult{OrderID: "ord-1", Status: "resting"}, nil
}

type fakePrices struct {
	snap domain.PriceSnapshot
	err  error
}

func (f fakePrices) FetchSnapshot(_ context.Context) (domain.PriceSnapshot, error) {
	return f.snap, f.err
}

type fakeSentiment struct {
	s   domain.Sentiment
	err error
}

func (f fakeSentiment) FetchSentiment(_ context.Context) (domain.Sentiment, error) {
	return f.s, f.err
}

type fakeLedger struct {
	opened []domain.Recommendation
	scores []domain.SignalScore
}

func (f *fakeLedger) Open(_ context.Context, rec domain.Recommendation, score domain.SignalScore, snap domain.PriceSnapshot) (domain.TradeRecord, error) {
	f.opened = append(f.opened, rec)
	f.scores = append(f.scores, score)
	return domain.TradeRecord{ID: "PAPER001", Ticker: rec.Ticker, Status: domain.TradeOpen, BTCPriceAtEntry: snap.Price}, nil
}

type recJournal struct {
	entries []domain.JournalEntry
}

func (j *recJournal) Append(e domain.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *recJournal) last() domain.JournalEntry {
	return j.entries[len(j.entries)-1]
}

func field(e domain.JournalEntry, key string) string {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// --- fixtures ---

// strongBullSnapshot puntúa 5/5 con sentimiento 50: rango (100000−93000)/10000 = 0.7.
func strongBullSnapshot() domain.PriceSnapshot {
	return domain.PriceSnapshot{
		Price:     100_000,
		Change1h:  0.5,
		Change24h: 2.0,
		High24h:   103_000,
		Low24h:    93_000,
		Volume24h: 40e9,
	}
}

func bullMarkets() []domain.MarketQuote {
	closeAt := time.Now().Add(10 * time.Hour)
	return []domain.MarketQuote{
		domain.NewMarketQuote("KXBTCD-26FEB0317-T97000", 20, 30, &closeAt),
		domain.NewMarketQuote("KXBTCD-26FEB0317-T99000", 50, 60, &closeAt),
	}
}

type harness struct {
	exchange *fakeExchange
	ledger   *fakeLedger
	journal  *recJournal
}

func newMonitor(cfg monitor.Config, prices fakePrices, sentiment fakeSentiment, ex *fakeExchange) (*monitor.Monitor, harness) {
	h := harness{exchange: ex, ledger: &fakeLedger{}, journal: &recJournal{}}
	return monitor.New(cfg, ex, prices, sentiment, h.ledger, h.journal), h
}

func neutral() fakeSentiment {
	return fakeSentiment{s: domain.Sentiment{Value: 50, Label: "Neutral"}}
}

// --- tests ---

func TestRunOnce_StrongBullOpensPaperTrade(t *testing.T) {
	ex := &fakeExchange{balance: 50_000, markets: bullMarkets()}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, monitor.DecisionPaper, out.Decision)
	assert.Equal(t, 5, out.Score.Score)
	assert.True(t, out.Bullish)
	require.NotNil(t, out.Recommendation)
	assert.Equal(t, domain.ActionBuyYes, out.Recommendation.Action)
	assert.Equal(t, "KXBTCD-26FEB0317-T97000", out.Recommendation.Ticker)
	assert.InDelta(t, 3.0, out.Recommendation.DistancePct, 1e-9)
	assert.Equal(t, "BTC up +2.0% 24h, score 5/5. Betting it closes above $97,000 at settlement.", out.Recommendation.Thesis)
	assert.Equal(t, 333, out.Contracts)
	require.NotNil(t, out.Trade)
	assert.Equal(t, "PAPER001", out.Trade.ID)

	require.Len(t, h.ledger.opened, 1)
	assert.Equal(t, 5, h.ledger.scores[0].Score)
	assert.Empty(t, ex.placed, "en dry-run no se envían órdenes")
	assert.Equal(t, []string{"KXBTCD"}, ex.seriesSeen)
}

func TestRunOnce_MomentumGate(t *testing.T) {
	snap := strongBullSnapshot()
	snap.Change24h = 0.1
	ex := &fakeExchange{balance: 50_000, markets: bullMarkets()}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: snap}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, monitor.DecisionNoTrade, out.Decision)
	assert.Contains(t, out.Reason, "below ±0.3% gate")
	assert.Empty(t, ex.seriesSeen, "no se piden mercados")
	assert.Empty(t, h.ledger.opened)
	require.Len(t, h.journal.entries, 1)
	assert.Equal(t, domain.EventNoTrade, h.journal.last().Title)
	assert.Equal(t, "live", field(h.journal.last(), "data_quality"))
}

func TestRunOnce_LowScoreJournalsBreakdown(t *testing.T) {
	snap := domain.PriceSnapshot{Price: 100_000, Change24h: 0.5, Change1h: -0.2, Volume24h: 10e9}
	ex := &fakeExchange{balance: 50_000, markets: bullMarkets()}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: snap}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, monitor.DecisionNoTrade, out.Decision)
	assert.Equal(t, 1, out.Score.Score)
	entry := h.journal.last()
	assert.Equal(t, "1/5", field(entry, "signal_score"))
	assert.Equal(t, "~ range data unavailable", field(entry, domain.SignalRangePosition))
	assert.Empty(t, ex.seriesSeen)
}

func TestRunOnce_SentimentFailureSkipsSignal(t *testing.T) {
	ex := &fakeExchange{balance: 50_000, markets: bullMarkets()}
	m, _ := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()},
		fakeSentiment{err: errors.New("timeout")}, ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out.Sentiment)
	assert.Equal(t, 4, out.Score.Score)
	assert.Equal(t, monitor.DecisionPaper, out.Decision)
}

func TestRunOnce_PriceFeedDownAbstains(t *testing.T) {
	ex := &fakeExchange{balance: 50_000}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{err: errors.New("no data")}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.DecisionNoTrade, out.Decision)
	assert.Nil(t, out.Snapshot)
	assert.Equal(t, "BTC data unavailable (live + cache failed)", field(h.journal.last(), "reason"))
}

func TestRunOnce_CachedDataIsTagged(t *testing.T) {
	snap := strongBullSnapshot()
	snap.Change24h = 0.2
	snap.FromCache = true
	snap.CacheAge = 2 * time.Minute
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: snap}, neutral(), &fakeExchange{balance: 50_000})

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", field(h.journal.last(), "data_quality"))
}

func TestRunOnce_BalanceErrorFails(t *testing.T) {
	ex := &fakeExchange{balanceErr: errors.New("401 unauthorized")}
	m, _ := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	_, err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance")
}

func TestRunOnce_MarketsErrorFailsButEmptyAbstains(t *testing.T) {
	ex := &fakeExchange{balance: 50_000, marketsErr: errors.New("503")}
	m, _ := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)
	_, err := m.RunOnce(context.Background())
	require.Error(t, err)

	ex = &fakeExchange{balance: 50_000}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)
	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.DecisionNoTrade, out.Decision)
	assert.Empty(t, h.journal.entries)
}

func TestRunOnce_NoQualifyingMarket(t *testing.T) {
	closeAt := time.Now().Add(10 * time.Hour)
	ex := &fakeExchange{balance: 50_000, markets: []domain.MarketQuote{
		domain.NewMarketQuote("KXBTCD-26FEB0317-T99500", 20, 30, &closeAt),
	}}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.DecisionNoTrade, out.Decision)
	assert.Equal(t, 1, out.MarketsSeen)
	assert.Equal(t, domain.EventNoTrade, h.journal.last().Title)
}

func liveConfig() monitor.Config {
	cfg := monitor.DefaultConfig()
	cfg.DryRun = false
	return cfg
}

func TestRunOnce_LiveExecutesLimitOrder(t *testing.T) {
	ex := &fakeExchange{balance: 50_000, markets: bullMarkets()}
	m, h := newMonitor(liveConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, monitor.DecisionExecuted, out.Decision)
	require.Len(t, ex.placed, 1)
	assert.Equal(t, domain.OrderRequest{
		Ticker:     "KXBTCD-26FEB0317-T97000",
		Side:       domain.SideYes,
		Count:      333,
		PriceCents: 30,
	}, ex.placed[0])
	require.NotNil(t, out.Order)
	assert.Equal(t, "ord-1", out.Order.OrderID)
	assert.Empty(t, h.ledger.opened)

	entry := h.journal.last()
	assert.Equal(t, domain.EventTradeExecuted, entry.Title)
	assert.Equal(t, "ord-1", field(entry, "order_id"))
	assert.Equal(t, "$99.90", field(entry, "total_cost"))
}

func TestRunOnce_LiveFailureIsJournaled(t *testing.T) {
	ex := &fakeExchange{balance: 50_000, markets: bullMarkets(), placeErr: errors.New("insufficient funds")}
	m, h := newMonitor(liveConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.DecisionFailed, out.Decision)
	assert.Len(t, ex.placed, 1, "sin reintentos")
	assert.Equal(t, domain.EventTradeFailed, h.journal.last().Title)
	assert.Equal(t, "insufficient funds", field(h.journal.last(), "error"))
}

func TestRunOnce_LiveSkipsExistingExposure(t *testing.T) {
	tests := []struct {
		name string
		ex   *fakeExchange
	}{
		{"resting order", &fakeExchange{orders: []domain.Order{{Ticker: "KXBTCD-26FEB0317-T97000"}}}},
		{"open position", &fakeExchange{positions: []domain.Position{{Ticker: "KXBTCD-26FEB0317-T97000", Quantity: 10}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ex.balance = 50_000
			tt.ex.markets = bullMarkets()
			m, h := newMonitor(liveConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), tt.ex)

			out, err := m.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, monitor.DecisionSkipped, out.Decision)
			assert.Empty(t, tt.ex.placed)
			assert.Equal(t, domain.EventSkipped, h.journal.last().Title)
		})
	}
}

func TestRunOnce_PaperIgnoresExposure(t *testing.T) {
	ex := &fakeExchange{
		balance: 50_000,
		markets: bullMarkets(),
		orders:  []domain.Order{{Ticker: "KXBTCD-26FEB0317-T97000"}},
	}
	m, h := newMonitor(monitor.DefaultConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.DecisionPaper, out.Decision)
	assert.Len(t, h.ledger.opened, 1)
}

func TestRunOnce_LiveLowBalanceAbstains(t *testing.T) {
	ex := &fakeExchange{balance: 5_000, markets: bullMarkets()}
	m, _ := newMonitor(liveConfig(), fakePrices{snap: strongBullSnapshot()}, neutral(), ex)

	out, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.DecisionNoTrade, out.Decision)
	assert.Contains(t, out.Reason, "below minimum bet")
	assert.Empty(t, ex.seriesSeen)
}
