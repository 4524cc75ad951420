package paper

import (
	"context"
	"errors"
	"sync"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

type memStore struct {
	mu     sync.Mutex
	trades []domain.TradeRecord
	stats  domain.StatsSnapshot
	saves  int
}

func (m *memStore) LoadTrades(_ context.Context) ([]domain.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TradeRecord, len(m.trades))
	copy(out, m.trades)
	return out, nil
}

func (m *memStore) SaveTrades(_ context.Context, trades []domain.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append([]domain.TradeRecord(nil), trades...)
	m.saves++
	return nil
}

func (m *memStore) LoadStats(_ context.Context) (domain.StatsSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats, nil
}

func (m *memStore) SaveStats(_ context.Context, s domain.StatsSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = s
	return nil
}

type memJournal struct {
	entries []domain.JournalEntry
}

func (j *memJournal) Append(e domain.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) titles() []string {
	out := make([]string, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.Title)
	}
	return out
}

// fakeMarkets responde por ticker; los tickers en failing devuelven error.
type fakeMarkets struct {
	mu      sync.Mutex
	markets map[string]domain.MarketQuote
	failing map[string]bool
	calls   map[string]int
}

func newFakeMarkets() *fakeMarkets {
	return &fakeMarkets{
		markets: map[string]domain.MarketQuote{},
		failing: map[string]bool{},
		calls:   map[string]int{},
	}
}

func (f *fakeMarkets) settle(ticker string, result domain.Side) {
	f.markets[ticker] = domain.MarketQuote{Ticker: ticker, Status: domain.MarketStatusSettled, Result: result}
}

func (f *fakeMarkets) GetMarket(_ context.Context, ticker string) (domain.MarketQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	if f.failing[ticker] {
		return domain.MarketQuote{}, errors.New("connection reset")
	}
	m, ok := f.markets[ticker]
	if !ok {
		return domain.MarketQuote{Ticker: ticker, Status: domain.MarketStatusOpen}, nil
	}
	return m, nil
}
