package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
)

// Config contiene los umbrales del ciclo de monitorización.
type Config struct {
	Series         string
	MinMomentumPct float64
	MinSignalScore int
	DryRun         bool
	Signals        domain.SignalConfig
	Selector       SelectorConfig
	Sizer          domain.Sizer
}

// DefaultConfig devuelve la configuración de producción en modo paper.
func DefaultConfig() Config {
	return Config{
		Series:         "KXBTCD",
		MinMomentumPct: 0.3,
		MinSignalScore: 3,
		DryRun:         true,
		Signals:        domain.DefaultSignalConfig(),
		Selector:       DefaultSelectorConfig(),
		Sizer:          domain.DefaultSizer(),
	}
}

// Decision es el resultado de un ciclo.
type Decision string

const (
	DecisionNoTrade  Decision = "no_trade"
	DecisionSkipped  Decision = "skipped"
	DecisionPaper    Decision = "paper_trade"
	DecisionExecuted Decision = "executed"
	DecisionFailed   Decision = "failed"
)

// Outcome resume lo que hizo un ciclo. Las abstenciones son Outcomes, no errores.
type Outcome struct {
	Decision       Decision
	Reason         string
	DryRun         bool
	BalanceCents   int64
	Snapshot       *domain.PriceSnapshot
	Sentiment      *domain.Sentiment
	Bullish        bool
	Score          domain.SignalScore
	MarketsSeen    int
	Recommendation *domain.Recommendation
	Contracts      int
	TotalCostUSD   float64
	Trade          *domain.TradeRecord
	Order          *domain.OrderResult
}

// PaperLedger abre paper trades. Lo implementa paper.Ledger.
type PaperLedger interface {
	Open(ctx context.Context, rec domain.Recommendation, score domain.SignalScore, snap domain.PriceSnapshot) (domain.TradeRecord, error)
}

// Monitor ejecuta un ciclo de decisión: gate de momentum, señales, selección de
// mercado y paper trade o ejecución real.
type Monitor struct {
	cfg       Config
	exchange  ports.Exchange
	prices    ports.PriceFeed
	sentiment ports.SentimentFeed
	ledger    PaperLedger
	journal   ports.Journal
	selector  *Selector
	scorer    domain.Scorer
	now       func() time.Time
}

// New crea un Monitor con todas las dependencias inyectadas.
func New(
	cfg Config,
	exchange ports.Exchange,
	prices ports.PriceFeed,
	sentiment ports.SentimentFeed,
	ledger PaperLedger,
	journal ports.Journal,
) *Monitor {
	return &Monitor{
		cfg:       cfg,
		exchange:  exchange,
		prices:    prices,
		sentiment: sentiment,
		ledger:    ledger,
		journal:   journal,
		selector:  NewSelector(cfg.Selector),
		scorer:    domain.NewScorer(cfg.Signals),
		now:       time.Now,
	}
}

// RunOnce ejecuta un ciclo completo. Devuelve error solo cuando el ciclo no puede
// continuar (balance, mercados, exposición o persistencia); no operar es un Outcome.
func (m *Monitor) RunOnce(ctx context.Context) (Outcome, error) {
	out := Outcome{DryRun: m.cfg.DryRun}
	slog.Info("monitor cycle starting", "dry_run", m.cfg.DryRun, "series", m.cfg.Series)

	balance, err := m.exchange.GetBalance(ctx)
	if err != nil {
		return out, fmt.Errorf("monitor.RunOnce: balance: %w", err)
	}
	out.BalanceCents = balance
	slog.Info("balance", "usd", domain.CentsToUSD(int(balance)))

	minBetCents := int64(math.Round(m.cfg.Sizer.MinBetUSD * 100))
	if !m.cfg.DryRun && balance < minBetCents {
		return m.abstain(out, fmt.Sprintf("balance %s below minimum bet %s",
			domain.FormatUSD(domain.CentsToUSD(int(balance)), 2), domain.FormatUSD(m.cfg.Sizer.MinBetUSD, 2)), nil), nil
	}

	snap, err := m.prices.FetchSnapshot(ctx)
	if err != nil {
		slog.Warn("price snapshot unavailable", "err", err)
		reason := "BTC data unavailable (live + cache failed)"
		entry := domain.JournalEntry{Title: domain.EventNoTrade}.Add("reason", reason)
		return m.abstain(out, reason, &entry), nil
	}
	out.Snapshot = &snap
	if snap.FromCache {
		slog.Warn("using cached price data", "age", snap.CacheAge.Round(time.Second))
	}

	if math.Abs(snap.Change24h) < m.cfg.MinMomentumPct {
		reason := fmt.Sprintf("24h momentum %+.2f%% below ±%.1f%% gate", snap.Change24h, m.cfg.MinMomentumPct)
		entry := domain.JournalEntry{Title: domain.EventNoTrade}.
			Add("btc_price", domain.FormatUSD(snap.Price, 2)).
			Add("change_24h", fmt.Sprintf("%+.2f%%", snap.Change24h)).
			Add("reason", reason).
			Add("data_quality", snap.DataQuality())
		return m.abstain(out, reason, &entry), nil
	}

	bullish := snap.Bullish()
	out.Bullish = bullish

	var sentiment *domain.Sentiment
	if m.sentiment != nil {
		s, err := m.sentiment.FetchSentiment(ctx)
		if err != nil {
			slog.Warn("fear & greed unavailable, signal skipped", "err", err)
		} else {
			sentiment = &s
			out.Sentiment = sentiment
		}
	}

	score := m.scorer.Score(snap, sentiment, bullish)
	out.Score = score
	slog.Info("signal score", "score", score.String(), "bullish", bullish)

	if score.Score < m.cfg.MinSignalScore {
		reason := fmt.Sprintf("Insufficient signal confluence (need %d)", m.cfg.MinSignalScore)
		entry := domain.JournalEntry{Title: domain.EventNoTrade}.
			Add("btc_price", domain.FormatUSD(snap.Price, 2)).
			Add("change_24h", fmt.Sprintf("%+.2f%%", snap.Change24h)).
			Add("signal_score", score.String()).
			Add("reason", reason).
			Add("data_quality", snap.DataQuality())
		for _, sig := range score.Signals {
			entry = entry.Add(sig.Name, sig.Detail)
		}
		return m.abstain(out, reason, &entry), nil
	}

	markets, err := m.exchange.GetMarkets(ctx, m.cfg.Series)
	if err != nil {
		return out, fmt.Errorf("monitor.RunOnce: markets: %w", err)
	}
	out.MarketsSeen = len(markets)
	if len(markets) == 0 {
		return m.abstain(out, fmt.Sprintf("no open %s markets", m.cfg.Series), nil), nil
	}
	slog.Info("markets fetched", "count", len(markets))

	rec, ok := m.selector.SelectBest(markets, snap.Price, bullish, m.now())
	if !ok {
		reason := "No market met distance or max entry cost filter"
		entry := domain.JournalEntry{Title: domain.EventNoTrade}.
			Add("btc_price", domain.FormatUSD(snap.Price, 2)).
			Add("signal_score", score.String()).
			Add("reason", reason).
			Add("data_quality", snap.DataQuality())
		return m.abstain(out, reason, &entry), nil
	}
	rec.Thesis = domain.BuildThesis(snap, score, rec.Strike)
	out.Recommendation = &rec
	out.Contracts, out.TotalCostUSD = m.cfg.Sizer.Size(rec.CostCents)

	slog.Info("best opportunity",
		"action", rec.Action,
		"ticker", rec.Ticker,
		"distance_pct", domain.RoundUSD(rec.DistancePct),
		"cost_cents", rec.CostCents,
	)

	// Los paper trades siempre se registran; el chequeo de exposición es solo en real.
	if !m.cfg.DryRun {
		exposed, err := m.hasExposure(ctx, rec.Ticker)
		if err != nil {
			return out, fmt.Errorf("monitor.RunOnce: exposure check: %w", err)
		}
		if exposed {
			out.Decision = DecisionSkipped
			out.Reason = "Existing order or position"
			entry := recommendationEntry(domain.EventSkipped, rec).
				Add("reason", out.Reason).
				Add("data_quality", snap.DataQuality())
			m.record(entry)
			slog.Info("existing exposure, skipping", "ticker", rec.Ticker)
			return out, nil
		}
	}

	if m.cfg.DryRun {
		trade, err := m.ledger.Open(ctx, rec, score, snap)
		if err != nil {
			return out, fmt.Errorf("monitor.RunOnce: paper trade: %w", err)
		}
		out.Decision = DecisionPaper
		out.Trade = &trade
		return out, nil
	}

	return m.execute(ctx, out, rec, snap), nil
}

// execute coloca la orden límite. Un fallo queda en el journal y no se reintenta.
func (m *Monitor) execute(ctx context.Context, out Outcome, rec domain.Recommendation, snap domain.PriceSnapshot) Outcome {
	req := domain.OrderRequest{
		Ticker:     rec.Ticker,
		Side:       rec.Side(),
		Count:      out.Contracts,
		PriceCents: rec.CostCents,
	}

	res, err := m.exchange.PlaceOrder(ctx, req)
	if err != nil {
		slog.Error("order placement failed", "ticker", rec.Ticker, "err", err)
		out.Decision = DecisionFailed
		out.Reason = err.Error()
		m.record(domain.JournalEntry{Title: domain.EventTradeFailed}.
			Add("error", err.Error()).
			Add("action", string(rec.Action)).
			Add("ticker", rec.Ticker).
			Add("cost", fmt.Sprintf("%d¢", rec.CostCents)))
		return out
	}

	out.Decision = DecisionExecuted
	out.Order = &res
	slog.Info("order placed", "order_id", res.OrderID, "status", res.Status, "contracts", out.Contracts)

	m.record(recommendationEntry(domain.EventTradeExecuted, rec).
		Add("contracts", fmt.Sprintf("%d", out.Contracts)).
		Add("total_cost", fmt.Sprintf("$%.2f", out.TotalCostUSD)).
		Add("data_quality", snap.DataQuality()).
		Add("order_id", res.OrderID).
		Add("status", res.Status))
	return out
}

// hasExposure devuelve true si ya hay una orden en reposo o una posición en el ticker.
func (m *Monitor) hasExposure(ctx context.Context, ticker string) (bool, error) {
	orders, err := m.exchange.GetOpenOrders(ctx)
	if err != nil {
		return false, fmt.Errorf("open orders: %w", err)
	}
	for _, o := range orders {
		if o.Ticker == ticker {
			return true, nil
		}
	}

	positions, err := m.exchange.GetPositions(ctx)
	if err != nil {
		return false, fmt.Errorf("positions: %w", err)
	}
	for _, p := range positions {
		if p.Ticker == ticker {
			return true, nil
		}
	}
	return false, nil
}

func (m *Monitor) abstain(out Outcome, reason string, entry *domain.JournalEntry) Outcome {
	out.Decision = DecisionNoTrade
	out.Reason = reason
	slog.Info("no trade", "reason", reason)
	if entry != nil {
		m.record(*entry)
	}
	return out
}

func (m *Monitor) record(entry domain.JournalEntry) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Append(entry); err != nil {
		slog.Warn("journal append failed", "title", entry.Title, "err", err)
	}
}

func recommendationEntry(title string, rec domain.Recommendation) domain.JournalEntry {
	settlement := "unknown"
	if rec.SettlementTime != nil {
		settlement = rec.SettlementTime.UTC().Format(time.RFC3339)
	}
	return domain.JournalEntry{Title: title}.
		Add("action", string(rec.Action)).
		Add("ticker", rec.Ticker).
		Add("strike", domain.FormatUSD(rec.Strike, 2)).
		Add("btc_price", domain.FormatUSD(rec.CurrentPrice, 2)).
		Add("distance", fmt.Sprintf("%.2f%%", rec.DistancePct)).
		Add("cost", fmt.Sprintf("%d¢", rec.CostCents)).
		Add("potential_profit", fmt.Sprintf("%d¢/contract", rec.PotentialProfitCents)).
		Add("settlement", settlement).
		Add("thesis", strings.TrimSpace(rec.Thesis))
}
