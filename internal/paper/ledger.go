package paper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
	"github.com/google/uuid"
)

const idLength = 8

// Ledger registra paper trades. Cada apertura carga el ledger, añade el trade
// y lo reescribe completo.
type Ledger struct {
	store   ports.LedgerStore
	journal ports.Journal
	sizer   domain.Sizer
	now     func() time.Time
	newID   func() string
}

// NewLedger crea un Ledger sobre el store dado.
func NewLedger(store ports.LedgerStore, journal ports.Journal, sizer domain.Sizer) *Ledger {
	return &Ledger{
		store:   store,
		journal: journal,
		sizer:   sizer,
		now:     time.Now,
		newID:   shortID,
	}
}

// Open crea un trade abierto a partir de la recomendación, lo persiste y lo anota
// en el journal. Devuelve el trade creado.
func (l *Ledger) Open(ctx context.Context, rec domain.Recommendation, score domain.SignalScore, snap domain.PriceSnapshot) (domain.TradeRecord, error) {
	trades, err := l.store.LoadTrades(ctx)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("paper.Open: load ledger: %w", err)
	}

	contracts, totalCost := l.sizer.Size(rec.CostCents)
	if contracts <= 0 {
		return domain.TradeRecord{}, fmt.Errorf("paper.Open: cost %d¢ yields no contracts", rec.CostCents)
	}

	trade := domain.TradeRecord{
		ID:                  l.uniqueID(trades),
		Timestamp:           l.now().UTC(),
		Ticker:              rec.Ticker,
		Side:                rec.Side(),
		Action:              rec.Action,
		Strike:              rec.Strike,
		EntryCostCents:      rec.CostCents,
		Contracts:           contracts,
		HypotheticalCostUSD: totalCost,
		PotentialProfitUSD:  domain.CentsToUSD(contracts * rec.PotentialProfitCents),
		SignalScore:         score.Score,
		Signals:             score.Breakdown(),
		BTCPriceAtEntry:     snap.Price,
		BTCChange24hAtEntry: domain.RoundUSD(snap.Change24h),
		SettlementTime:      rec.SettlementTime,
		Status:              domain.TradeOpen,
	}

	trades = append(trades, trade)
	if err := l.store.SaveTrades(ctx, trades); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("paper.Open: save ledger: %w", err)
	}

	slog.Info("paper trade opened",
		"id", trade.ID,
		"ticker", trade.Ticker,
		"action", trade.Action,
		"contracts", trade.Contracts,
		"cost_usd", trade.HypotheticalCostUSD,
	)

	l.record(domain.JournalEntry{Title: domain.EventPaperOpened}.
		Add("id", trade.ID).
		Add("ticker", trade.Ticker).
		Add("action", string(trade.Action)).
		Add("strike", domain.FormatUSD(trade.Strike, 2)).
		Add("entry", fmt.Sprintf("%d¢ × %d contracts = $%.2f at risk", trade.EntryCostCents, trade.Contracts, trade.HypotheticalCostUSD)).
		Add("if_win", fmt.Sprintf("+$%.2f", trade.PotentialProfitUSD)).
		Add("signal_score", score.String()).
		Add("btc_at_entry", fmt.Sprintf("%s (%+.2f%% 24h)", domain.FormatUSD(snap.Price, 2), snap.Change24h)).
		Add("thesis", rec.Thesis))

	return trade, nil
}

// uniqueID genera un id corto que no colisione con los del ledger.
func (l *Ledger) uniqueID(trades []domain.TradeRecord) string {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		seen[t.ID] = struct{}{}
	}
	for {
		id := l.newID()
		if _, dup := seen[id]; !dup {
			return id
		}
	}
}

func (l *Ledger) record(entry domain.JournalEntry) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Append(entry); err != nil {
		slog.Warn("journal append failed", "title", entry.Title, "err", err)
	}
}

// shortID devuelve los primeros 8 caracteres de un UUID v4 en mayúsculas.
func shortID() string {
	return strings.ToUpper(uuid.New().String()[:idLength])
}
