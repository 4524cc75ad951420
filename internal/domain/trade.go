package domain

import (
	"errors"
	"time"
)

// ErrAlreadyResolved se devuelve al intentar resolver un trade que ya es win/loss.
var ErrAlreadyResolved = errors.New("trade already resolved")

// TradeStatus es el ciclo de vida de un paper trade: open → win | loss.
type TradeStatus string

const (
	TradeOpen TradeStatus = "open"
	TradeWin  TradeStatus = "win"
	TradeLoss TradeStatus = "loss"
)

// IsTerminal devuelve true para win/loss.
func (s TradeStatus) IsTerminal() bool {
	return s == TradeWin || s == TradeLoss
}

// TradeRecord es un paper trade. Los campos de entrada se fijan al crearlo; los de
// resolución quedan a nil hasta que el mercado liquida.
type TradeRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Ticker              string            `json:"ticker"`
	Side                Side              `json:"side"`
	Action              Action            `json:"action"`
	Strike              float64           `json:"strike"`
	EntryCostCents      int               `json:"entry_cost_cents"`
	Contracts           int               `json:"contracts"`
	HypotheticalCostUSD float64           `json:"hypothetical_cost_usd"`
	PotentialProfitUSD  float64           `json:"potential_profit_usd"`
	SignalScore         int               `json:"signal_score"`
	Signals             map[string]string `json:"signals"`
	BTCPriceAtEntry     float64           `json:"btc_price_at_entry"`
	BTCChange24hAtEntry float64           `json:"btc_change_24h_at_entry"`
	SettlementTime      *time.Time        `json:"settlement_time"`

	Status      TradeStatus `json:"status"`
	ResultSide  *Side       `json:"result_side"`
	RealizedPnL *float64    `json:"realized_pnl"`
	ResolvedAt  *time.Time  `json:"resolved_at"`
}

// IsResolved devuelve true si el trade ya es win o loss.
func (t TradeRecord) IsResolved() bool {
	return t.Status.IsTerminal()
}

// PnL devuelve el P&L realizado, 0 si sigue abierto.
func (t TradeRecord) PnL() float64 {
	if t.RealizedPnL == nil {
		return 0
	}
	return *t.RealizedPnL
}

// Resolve cierra el trade contra el lado ganador del mercado.
//
//	win:  +contracts × (100 − coste) / 100
//	loss: −contracts × coste / 100
//
// Un trade ya resuelto no se toca y devuelve ErrAlreadyResolved.
func (t *TradeRecord) Resolve(result Side, at time.Time) error {
	if t.IsResolved() {
		return ErrAlreadyResolved
	}

	var pnl float64
	if result == t.Side {
		pnl = CentsToUSD(t.Contracts * (100 - t.EntryCostCents))
		t.Status = TradeWin
	} else {
		pnl = CentsToUSD(-t.Contracts * t.EntryCostCents)
		t.Status = TradeLoss
	}

	resolvedAt := at.UTC()
	t.ResultSide = &result
	t.RealizedPnL = &pnl
	t.ResolvedAt = &resolvedAt
	return nil
}
