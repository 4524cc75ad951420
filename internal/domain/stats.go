package domain

import (
	"sort"
	"time"
)

// DefaultMilestone es el número de trades resueltos que dispara el aviso de revisión.
const DefaultMilestone = 20

// StatsSnapshot son las métricas del paper trading. Se recalcula entero desde el
// ledger en cada resolución; no tiene estado propio.
type StatsSnapshot struct {
	TotalResolved int        `json:"total_resolved"`
	OpenTrades    int        `json:"open_trades"`
	Wins          int        `json:"wins"`
	Losses        int        `json:"losses"`
	WinRate       float64    `json:"win_rate"`
	TotalPnL      float64    `json:"total_pnl"`
	AvgWin        float64    `json:"avg_win"`
	AvgLoss       float64    `json:"avg_loss"`
	Expectancy    float64    `json:"expectancy"`
	MaxDrawdown   float64    `json:"max_drawdown"`
	Last7dPnL     float64    `json:"last_7d_pnl"`
	Last30dPnL    float64    `json:"last_30d_pnl"`
	LastUpdated   *time.Time `json:"last_updated"`
}

// Verdict resume las stats cuando hay muestra suficiente (>= 10 resueltos).
type Verdict string

const (
	VerdictNone     Verdict = ""
	VerdictPositive Verdict = "POSITIVE"
	VerdictNegative Verdict = "NEGATIVE"
	VerdictMarginal Verdict = "MARGINAL"
)

// Verdict clasifica el resultado: expectancy positiva con win rate >= 40% es candidato
// a live, expectancy negativa necesita ajuste, el resto es marginal.
func (s StatsSnapshot) Verdict(minSample int) Verdict {
	if s.TotalResolved < minSample {
		return VerdictNone
	}
	switch {
	case s.Expectancy > 0 && s.WinRate >= 0.40:
		return VerdictPositive
	case s.Expectancy < 0:
		return VerdictNegative
	default:
		return VerdictMarginal
	}
}

// ComputeStats recalcula todas las métricas desde el ledger completo. No modifica trades.
func ComputeStats(trades []TradeRecord, now time.Time) StatsSnapshot {
	var resolved, wins, losses []TradeRecord
	open := 0
	for _, t := range trades {
		switch t.Status {
		case TradeWin:
			wins = append(wins, t)
			resolved = append(resolved, t)
		case TradeLoss:
			losses = append(losses, t)
			resolved = append(resolved, t)
		case TradeOpen:
			open++
		}
	}

	total := len(resolved)
	winRate := 0.0
	if total > 0 {
		winRate = float64(len(wins)) / float64(total)
	}

	avgWin := mean(wins, false)
	avgLoss := mean(losses, true)
	expectancy := 0.0
	if total > 0 {
		expectancy = avgWin*winRate - avgLoss*(1-winRate)
	}

	pnls := make([]float64, 0, total)
	for _, t := range resolved {
		pnls = append(pnls, t.PnL())
	}

	updated := now.UTC()
	return StatsSnapshot{
		TotalResolved: total,
		OpenTrades:    open,
		Wins:          len(wins),
		Losses:        len(losses),
		WinRate:       RoundTo(winRate, 4),
		TotalPnL:      SumUSD(pnls...),
		AvgWin:        RoundUSD(avgWin),
		AvgLoss:       RoundUSD(avgLoss),
		Expectancy:    RoundUSD(expectancy),
		MaxDrawdown:   RoundUSD(MaxDrawdown(resolved)),
		Last7dPnL:     PnLSince(resolved, now.Add(-7*24*time.Hour)),
		Last30dPnL:    PnLSince(resolved, now.Add(-30*24*time.Hour)),
		LastUpdated:   &updated,
	}
}

// MaxDrawdown recorre el P&L acumulado ordenado por fecha de resolución y devuelve la
// mayor caída desde un pico previo. Nunca es negativo. El pico arranca en 0.
func MaxDrawdown(resolved []TradeRecord) float64 {
	ordered := make([]TradeRecord, len(resolved))
	copy(ordered, resolved)
	sort.SliceStable(ordered, func(i, j int) bool {
		return resolvedBefore(ordered[i], ordered[j])
	})

	var cumulative, peak, maxDD float64
	for _, t := range ordered {
		cumulative += t.PnL()
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// PnLSince suma el P&L de los trades resueltos en o después de cutoff.
func PnLSince(resolved []TradeRecord, cutoff time.Time) float64 {
	var pnls []float64
	for _, t := range resolved {
		if t.ResolvedAt != nil && !t.ResolvedAt.Before(cutoff) {
			pnls = append(pnls, t.PnL())
		}
	}
	return SumUSD(pnls...)
}

// MilestoneReached devuelve true si esta resolución cruzó el umbral por primera vez.
func MilestoneReached(prevResolved, newResolved, threshold int) bool {
	return threshold > 0 && prevResolved < threshold && newResolved >= threshold
}

// CountResolved cuenta los trades win/loss del ledger.
func CountResolved(trades []TradeRecord) int {
	n := 0
	for _, t := range trades {
		if t.IsResolved() {
			n++
		}
	}
	return n
}

// resolvedBefore ordena por ResolvedAt; los que no tienen fecha van primero.
func resolvedBefore(a, b TradeRecord) bool {
	switch {
	case a.ResolvedAt == nil:
		return b.ResolvedAt != nil
	case b.ResolvedAt == nil:
		return false
	default:
		return a.ResolvedAt.Before(*b.ResolvedAt)
	}
}

func mean(trades []TradeRecord, absolute bool) float64 {
	if len(trades) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trades {
		v := t.PnL()
		if absolute {
			v = abs(v)
		}
		sum += v
	}
	return sum / float64(len(trades))
}
