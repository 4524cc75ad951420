package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action es la operación recomendada por el selector.
type Action string

const (
	ActionBuyYes Action = "BUY YES"
	ActionBuyNo  Action = "BUY NO"
)

// Side devuelve el lado del contrato que compra la acción.
func (a Action) Side() Side {
	if a == ActionBuyNo {
		return SideNo
	}
	return SideYes
}

// Recommendation es la salida del selector: el mejor contrato para el sesgo actual.
// Es transitoria; la consume el sizer y después el ledger o la ejecución real.
type Recommendation struct {
	Action               Action
	Ticker               string
	Strike               float64
	CurrentPrice         float64
	DistancePct          float64
	CostCents            int
	PotentialProfitCents int
	SettlementTime       *time.Time
	Thesis               string
}

// Side devuelve el lado del contrato recomendado.
func (r Recommendation) Side() Side {
	return r.Action.Side()
}

// BuildThesis genera la tesis en una línea que acompaña a la recomendación.
func BuildThesis(snap PriceSnapshot, score SignalScore, strike float64) string {
	dir, where := "down", "below"
	if snap.Bullish() {
		dir, where = "up", "above"
	}
	return fmt.Sprintf("BTC %s %+.1f%% 24h, score %s. Betting it closes %s %s at settlement.",
		dir, snap.Change24h, score, where, FormatUSD(strike, 0))
}

// FormatUSD formatea un importe con separador de miles: FormatUSD(78499.99, 2) = "$78,499.99".
func FormatUSD(v float64, decimals int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := fmt.Sprintf("%.*f", decimals, v)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + frac
}
