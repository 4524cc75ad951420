package monitor

import (
	"math"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// SelectorConfig contiene los filtros del selector de mercado.
type SelectorConfig struct {
	// MaxEntryCostCents es el precio máximo a pagar por contrato.
	MaxEntryCostCents int
	// SettlementGuard descarta mercados que cierran antes de este margen.
	SettlementGuard time.Duration
	// Distance escala la distancia mínima al strike según el tiempo a cierre.
	Distance domain.DistanceScale
}

// DefaultSelectorConfig devuelve los filtros de producción.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MaxEntryCostCents: 35,
		SettlementGuard:   90 * time.Minute,
		Distance:          domain.DefaultDistanceScale(),
	}
}

// Selector elige el contrato que mejor encaja con el sesgo actual.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector crea un Selector con la configuración dada.
func NewSelector(cfg SelectorConfig) *Selector {
	return &Selector{cfg: cfg}
}

// SelectBest devuelve el mercado que cumple distancia y coste con la menor distancia
// al precio actual: el strike más cercano que respeta el colchón. ok=false si ninguno califica.
func (s *Selector) SelectBest(markets []domain.MarketQuote, price float64, bullish bool, now time.Time) (domain.Recommendation, bool) {
	var best domain.Recommendation
	bestDistance := math.Inf(1)
	found := false

	for _, m := range markets {
		minutes := m.MinutesRemaining(now)
		// Sin hora de cierre (o ilegible) no hay guard, y se usa la distancia por defecto.
		if minutes != nil && *minutes < s.cfg.SettlementGuard.Minutes() {
			continue
		}
		minDist := s.cfg.Distance.MinDistance(minutes)

		strike, err := domain.ParseStrike(m.Ticker)
		if err != nil {
			continue
		}

		cand, ok := s.candidate(m, strike, price, bullish)
		if !ok {
			continue
		}
		if cand.DistancePct < minDist || cand.CostCents > s.cfg.MaxEntryCostCents {
			continue
		}
		if cand.DistancePct < bestDistance {
			bestDistance = cand.DistancePct
			best = cand
			found = true
		}
	}

	return best, found
}

// candidate arma la recomendación para un mercado si el lado y el precio tienen sentido:
// alcista compra YES con strike por debajo del precio, bajista compra NO con strike por encima.
func (s *Selector) candidate(m domain.MarketQuote, strike, price float64, bullish bool) (domain.Recommendation, bool) {
	if price <= 0 {
		return domain.Recommendation{}, false
	}

	rec := domain.Recommendation{
		Ticker:         m.Ticker,
		Strike:         strike,
		CurrentPrice:   price,
		SettlementTime: m.CloseTime,
	}

	switch {
	case bullish && strike < price && m.YesAsk > 0:
		rec.Action = domain.ActionBuyYes
		rec.DistancePct = (price - strike) / price * 100
		rec.CostCents = m.YesAsk
	case !bullish && strike > price && m.NoAsk > 0:
		rec.Action = domain.ActionBuyNo
		rec.DistancePct = (strike - price) / price * 100
		rec.CostCents = m.NoAsk
	default:
		return domain.Recommendation{}, false
	}

	rec.PotentialProfitCents = 100 - rec.CostCents
	return rec, true
}
