package domain

import "math"

// Sizer calcula cuántos contratos comprar acotando el coste entre MinBetUSD y MaxBetUSD.
type Sizer struct {
	MinBetUSD float64
	MaxBetUSD float64
}

// DefaultSizer devuelve el sizing de producción ($100 – $300).
func DefaultSizer() Sizer {
	return Sizer{MinBetUSD: 100, MaxBetUSD: 300}
}

// Size devuelve (contratos, coste total en USD) para un precio por contrato en centavos.
//
//	contracts = max(1, floor(MinBet·100 / cost))
//	si contracts·cost/100 > MaxBet → contracts = floor(MaxBet·100 / cost)
//
// El floor hace que el coste real quede por debajo de MinBet cuando el precio no divide
// exacto; no se corrige.
func (s Sizer) Size(costCents int) (contracts int, totalUSD float64) {
	if costCents <= 0 {
		return 0, 0
	}
	minCents := int(math.Round(s.MinBetUSD * 100))
	maxCents := int(math.Round(s.MaxBetUSD * 100))

	contracts = max(1, minCents/costCents)
	if contracts*costCents > maxCents {
		contracts = maxCents / costCents
	}
	return contracts, CentsToUSD(contracts * costCents)
}
