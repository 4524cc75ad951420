package domain

// DistanceTier exige MinDistancePct cuando quedan como mucho MaxHours al cierre.
type DistanceTier struct {
	MaxHours       float64 `yaml:"max_hours"`
	MinDistancePct float64 `yaml:"min_distance_pct"`
}

// DistanceScale escala la distancia mínima al strike según el tiempo a liquidación:
// más horas por delante, más margen de movimiento, más colchón exigido.
type DistanceScale struct {
	DefaultPct float64        // sin hora de cierre conocida
	Tiers      []DistanceTier // ordenados por MaxHours ascendente
}

// DefaultDistanceScale devuelve la tabla de producción.
func DefaultDistanceScale() DistanceScale {
	return DistanceScale{
		DefaultPct: 2.0,
		Tiers: []DistanceTier{
			{MaxHours: 2, MinDistancePct: 1.0},
			{MaxHours: 4, MinDistancePct: 1.5},
			{MaxHours: 8, MinDistancePct: 2.0},
			{MaxHours: 24, MinDistancePct: 2.5},
		},
	}
}

// MinDistance devuelve la distancia mínima (%) para los minutos restantes dados.
// Más allá del último tier se usa el último.
func (d DistanceScale) MinDistance(minutesRemaining *float64) float64 {
	if minutesRemaining == nil || len(d.Tiers) == 0 {
		return d.DefaultPct
	}
	hours := *minutesRemaining / 60
	for _, t := range d.Tiers {
		if hours <= t.MaxHours {
			return t.MinDistancePct
		}
	}
	return d.Tiers[len(d.Tiers)-1].MinDistancePct
}
