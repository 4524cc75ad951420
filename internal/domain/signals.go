package domain

import "fmt"

// Nombres de las señales, en el orden en que se evalúan. El prefijo numérico
// mantiene el orden al serializar el breakdown como objeto JSON.
const (
	Signal24hMomentum   = "1_24h_momentum"
	Signal1hMomentum    = "2_1h_momentum"
	SignalRangePosition = "3_range_position"
	SignalFearGreed     = "4_fear_greed"
	SignalVolume        = "5_volume"
)

// SignalConfig son los umbrales del scorer.
type SignalConfig struct {
	StrongMomentumPct  float64 // |cambio 24h| mínimo para la señal 1
	ConfirmMomentumPct float64 // |cambio 1h| mínimo para la señal 2
	RangeHighPos       float64 // posición mínima en el rango si el sesgo es alcista
	RangeLowPos        float64 // posición máxima en el rango si el sesgo es bajista
	SentimentMin       int     // zona neutral del Fear & Greed, inclusive
	SentimentMax       int
	MinVolumeUSD       float64
}

// DefaultSignalConfig devuelve los umbrales de producción.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		StrongMomentumPct:  1.0,
		ConfirmMomentumPct: 0.1,
		RangeHighPos:       0.6,
		RangeLowPos:        0.4,
		SentimentMin:       25,
		SentimentMax:       75,
		MinVolumeUSD:       30e9,
	}
}

// Signal es el resultado de una señal individual.
// Available=false significa que faltaban datos: no suma ni resta.
type Signal struct {
	Name      string
	Available bool
	Counted   bool
	Detail    string
}

// SignalScore es el resultado del scorer: puntuación 0..len(Signals) y el detalle.
type SignalScore struct {
	Score   int
	Signals []Signal
}

// Total devuelve el número de señales evaluadas (el denominador del score).
func (s SignalScore) Total() int {
	return len(s.Signals)
}

// String formatea el score como "3/5".
func (s SignalScore) String() string {
	return fmt.Sprintf("%d/%d", s.Score, s.Total())
}

// Breakdown devuelve el detalle como mapa nombre → texto, para persistirlo.
func (s SignalScore) Breakdown() map[string]string {
	out := make(map[string]string, len(s.Signals))
	for _, sig := range s.Signals {
		out[sig.Name] = sig.Detail
	}
	return out
}

// Scorer puntúa un snapshot contra las cinco señales técnicas.
type Scorer struct {
	cfg SignalConfig
}

// NewScorer crea un Scorer con los umbrales dados.
func NewScorer(cfg SignalConfig) Scorer {
	return Scorer{cfg: cfg}
}

// Score evalúa las cinco señales. Nunca falla: una señal sin datos queda como
// no disponible. sentiment puede ser nil.
func (sc Scorer) Score(snap PriceSnapshot, sentiment *Sentiment, bullish bool) SignalScore {
	signals := []Signal{
		sc.momentum24h(snap),
		sc.momentum1h(snap, bullish),
		sc.rangePosition(snap, bullish),
		sc.fearGreed(sentiment),
		sc.volume(snap),
	}

	score := 0
	for _, s := range signals {
		if s.Counted {
			score++
		}
	}
	return SignalScore{Score: score, Signals: signals}
}

func (sc Scorer) momentum24h(snap PriceSnapshot) Signal {
	s := Signal{Name: Signal24hMomentum, Available: true}
	if abs(snap.Change24h) >= sc.cfg.StrongMomentumPct {
		s.Counted = true
		s.Detail = fmt.Sprintf("✓ %+.2f%% (strong)", snap.Change24h)
	} else {
		s.Detail = fmt.Sprintf("✗ %+.2f%% (weak, need ±%g%%)", snap.Change24h, sc.cfg.StrongMomentumPct)
	}
	return s
}

func (sc Scorer) momentum1h(snap PriceSnapshot, bullish bool) Signal {
	s := Signal{Name: Signal1hMomentum, Available: true}
	aligns := (snap.Change1h > 0) == bullish
	if aligns && abs(snap.Change1h) >= sc.cfg.ConfirmMomentumPct {
		s.Counted = true
		s.Detail = fmt.Sprintf("✓ %+.2f%% (confirms direction)", snap.Change1h)
	} else {
		s.Detail = fmt.Sprintf("✗ %+.2f%% (conflicts or flat)", snap.Change1h)
	}
	return s
}

func (sc Scorer) rangePosition(snap PriceSnapshot, bullish bool) Signal {
	s := Signal{Name: SignalRangePosition}
	pos, ok := snap.RangePosition()
	if !ok {
		s.Detail = "~ range data unavailable"
		return s
	}
	s.Available = true
	pct := pos * 100
	switch {
	case bullish && pos >= sc.cfg.RangeHighPos:
		s.Counted = true
		s.Detail = fmt.Sprintf("✓ %.0f%% of range (near high, bullish)", pct)
	case !bullish && pos <= sc.cfg.RangeLowPos:
		s.Counted = true
		s.Detail = fmt.Sprintf("✓ %.0f%% of range (near low, bearish)", pct)
	default:
		s.Detail = fmt.Sprintf("✗ %.0f%% of range (not confirming %s)", pct, direction(bullish))
	}
	return s
}

func (sc Scorer) fearGreed(sentiment *Sentiment) Signal {
	s := Signal{Name: SignalFearGreed}
	if sentiment == nil {
		s.Detail = "~ unavailable (not counted)"
		return s
	}
	s.Available = true
	v := sentiment.Value
	if v >= sc.cfg.SentimentMin && v <= sc.cfg.SentimentMax {
		s.Counted = true
		s.Detail = fmt.Sprintf("✓ %d %s (neutral zone, momentum can sustain)", v, sentiment.Label)
		return s
	}
	extreme := "extreme greed"
	if v < sc.cfg.SentimentMin {
		extreme = "extreme fear"
	}
	s.Detail = fmt.Sprintf("✗ %d %s (%s, mean-reversion risk)", v, sentiment.Label, extreme)
	return s
}

func (sc Scorer) volume(snap PriceSnapshot) Signal {
	s := Signal{Name: SignalVolume, Available: true}
	volB := snap.Volume24h / 1e9
	if snap.Volume24h >= sc.cfg.MinVolumeUSD {
		s.Counted = true
		s.Detail = fmt.Sprintf("✓ $%.1fB (elevated, move has conviction)", volB)
	} else {
		s.Detail = fmt.Sprintf("✗ $%.1fB (low, need $%.0fB+)", volB, sc.cfg.MinVolumeUSD/1e9)
	}
	return s
}

func direction(bullish bool) string {
	if bullish {
		return "bullish"
	}
	return "bearish"
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
