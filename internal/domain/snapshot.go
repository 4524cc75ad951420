package domain

import "time"

// PriceSnapshot es la foto de BTC en un instante: precio, cambios y rango de 24h.
// Se construye una vez en el adapter y no se modifica después.
type PriceSnapshot struct {
	Price     float64 `json:"price"`
	Change1h  float64 `json:"change_1h"`  // % última hora
	Change24h float64 `json:"change_24h"` // % últimas 24h
	High24h   float64 `json:"high_24h"`
	Low24h    float64 `json:"low_24h"`
	Volume24h float64 `json:"volume_24h"` // USD

	// Metadata de la cache, no forma parte del payload persistido.
	FromCache bool          `json:"-"`
	CacheAge  time.Duration `json:"-"`
}

// Bullish devuelve el sesgo direccional: true si el cambio de 24h es positivo.
func (s PriceSnapshot) Bullish() bool {
	return s.Change24h > 0
}

// RangePosition devuelve la posición del precio dentro del rango de 24h (0 = mínimo,
// 1 = máximo). ok=false si el rango no es positivo; la señal se trata como no disponible.
func (s PriceSnapshot) RangePosition() (pos float64, ok bool) {
	size := s.High24h - s.Low24h
	if size <= 0 {
		return 0, false
	}
	return (s.Price - s.Low24h) / size, true
}

// DataQuality etiqueta el origen de los datos para el log de decisiones.
func (s PriceSnapshot) DataQuality() string {
	if s.FromCache {
		return "cached"
	}
	return "live"
}

// Sentiment es una lectura del índice Fear & Greed (0 = miedo extremo, 100 = codicia extrema).
type Sentiment struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}
