package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNoStrike indica que el ticker no lleva un strike parseable (sufijo -T<precio>).
var ErrNoStrike = errors.New("ticker has no strike")

// Side es el lado de un contrato binario.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Estados de mercado relevantes para la resolución.
const (
	MarketStatusOpen    = "open"
	MarketStatusSettled = "settled"
)

// MarketQuote representa un contrato diario de BTC con sus precios en centavos.
type MarketQuote struct {
	Ticker string
	Strike float64 // parseado del sufijo del ticker; 0 si no tiene
	YesBid int
	YesAsk int
	// NoAsk se deriva como 100 - YesBid. Es una aproximación, no el ask real del
	// libro NO: vale 0 (no disponible) cuando no hay YesBid.
	NoAsk     int
	CloseTime *time.Time // nil si no viene o no se pudo parsear
	Status    string
	Result    Side // lado ganador, solo con Status == settled
}

// NewMarketQuote construye un MarketQuote derivando el strike y el NoAsk.
func NewMarketQuote(ticker string, yesBid, yesAsk int, closeTime *time.Time) MarketQuote {
	strike, _ := ParseStrike(ticker)
	return MarketQuote{
		Ticker:    ticker,
		Strike:    strike,
		YesBid:    yesBid,
		YesAsk:    yesAsk,
		NoAsk:     DeriveNoAsk(yesBid),
		CloseTime: closeTime,
	}
}

// IsSettled devuelve true si el mercado ya liquidó.
func (m MarketQuote) IsSettled() bool {
	return m.Status == MarketStatusSettled
}

// MinutesRemaining devuelve los minutos hasta el cierre, o nil si no hay CloseTime.
func (m MarketQuote) MinutesRemaining(now time.Time) *float64 {
	if m.CloseTime == nil {
		return nil
	}
	mins := m.CloseTime.Sub(now).Minutes()
	return &mins
}

// DeriveNoAsk aproxima el ask del lado NO a partir del bid YES.
func DeriveNoAsk(yesBid int) int {
	if yesBid <= 0 {
		return 0
	}
	return 100 - yesBid
}

// ParseStrike extrae el strike de un ticker tipo KXBTCD-26FEB0317-T78499.99.
func ParseStrike(ticker string) (float64, error) {
	parts := strings.Split(ticker, "-T")
	if len(parts) < 2 {
		return 0, ErrNoStrike
	}
	strike, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, ErrNoStrike
	}
	return strike, nil
}

// Order es una orden en reposo en el exchange.
type Order struct {
	OrderID        string
	Ticker         string
	Side           Side
	RemainingCount int
	PriceCents     int
	Status         string
}

// Position es una posición abierta en el exchange. Quantity > 0 es YES, < 0 es NO.
type Position struct {
	Ticker   string
	Quantity int
}

// OrderRequest es una orden límite de compra.
type OrderRequest struct {
	Ticker     string
	Side       Side
	Count      int
	PriceCents int
}

// OrderResult es la respuesta del exchange al colocar una orden.
type OrderResult struct {
	OrderID string
	Status  string
}
