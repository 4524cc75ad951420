package domain

import "github.com/shopspring/decimal"

// CentsToUSD convierte centavos a dólares sin arrastrar error de float.
func CentsToUSD(cents int) float64 {
	return decimal.New(int64(cents), -2).InexactFloat64()
}

// RoundUSD redondea un importe a 2 decimales (half away from zero).
func RoundUSD(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo redondea a places decimales.
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// SumUSD suma importes en decimal y redondea el total a 2 decimales.
func SumUSD(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
