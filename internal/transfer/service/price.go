package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// PriceDiffRatio — |a-b| относительно среднего a и b. ok == false, если
// среднее не положительно.
func PriceDiffRatio(a, b float64) (float64, bool) {
	avg := (a + b) / 2
	if avg <= 0 || math.IsNaN(avg) {
		return 0, false
	}
	return math.Abs(a-b) / avg, true
}

// priceDiffPct — разница в процентах, округлённая до 2 знаков.
func priceDiffPct(ratio float64) float64 {
	return decimal.NewFromFloat(ratio * 100).Round(2).InexactFloat64()
}
