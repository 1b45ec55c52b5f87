// Package pricing turns weight, rate, purity and making percentage into a retail
// price breakdown. It holds no state and performs no I/O.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/goldquote/internal/domain/models"
)

// GSTRate is the fixed tax applied to base price plus making charges.
var GSTRate = decimal.RequireFromString("0.03")

var hundred = decimal.NewFromInt(100)

// CalculateWithAdjustedRate prices weight against a rate that already includes purity.
func CalculateWithAdjustedRate(weight, rate, makingPercent float64) models.Quote {
	base := BasePrice(weight, rate, 1)
	q := breakdown(base, makingPercent)
	q.Weight = weight
	q.Rate = rate
	q.MakingPercent = makingPercent
	return q
}

// CalculateWithPurity prices weight against a pure (24K) rate scaled by purity.
func CalculateWithPurity(weight, rate24k, purity, makingPercent float64) models.Quote {
	base := BasePrice(weight, rate24k, purity)
	q := breakdown(base, makingPercent)
	q.Weight = weight
	q.Rate = rate24k
	q.Purity = &purity
	q.MakingPercent = makingPercent
	return q
}

// BasePrice is weight × rate × purity, unrounded.
func BasePrice(weight, rate, purity float64) decimal.Decimal {
	return toDecimal(weight).Mul(toDecimal(rate)).Mul(toDecimal(purity))
}

// MakingCharges is basePrice × makingPercent / 100, unrounded.
func MakingCharges(basePrice decimal.Decimal, makingPercent float64) decimal.Decimal {
	return basePrice.Mul(toDecimal(makingPercent)).Div(hundred)
}

// GST is GSTRate applied to basePrice + makingCharges, unrounded.
func GST(basePrice, makingCharges decimal.Decimal) decimal.Decimal {
	return basePrice.Add(makingCharges).Mul(GSTRate)
}

// TotalPrice sums the unrounded components.
func TotalPrice(basePrice, makingCharges, gst decimal.Decimal) decimal.Decimal {
	return basePrice.Add(makingCharges).Add(gst)
}

// breakdown rounds every field independently from its unrounded value, so the
// reported total can differ by one unit from the sum of the rounded parts.
func breakdown(base decimal.Decimal, makingPercent float64) models.Quote {
	making := MakingCharges(base, makingPercent)
	gst := GST(base, making)
	total := TotalPrice(base, making, gst)

	return models.Quote{
		BasePrice:     base.Round(0),
		MakingCharges: making.Round(0),
		GST:           gst.Round(0),
		TotalPrice:    total.Round(0),
	}
}

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
