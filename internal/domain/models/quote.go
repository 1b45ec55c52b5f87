package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the price breakdown for one calculation. Currency fields are whole units.
type Quote struct {
	Weight        float64         `json:"weight"`
	Rate          float64         `json:"rate"`
	Purity        *float64        `json:"purity,omitempty"`
	MakingPercent float64         `json:"making_percent"`
	BasePrice     decimal.Decimal `json:"base_price"`
	MakingCharges decimal.Decimal `json:"making_charges"`
	GST           decimal.Decimal `json:"gst"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// QuoteSnapshot is what the display side receives after every recalculation.
type QuoteSnapshot struct {
	Quote         Quote     `json:"quote"`
	BaseRate      float64   `json:"base_rate"`
	Purity        float64   `json:"purity"`
	EffectiveRate float64   `json:"effective_rate"`
	SecondaryRate float64   `json:"secondary_rate,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuoteInputsRequest carries raw user edits. Absent fields are left untouched; present
// values may be numbers or strings and are coerced before use.
type QuoteInputsRequest struct {
	Weight        any `json:"weight"`
	Purity        any `json:"purity"`
	MakingPercent any `json:"making_percent"`
}

// EstimateRequest asks for a static-mode quote against a 24K rate. A missing or zero
// rate falls back to the current base rate.
type EstimateRequest struct {
	Weight        any `json:"weight"`
	Rate          any `json:"rate"`
	Purity        any `json:"purity"`
	MakingPercent any `json:"making_percent"`
}
