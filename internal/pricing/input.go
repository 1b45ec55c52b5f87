package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]+`)
	leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseNumber coerces a raw input value to a number. Numbers pass through; anything
// else is stripped to digits, dots and minus signs and its leading numeric prefix is
// parsed. Empty, non-numeric or non-finite input yields 0.
func ParseNumber(value any) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		return ParseNumber(v.String())
	case string:
		f = parseString(v)
	default:
		f = parseString(fmt.Sprint(v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInput is ParseNumber with negative values coerced to 0.
func ParseInput(value any) float64 {
	f := ParseNumber(value)
	if f < 0 {
		return 0
	}
	return f
}

func parseString(s string) float64 {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}
