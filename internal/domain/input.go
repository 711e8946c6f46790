package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a typed amount. Unparseable text yields zero.
func ParseAmount(raw string) decimal.Decimal {
	d, ok := parseLooseDecimal(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParsePercent coerces a typed percentage. Unparseable text yields zero, meaning no discount.
func ParsePercent(raw string) decimal.Decimal {
	return ParseAmount(raw)
}

// ParseRate coerces a manual exchange rate. Non-positive or unparseable text is invalid
// so the caller falls back to the provider quote.
func ParseRate(raw string) decimal.NullDecimal {
	d, ok := parseLooseDecimal(raw)
	if !ok || !d.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

const (
	// maxLooseLength bounds typed numbers. Form amounts never come close.
	maxLooseLength = 64
	// maxLooseExponent bounds the scale of a typed number. Rounding rescales
	// to units, which costs time proportional to the exponent.
	maxLooseExponent = 30
)

// parseLooseDecimal accepts "1500", "1500.5", "1500,5" and "1.500,50".
// A lone dot is always the decimal separator. Scientific notation and numbers
// longer than maxLooseLength are rejected.
func parseLooseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || len(s) > maxLooseLength || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxLooseExponent || exp < -maxLooseExponent {
		return decimal.Zero, false
	}

	return d, true
}
