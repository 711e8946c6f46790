package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	maxBucket = decimal.NewFromInt(math.MaxInt64)
	minBucket = maxBucket.Neg()
)

// MonetarySnapshot is one amount expressed in every tracked bucket.
type MonetarySnapshot struct {
	ARS        int64 `json:"ars"`
	USDOficial int64 `json:"usdOficial"`
	USDBlue    int64 `json:"usdBlue"`
}

// Neg returns the snapshot with every bucket negated.
func (s MonetarySnapshot) Neg() MonetarySnapshot {
	return MonetarySnapshot{ARS: -s.ARS, USDOficial: -s.USDOficial, USDBlue: -s.USDBlue}
}

// For selects the bucket matching the account the amount is viewed under.
func (s MonetarySnapshot) For(cc CuentaCorriente) int64 {
	switch cc {
	case CuentaARS:
		return s.ARS
	case CuentaUSDOficial:
		return s.USDOficial
	case CuentaUSDBlue:
		return s.USDBlue
	default:
		return 0
	}
}

// ExchangeRateQuote is the ARS/USD quote supplied by the rate provider.
type ExchangeRateQuote struct {
	Oficial             decimal.NullDecimal `json:"oficial"`
	Blue                decimal.NullDecimal `json:"blue"`
	Venta               decimal.NullDecimal `json:"venta"`
	Value               decimal.NullDecimal `json:"value"`
	UltimaActualizacion time.Time           `json:"ultimaActualizacion"`
}

// Round rounds to the nearest unit, ties away from zero. Values beyond the
// int64 range saturate at ±math.MaxInt64 so the sign survives.
func Round(x decimal.Decimal) int64 {
	r := x.Round(0)
	switch {
	case r.GreaterThan(maxBucket):
		return math.MaxInt64
	case r.LessThan(minBucket):
		return -math.MaxInt64
	}
	return r.IntPart()
}

// FactorFromPercent turns a discount percentage into a multiplicative factor in [0, 1].
func FactorFromPercent(pct decimal.Decimal) decimal.Decimal {
	factor := one.Sub(pct.Div(hundred))
	if factor.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if factor.GreaterThan(one) {
		return one
	}
	return factor
}

// FactorFromPercentInput is FactorFromPercent over raw form text. Invalid text means no discount.
func FactorFromPercentInput(raw string) decimal.Decimal {
	return FactorFromPercent(ParsePercent(raw))
}

// PercentFromFactor is the inverse used to show a stored factor back to the user.
func PercentFromFactor(factor decimal.Decimal) int64 {
	return Round(one.Sub(factor).Mul(hundred))
}

// Convert distributes an unsigned amount across the three buckets.
//
// Both dollar buckets use the single rate in scope: an ARS amount is divided by rate
// into USD OFICIAL and USD BLUE alike, and a dollar amount is copied into both dollar
// buckets unchanged. Stored snapshots and reports depend on this mirroring.
func Convert(base int64, cc CuentaCorriente, rate decimal.Decimal) MonetarySnapshot {
	if !rate.IsPositive() {
		rate = one
	}

	amount := decimal.NewFromInt(base)

	switch cc {
	case CuentaARS:
		usd := Round(amount.Div(rate))
		return MonetarySnapshot{ARS: base, USDOficial: usd, USDBlue: usd}
	case CuentaUSDOficial, CuentaUSDBlue:
		return MonetarySnapshot{ARS: Round(amount.Mul(rate)), USDOficial: base, USDBlue: base}
	default:
		return MonetarySnapshot{}
	}
}

// TotalsInput holds the values a movement form feeds into ComputeTotals.
type TotalsInput struct {
	MontoEnviado     decimal.Decimal
	MonedaDePago     Currency
	CuentaCorriente  CuentaCorriente
	DescuentoPercent decimal.Decimal
	Rate             decimal.Decimal
	Kind             Kind
}

// Totals are the persisted monetary values of a movement.
type Totals struct {
	SubTotal          MonetarySnapshot `json:"subTotal"`
	MontoTotal        MonetarySnapshot `json:"montoTotal"`
	TipoDeCambio      decimal.Decimal  `json:"tipoDeCambio"`
	DescuentoAplicado decimal.Decimal  `json:"descuentoAplicado"`
}

// ComputeTotals derives the pre- and post-discount snapshots of a movement.
// montoTotal is converted from the rounded discounted base, never scaled from subTotal.
func ComputeTotals(in TotalsInput) Totals {
	rate := in.Rate
	if !rate.IsPositive() {
		rate = one
	}

	base := Round(in.MontoEnviado.Abs())
	subTotal := Convert(base, in.CuentaCorriente, rate)

	factor := FactorFromPercent(in.DescuentoPercent)
	discountedBase := Round(decimal.NewFromInt(base).Mul(factor))
	montoTotal := Convert(discountedBase, in.CuentaCorriente, rate)

	if in.Kind.IsOutflow() {
		subTotal = subTotal.Neg()
		montoTotal = montoTotal.Neg()
	}

	return Totals{
		SubTotal:          subTotal,
		MontoTotal:        montoTotal,
		TipoDeCambio:      rate,
		DescuentoAplicado: factor,
	}
}

// ResolveRate picks the manual override when it is positive, then the first positive
// quote field among venta, value, oficial and blue, and finally 1.
func ResolveRate(manual decimal.NullDecimal, quote *ExchangeRateQuote) decimal.Decimal {
	if manual.Valid && manual.Decimal.IsPositive() {
		return manual.Decimal
	}

	if quote != nil {
		for _, candidate := range []decimal.NullDecimal{quote.Venta, quote.Value, quote.Oficial, quote.Blue} {
			if candidate.Valid && candidate.Decimal.IsPositive() {
				return candidate.Decimal
			}
		}
	}

	return one
}
