package domain

import (
	"fmt"
	"strings"
)

// Currency is the currency a movement was paid or received in.
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

// CuentaCorriente is the ledger account a movement posts against.
type CuentaCorriente string

const (
	CuentaARS        CuentaCorriente = "ARS"
	CuentaUSDOficial CuentaCorriente = "USD OFICIAL"
	CuentaUSDBlue    CuentaCorriente = "USD BLUE"
)

// CuentasCorrientes lists every account in display order.
var CuentasCorrientes = []CuentaCorriente{CuentaARS, CuentaUSDOficial, CuentaUSDBlue}

// IsUSD reports whether the account is denominated in dollars.
func (cc CuentaCorriente) IsUSD() bool {
	return cc == CuentaUSDOficial || cc == CuentaUSDBlue
}

// IsValid reports whether cc is one of the known accounts.
func (cc CuentaCorriente) IsValid() bool {
	return cc == CuentaARS || cc.IsUSD()
}

// IsValid reports whether c is a supported payment currency.
func (c Currency) IsValid() bool {
	return c == CurrencyARS || c == CurrencyUSD
}

// ParseCurrency normalizes user input such as "usd" or " ars ".
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

// ParseCuentaCorriente accepts "USD BLUE", "usd_blue", "usd-blue" and similar spellings.
func ParseCuentaCorriente(s string) (CuentaCorriente, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	cc := CuentaCorriente(normalized)
	if !cc.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCuentaCorriente, s)
	}
	return cc, nil
}

// Kind classifies a movement by the direction money flows.
type Kind string

const (
	// KindEntrega is money handed to a client; booked as negative.
	KindEntrega Kind = "entrega"
	KindEgreso  Kind = "egreso"
	KindIngreso Kind = "ingreso"
)

// IsOutflow reports whether snapshots of this kind carry a negative sign.
func (k Kind) IsOutflow() bool {
	return k == KindEntrega || k == KindEgreso
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindEntrega || k == KindEgreso || k == KindIngreso
}

// ParseKind normalizes a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}
