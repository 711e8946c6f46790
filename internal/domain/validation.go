package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidClienteName = errors.New("invalid cliente name")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrConceptoTooLong    = errors.New("concepto exceeds maximum length")
)

// Validation constants
const (
	MaxClienteLength  = 255
	MaxConceptoLength = 1024
	MaxMontoEnviado   = "1000000000000" // 1 trillion
)

// ValidateCliente validates a client name.
func ValidateCliente(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrMissingCliente
	}

	if len(name) > MaxClienteLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidClienteName, MaxClienteLength)
	}

	// Check for SQL injection attempts
	dangerous := []string{"--", "/*", "*/", ";"}
	for _, pattern := range dangerous {
		if strings.Contains(name, pattern) {
			return fmt.Errorf("%w: contains forbidden characters", ErrInvalidClienteName)
		}
	}

	return nil
}

// ValidateConcepto validates the free-text description.
func ValidateConcepto(concepto string) error {
	if len(concepto) > MaxConceptoLength {
		return fmt.Errorf("%w: %d characters", ErrConceptoTooLong, len(concepto))
	}
	return nil
}

// ValidateMontoEnviado rejects missing and absurdly large amounts.
func ValidateMontoEnviado(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrMissingAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxMontoEnviado)
	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxMontoEnviado)
	}

	return nil
}

// ValidateConversion rejects an amount whose conversion at rate does not fit a
// snapshot bucket. Callers check it before persisting computed totals.
func ValidateConversion(amount decimal.Decimal, cc CuentaCorriente, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		rate = one
	}

	base := amount.Abs().Round(0)

	var converted decimal.Decimal
	switch cc {
	case CuentaARS:
		converted = base.Div(rate)
	case CuentaUSDOficial, CuentaUSDBlue:
		converted = base.Mul(rate)
	default:
		return nil
	}

	if base.GreaterThan(maxBucket) || converted.Round(0).GreaterThan(maxBucket) {
		return fmt.Errorf("%w: %s does not fit at rate %s", ErrAmountTooLarge, amount.String(), rate.String())
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
