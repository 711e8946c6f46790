package domain

import "errors"

var (
	// Movement errors
	ErrMovementNotFound = errors.New("movement not found")
	ErrMissingCliente   = errors.New("cliente is required")
	ErrMissingAmount    = errors.New("monto enviado is required")
	ErrNoChanges        = errors.New("No hay cambios para guardar")

	// Classification errors
	ErrInvalidCurrency        = errors.New("invalid moneda de pago")
	ErrInvalidCuentaCorriente = errors.New("invalid cuenta corriente")
	ErrInvalidKind            = errors.New("invalid movement kind")

	// Quote errors
	ErrQuoteUnavailable = errors.New("exchange rate quote unavailable")
)
