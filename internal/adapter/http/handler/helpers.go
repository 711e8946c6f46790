package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/celulandia/cuentas/internal/adapter/http/dto"
	"github.com/celulandia/cuentas/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrMovementNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingCliente),
		errors.Is(err, domain.ErrMissingAmount),
		errors.Is(err, domain.ErrInvalidClienteName),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrConceptoTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidCuentaCorriente):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseViewAs reads the optional view_as query parameter.
func parseViewAs(r *http.Request) (domain.CuentaCorriente, error) {
	raw := r.URL.Query().Get("view_as")
	if raw == "" {
		return "", nil
	}
	return domain.ParseCuentaCorriente(raw)
}
