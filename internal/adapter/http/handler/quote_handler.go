package handler

import (
	"context"
	"net/http"

	"github.com/celulandia/cuentas/internal/adapter/http/dto"
	"github.com/celulandia/cuentas/internal/domain"
)

// QuoteService defines the behavior needed by QuoteHandler.
type QuoteService interface {
	Current(ctx context.Context) (*domain.ExchangeRateQuote, error)
	Invalidate(ctx context.Context) error
}

// QuoteHandler serves the current exchange rate.
type QuoteHandler struct {
	quotes QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quotes QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Current returns the latest oficial and blue rates.
func (h *QuoteHandler) Current(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.Current(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get exchange rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.QuoteFromDomain(quote))
}

// Refresh drops the cached quote and fetches a new one from the provider.
func (h *QuoteHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.quotes.Invalidate(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to invalidate exchange rate", err.Error())
		return
	}

	h.Current(w, r)
}
