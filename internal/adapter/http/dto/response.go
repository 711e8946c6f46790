package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NoChangesResponse is returned when a save would not modify the movement.
type NoChangesResponse struct {
	Message string `json:"message"`
	Changed bool   `json:"changed"`
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID                string                  `json:"id"`
	Fecha             time.Time               `json:"fecha"`
	Cliente           string                  `json:"cliente"`
	Kind              domain.Kind             `json:"kind"`
	Caja              string                  `json:"caja"`
	Concepto          string                  `json:"concepto"`
	MontoEnviado      decimal.Decimal         `json:"montoEnviado"`
	MonedaDePago      domain.Currency         `json:"monedaDePago"`
	CuentaCorriente   domain.CuentaCorriente  `json:"cuentaCorriente"`
	DescuentoAplicado decimal.Decimal         `json:"descuentoAplicado"`
	TipoDeCambio      decimal.Decimal         `json:"tipoDeCambio"`
	SubTotal          domain.MonetarySnapshot `json:"subTotal"`
	MontoTotal        domain.MonetarySnapshot `json:"montoTotal"`
	Projection        domain.Projection       `json:"projection"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// MovementFromDomain converts a domain movement to a response projected under viewAs.
func MovementFromDomain(m *domain.Movement, viewAs domain.CuentaCorriente) *MovementResponse {
	return &MovementResponse{
		ID:                m.ID,
		Fecha:             m.Fecha,
		Cliente:           m.Cliente,
		Kind:              m.Kind,
		Caja:              m.Caja,
		Concepto:          m.Concepto,
		MontoEnviado:      m.MontoEnviado,
		MonedaDePago:      m.MonedaDePago,
		CuentaCorriente:   m.CuentaCorriente,
		DescuentoAplicado: m.DescuentoAplicado,
		TipoDeCambio:      m.TipoDeCambio,
		SubTotal:          m.SubTotal,
		MontoTotal:        m.MontoTotal,
		Projection:        m.ProjectAs(viewAs),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// MovementsFromViews converts projected use case rows to responses.
func MovementsFromViews(views []usecase.MovementView) []*MovementResponse {
	result := make([]*MovementResponse, len(views))
	for i, v := range views {
		result[i] = MovementFromDomain(v.Movement, v.Projection.ViewAs)
	}
	return result
}

// ListMovementsResponse is a page of movements.
type ListMovementsResponse struct {
	Movimientos []*MovementResponse `json:"movimientos"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// TotalsResponse is the outcome of a preview.
type TotalsResponse struct {
	SubTotal            domain.MonetarySnapshot `json:"subTotal"`
	MontoTotal          domain.MonetarySnapshot `json:"montoTotal"`
	TipoDeCambio        decimal.Decimal         `json:"tipoDeCambio"`
	DescuentoAplicado   decimal.Decimal         `json:"descuentoAplicado"`
	DescuentoPorcentaje int64                   `json:"descuentoPorcentaje"`
}

// TotalsFromDomain converts computed totals to a response.
func TotalsFromDomain(t *domain.Totals) *TotalsResponse {
	return &TotalsResponse{
		SubTotal:            t.SubTotal,
		MontoTotal:          t.MontoTotal,
		TipoDeCambio:        t.TipoDeCambio,
		DescuentoAplicado:   t.DescuentoAplicado,
		DescuentoPorcentaje: domain.PercentFromFactor(t.DescuentoAplicado),
	}
}

// QuoteResponse represents the current exchange rate quote.
type QuoteResponse struct {
	Oficial             decimal.NullDecimal `json:"oficial"`
	Blue                decimal.NullDecimal `json:"blue"`
	UltimaActualizacion time.Time           `json:"ultimaActualizacion"`
}

// QuoteFromDomain converts a quote to a response.
func QuoteFromDomain(q *domain.ExchangeRateQuote) *QuoteResponse {
	return &QuoteResponse{
		Oficial:             q.Oficial,
		Blue:                q.Blue,
		UltimaActualizacion: q.UltimaActualizacion,
	}
}
