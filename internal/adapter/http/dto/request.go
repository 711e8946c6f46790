package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/usecase"
)

// LooseNumber accepts a JSON number, a numeric string such as "1.500,50", or null.
// The raw text is kept so coercion happens in the domain.
type LooseNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (n *LooseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = LooseNumber(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected number or string, got %s", data)
	}
	*n = LooseNumber(num.String())
	return nil
}

// MovementFormRequest is the movement form as sent by the client.
type MovementFormRequest struct {
	Fecha               *time.Time  `json:"fecha,omitempty"`
	Cliente             string      `json:"cliente"`
	Kind                string      `json:"kind"`
	Caja                string      `json:"caja"`
	Concepto            string      `json:"concepto"`
	MontoEnviado        LooseNumber `json:"montoEnviado"`
	MonedaDePago        string      `json:"monedaDePago"`
	CuentaCorriente     string      `json:"cuentaCorriente"`
	DescuentoPorcentaje LooseNumber `json:"descuentoPorcentaje"`
	TipoDeCambio        LooseNumber `json:"tipoDeCambio"`
}

// ToUseCaseInput converts to use case input. Blank classification fields stay
// empty and are rejected later by validation; misspelled ones fail here.
func (r *MovementFormRequest) ToUseCaseInput() (usecase.FormInput, error) {
	input := usecase.FormInput{
		Fecha:            r.Fecha,
		Cliente:          r.Cliente,
		Caja:             r.Caja,
		Concepto:         r.Concepto,
		MontoEnviado:     string(r.MontoEnviado),
		DescuentoPercent: string(r.DescuentoPorcentaje),
		TipoDeCambio:     string(r.TipoDeCambio),
	}

	var err error
	if strings.TrimSpace(r.Kind) != "" {
		if input.Kind, err = domain.ParseKind(r.Kind); err != nil {
			return usecase.FormInput{}, err
		}
	}
	if strings.TrimSpace(r.MonedaDePago) != "" {
		if input.MonedaDePago, err = domain.ParseCurrency(r.MonedaDePago); err != nil {
			return usecase.FormInput{}, err
		}
	}
	if strings.TrimSpace(r.CuentaCorriente) != "" {
		if input.CuentaCorriente, err = domain.ParseCuentaCorriente(r.CuentaCorriente); err != nil {
			return usecase.FormInput{}, err
		}
	}

	return input, nil
}
