package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/celulandia/cuentas/internal/domain"
)

func TestLooseNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    LooseNumber
		wantErr bool
	}{
		{name: "number", input: `1500.5`, want: "1500.5"},
		{name: "integer", input: `100`, want: "100"},
		{name: "string with comma", input: `"1.500,50"`, want: "1.500,50"},
		{name: "empty string", input: `""`, want: ""},
		{name: "null", input: `null`, want: ""},
		{name: "boolean", input: `true`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n LooseNumber
			err := json.Unmarshal([]byte(tt.input), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && n != tt.want {
				t.Fatalf("got %q, want %q", n, tt.want)
			}
		})
	}
}

func TestMovementFormRequestToUseCaseInput(t *testing.T) {
	body := `{
		"cliente": "Juan",
		"kind": "Entrega",
		"caja": "efectivo",
		"montoEnviado": "1.500,50",
		"monedaDePago": "ars",
		"cuentaCorriente": "usd_blue",
		"descuentoPorcentaje": 10,
		"tipoDeCambio": 1000
	}`

	var req MovementFormRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("ToUseCaseInput failed: %v", err)
	}

	if input.Kind != domain.KindEntrega {
		t.Fatalf("expected kind entrega, got %q", input.Kind)
	}
	if input.MonedaDePago != domain.CurrencyARS {
		t.Fatalf("expected ARS, got %q", input.MonedaDePago)
	}
	if input.CuentaCorriente != domain.CuentaUSDBlue {
		t.Fatalf("expected USD BLUE, got %q", input.CuentaCorriente)
	}
	if input.MontoEnviado != "1.500,50" || input.DescuentoPercent != "10" || input.TipoDeCambio != "1000" {
		t.Fatalf("raw numbers not carried through: %+v", input)
	}
}

func TestMovementFormRequestBlankClassification(t *testing.T) {
	req := MovementFormRequest{MontoEnviado: "100"}

	input, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("blank fields should not fail conversion: %v", err)
	}
	if input.Kind != "" || input.CuentaCorriente != "" || input.MonedaDePago != "" {
		t.Fatalf("expected empty classification, got %+v", input)
	}
}

func TestMovementFormRequestInvalidClassification(t *testing.T) {
	tests := []struct {
		name string
		req  MovementFormRequest
		want error
	}{
		{name: "kind", req: MovementFormRequest{Kind: "prestamo"}, want: domain.ErrInvalidKind},
		{name: "moneda", req: MovementFormRequest{MonedaDePago: "EUR"}, want: domain.ErrInvalidCurrency},
		{name: "cuenta", req: MovementFormRequest{CuentaCorriente: "USD MEP"}, want: domain.ErrInvalidCuentaCorriente},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToUseCaseInput()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
