package domain

import (
	"errors"
	"testing"
)

func TestParseCuentaCorriente(t *testing.T) {
	tests := []struct {
		input   string
		want    CuentaCorriente
		wantErr bool
	}{
		{input: "ARS", want: CuentaARS},
		{input: " ars ", want: CuentaARS},
		{input: "USD BLUE", want: CuentaUSDBlue},
		{input: "usd_blue", want: CuentaUSDBlue},
		{input: "usd-oficial", want: CuentaUSDOficial},
		{input: "USD  OFICIAL", want: CuentaUSDOficial},
		{input: "EUR", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCuentaCorriente(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCuentaCorriente) {
				t.Errorf("ParseCuentaCorriente(%q): expected ErrInvalidCuentaCorriente, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCuentaCorriente(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	if c, err := ParseCurrency("usd"); err != nil || c != CurrencyUSD {
		t.Fatalf("expected USD, got %q, %v", c, err)
	}
	if _, err := ParseCurrency("XYZ"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestKind(t *testing.T) {
	if !KindEntrega.IsOutflow() || !KindEgreso.IsOutflow() {
		t.Fatal("entrega and egreso must be outflows")
	}
	if KindIngreso.IsOutflow() {
		t.Fatal("ingreso must not be an outflow")
	}
	if k, err := ParseKind(" Entrega "); err != nil || k != KindEntrega {
		t.Fatalf("expected entrega, got %q, %v", k, err)
	}
	if _, err := ParseKind("prestamo"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if !CuentaUSDBlue.IsUSD() || CuentaARS.IsUSD() {
		t.Fatal("unexpected IsUSD result")
	}
}
