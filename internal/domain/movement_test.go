package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMovement() *Movement {
	m := &Movement{
		ID:              "01J9ZCX3W4Q6R8T0V2X4Z6B8D0",
		Cliente:         "Juan Pérez",
		Kind:            KindIngreso,
		Caja:            "caja-1",
		Concepto:        "pago factura 42",
		MontoEnviado:    dec("1500"),
		MonedaDePago:    CurrencyARS,
		CuentaCorriente: CuentaARS,
		Fecha:           time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}
	m.ApplyTotals(ComputeTotals(TotalsInput{
		MontoEnviado:     m.MontoEnviado,
		MonedaDePago:     m.MonedaDePago,
		CuentaCorriente:  m.CuentaCorriente,
		DescuentoPercent: dec("10"),
		Rate:             dec("1000"),
		Kind:             m.Kind,
	}))
	return m
}

func TestMovement_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Movement)
		wantErr error
	}{
		{name: "valid", mutate: func(m *Movement) {}},
		{name: "missing cliente", mutate: func(m *Movement) { m.Cliente = "  " }, wantErr: ErrMissingCliente},
		{name: "missing amount", mutate: func(m *Movement) { m.MontoEnviado = decimal.Zero }, wantErr: ErrMissingAmount},
		{name: "unknown kind", mutate: func(m *Movement) { m.Kind = "prestamo" }, wantErr: ErrInvalidKind},
		{name: "unknown currency", mutate: func(m *Movement) { m.MonedaDePago = "EUR" }, wantErr: ErrInvalidCurrency},
		{name: "unknown account", mutate: func(m *Movement) { m.CuentaCorriente = "EUR" }, wantErr: ErrInvalidCuentaCorriente},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMovement()
			tt.mutate(m)

			err := m.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMovement_ProjectAs(t *testing.T) {
	m := sampleMovement()

	own := m.ProjectAs("")
	assert.Equal(t, CuentaARS, own.ViewAs)
	assert.Equal(t, int64(1350), own.Monto)
	assert.Equal(t, int64(1500), own.SubTotal)
	assert.Equal(t, int64(10), own.DescuentoPorcentaje)

	blue := m.ProjectAs(CuentaUSDBlue)
	assert.Equal(t, CuentaUSDBlue, blue.ViewAs)
	assert.Equal(t, int64(1), blue.Monto)
	assert.Equal(t, int64(2), blue.SubTotal)
}

func TestDiff_NoChanges(t *testing.T) {
	prev := sampleMovement()
	next := sampleMovement()

	patch := Diff(prev, next)
	if !patch.IsEmpty() {
		t.Fatalf("expected empty patch, got %v", patch.Fields())
	}
}

func TestDiff_NonMonetaryField(t *testing.T) {
	prev := sampleMovement()
	next := sampleMovement()
	next.Concepto = "pago factura 43"

	patch := Diff(prev, next)

	assert.Equal(t, []Field{FieldConcepto}, patch.Fields())
	assert.Equal(t, "pago factura 43", patch[FieldConcepto])
}

func TestDiff_MonetaryFieldsTravelTogether(t *testing.T) {
	prev := sampleMovement()
	next := sampleMovement()
	next.TipoDeCambio = dec("1100")

	patch := Diff(prev, next)

	fields := patch.Fields()
	assert.ElementsMatch(t, []Field{FieldDescuentoAplicado, FieldMontoTotal, FieldSubTotal, FieldTipoDeCambio}, fields)
	assert.Equal(t, next.SubTotal, patch[FieldSubTotal])
	assert.Equal(t, next.MontoTotal, patch[FieldMontoTotal])
}

func TestDiff_OnlySnapshotBucketChanged(t *testing.T) {
	prev := sampleMovement()
	next := sampleMovement()
	next.MontoTotal.USDBlue = 7

	patch := Diff(prev, next)

	assert.Len(t, patch, 4)
	assert.Contains(t, patch, FieldTipoDeCambio)
}

func TestDiff_AmountChangeRecomputed(t *testing.T) {
	prev := sampleMovement()
	next := sampleMovement()
	next.MontoEnviado = dec("3000")
	next.ApplyTotals(ComputeTotals(TotalsInput{
		MontoEnviado:     next.MontoEnviado,
		CuentaCorriente:  next.CuentaCorriente,
		DescuentoPercent: dec("10"),
		Rate:             dec("1000"),
		Kind:             next.Kind,
	}))

	patch := Diff(prev, next)

	assert.ElementsMatch(t, []Field{FieldDescuentoAplicado, FieldMontoEnviado, FieldMontoTotal, FieldSubTotal, FieldTipoDeCambio}, patch.Fields())
}

func TestDiff_DecimalScaleIsNotAChange(t *testing.T) {
	prev := sampleMovement()
	next := sampleMovement()
	next.MontoEnviado = dec("1500.00")
	next.TipoDeCambio = dec("1000.0")

	if patch := Diff(prev, next); !patch.IsEmpty() {
		t.Fatalf("expected equal decimals to produce no change, got %v", patch.Fields())
	}
}

func TestMovementEvent_FromMovement(t *testing.T) {
	m := sampleMovement()

	evt := NewMovementEvent(m, []Field{FieldConcepto})

	assert.Equal(t, m.ID, evt.MovimientoID)
	assert.Equal(t, m.SubTotal, evt.SubTotal)
	assert.Equal(t, "1000", evt.TipoDeCambio)
	assert.Equal(t, []Field{FieldConcepto}, evt.ChangedFields)
}
