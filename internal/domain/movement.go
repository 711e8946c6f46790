package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Movement is a cash movement booked against a cuenta corriente.
type Movement struct {
	ID                string
	Cliente           string
	Kind              Kind
	Caja              string
	Concepto          string
	MontoEnviado      decimal.Decimal
	MonedaDePago      Currency
	CuentaCorriente   CuentaCorriente
	DescuentoAplicado decimal.Decimal
	TipoDeCambio      decimal.Decimal
	SubTotal          MonetarySnapshot
	MontoTotal        MonetarySnapshot
	Fecha             time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the fields a user must fill in before saving.
func (m *Movement) Validate() error {
	if err := ValidateCliente(m.Cliente); err != nil {
		return err
	}
	if err := ValidateMontoEnviado(m.MontoEnviado); err != nil {
		return err
	}
	if err := ValidateConcepto(m.Concepto); err != nil {
		return err
	}
	if !m.Kind.IsValid() {
		return ErrInvalidKind
	}
	if !m.MonedaDePago.IsValid() {
		return ErrInvalidCurrency
	}
	if !m.CuentaCorriente.IsValid() {
		return ErrInvalidCuentaCorriente
	}
	return nil
}

// ApplyTotals copies computed totals onto the movement.
func (m *Movement) ApplyTotals(t Totals) {
	m.SubTotal = t.SubTotal
	m.MontoTotal = t.MontoTotal
	m.TipoDeCambio = t.TipoDeCambio
	m.DescuentoAplicado = t.DescuentoAplicado
}

// Projection is a movement as shown under one account.
type Projection struct {
	ViewAs              CuentaCorriente `json:"viewAs"`
	Monto               int64           `json:"monto"`
	SubTotal            int64           `json:"subTotal"`
	DescuentoPorcentaje int64           `json:"descuentoPorcentaje"`
}

// ProjectAs selects the buckets for viewAs. An empty viewAs uses the movement's own account.
func (m *Movement) ProjectAs(viewAs CuentaCorriente) Projection {
	if viewAs == "" {
		viewAs = m.CuentaCorriente
	}
	return Projection{
		ViewAs:              viewAs,
		Monto:               m.MontoTotal.For(viewAs),
		SubTotal:            m.SubTotal.For(viewAs),
		DescuentoPorcentaje: PercentFromFactor(m.DescuentoAplicado),
	}
}

// Field names a top-level movement field in a patch.
type Field string

const (
	FieldCliente           Field = "cliente"
	FieldKind              Field = "kind"
	FieldCaja              Field = "caja"
	FieldConcepto          Field = "concepto"
	FieldMontoEnviado      Field = "montoEnviado"
	FieldMonedaDePago      Field = "monedaDePago"
	FieldCuentaCorriente   Field = "cuentaCorriente"
	FieldDescuentoAplicado Field = "descuentoAplicado"
	FieldTipoDeCambio      Field = "tipoDeCambio"
	FieldSubTotal          Field = "subTotal"
	FieldMontoTotal        Field = "montoTotal"
	FieldFecha             Field = "fecha"
)

// MovementPatch holds the changed fields of a movement and their new values.
type MovementPatch map[Field]any

// IsEmpty reports whether nothing changed.
func (p MovementPatch) IsEmpty() bool {
	return len(p) == 0
}

// Fields returns the changed field names sorted.
func (p MovementPatch) Fields() []Field {
	fields := make([]Field, 0, len(p))
	for f := range p {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Diff compares next against prev field by field. Snapshots compare by their JSON
// encoding. When any monetary field changed the whole monetary set is included.
func Diff(prev, next *Movement) MovementPatch {
	patch := MovementPatch{}

	if prev.Cliente != next.Cliente {
		patch[FieldCliente] = next.Cliente
	}
	if prev.Kind != next.Kind {
		patch[FieldKind] = next.Kind
	}
	if prev.Caja != next.Caja {
		patch[FieldCaja] = next.Caja
	}
	if prev.Concepto != next.Concepto {
		patch[FieldConcepto] = next.Concepto
	}
	if !prev.MontoEnviado.Equal(next.MontoEnviado) {
		patch[FieldMontoEnviado] = next.MontoEnviado
	}
	if prev.MonedaDePago != next.MonedaDePago {
		patch[FieldMonedaDePago] = next.MonedaDePago
	}
	if prev.CuentaCorriente != next.CuentaCorriente {
		patch[FieldCuentaCorriente] = next.CuentaCorriente
	}
	if !prev.Fecha.Equal(next.Fecha) {
		patch[FieldFecha] = next.Fecha
	}

	monetaryChanged := !prev.TipoDeCambio.Equal(next.TipoDeCambio) ||
		!prev.DescuentoAplicado.Equal(next.DescuentoAplicado) ||
		!snapshotsEqual(prev.SubTotal, next.SubTotal) ||
		!snapshotsEqual(prev.MontoTotal, next.MontoTotal)

	if monetaryChanged {
		patch[FieldSubTotal] = next.SubTotal
		patch[FieldMontoTotal] = next.MontoTotal
		patch[FieldTipoDeCambio] = next.TipoDeCambio
		patch[FieldDescuentoAplicado] = next.DescuentoAplicado
	}

	return patch
}

func snapshotsEqual(a, b MonetarySnapshot) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// MovementFilter narrows a movement listing.
type MovementFilter struct {
	Cliente string
	Kind    Kind
	Caja    string
	Limit   int
	Offset  int
}
