package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/usecase"
)

const movementColumns = `id, cliente, kind, caja, concepto,
	monto_enviado::text, moneda_de_pago, cuenta_corriente,
	descuento_aplicado::text, tipo_de_cambio::text,
	sub_total_ars, sub_total_usd_oficial, sub_total_usd_blue,
	monto_total_ars, monto_total_usd_oficial, monto_total_usd_blue,
	fecha, created_at, updated_at`

const insertMovement = `INSERT INTO movimientos (
	id, cliente, kind, caja, concepto,
	monto_enviado, moneda_de_pago, cuenta_corriente,
	descuento_aplicado, tipo_de_cambio,
	sub_total_ars, sub_total_usd_oficial, sub_total_usd_blue,
	monto_total_ars, monto_total_usd_oficial, monto_total_usd_blue,
	fecha, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

const selectMovementByID = `SELECT ` + movementColumns + ` FROM movimientos WHERE id = $1`

const deleteMovement = `DELETE FROM movimientos WHERE id = $1`

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	db dbtx
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return newMovementRepositoryWithDB(pool)
}

func newMovementRepositoryWithDB(db dbtx) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create inserts a movement within a transaction.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	_, err := executor(tx, r.db).Exec(ctx, insertMovement,
		m.ID,
		m.Cliente,
		string(m.Kind),
		m.Caja,
		m.Concepto,
		decimalToNumeric(m.MontoEnviado),
		string(m.MonedaDePago),
		string(m.CuentaCorriente),
		decimalToNumeric(m.DescuentoAplicado),
		decimalToNumeric(m.TipoDeCambio),
		m.SubTotal.ARS,
		m.SubTotal.USDOficial,
		m.SubTotal.USDBlue,
		m.MontoTotal.ARS,
		m.MontoTotal.USDOficial,
		m.MontoTotal.USDBlue,
		timeToPgTimestamptz(m.Fecha),
		timeToPgTimestamptz(m.CreatedAt),
		timeToPgTimestamptz(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert movimiento: %w", err)
	}
	return nil
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	m, err := scanMovement(r.db.QueryRow(ctx, selectMovementByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, err
	}
	return m, nil
}

// Update writes only the patched fields and bumps updated_at.
func (r *MovementRepository) Update(ctx context.Context, tx usecase.Transaction, id string, patch domain.MovementPatch, updatedAt time.Time) error {
	if patch.IsEmpty() {
		return domain.ErrNoChanges
	}

	sets := make([]string, 0, len(patch)+4)
	args := make([]any, 0, len(patch)+6)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	for _, field := range patch.Fields() {
		if err := addPatchField(add, field, patch[field]); err != nil {
			return err
		}
	}
	add("updated_at", timeToPgTimestamptz(updatedAt))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE movimientos SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := executor(tx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update movimiento: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// Delete removes a movement.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := executor(tx, r.db).Exec(ctx, deleteMovement, id)
	if err != nil {
		return fmt.Errorf("delete movimiento: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// List retrieves movements newest first.
func (r *MovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
	var (
		where []string
		args  []any
	)

	if filter.Cliente != "" {
		args = append(args, "%"+escapeLike(filter.Cliente)+"%")
		where = append(where, fmt.Sprintf("cliente ILIKE $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Caja != "" {
		args = append(args, filter.Caja)
		where = append(where, fmt.Sprintf("caja = $%d", len(args)))
	}

	query := "SELECT " + movementColumns + " FROM movimientos"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY fecha DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]*domain.Movement, 0, filter.Limit)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	return movements, rows.Err()
}

func addPatchField(add func(column string, value any), field domain.Field, value any) error {
	switch field {
	case domain.FieldCliente, domain.FieldCaja, domain.FieldConcepto:
		s, ok := value.(string)
		if !ok {
			return patchTypeError(field, value)
		}
		add(columnFor(field), s)
	case domain.FieldKind:
		k, ok := value.(domain.Kind)
		if !ok {
			return patchTypeError(field, value)
		}
		add("kind", string(k))
	case domain.FieldMonedaDePago:
		c, ok := value.(domain.Currency)
		if !ok {
			return patchTypeError(field, value)
		}
		add("moneda_de_pago", string(c))
	case domain.FieldCuentaCorriente:
		cc, ok := value.(domain.CuentaCorriente)
		if !ok {
			return patchTypeError(field, value)
		}
		add("cuenta_corriente", string(cc))
	case domain.FieldMontoEnviado, domain.FieldDescuentoAplicado, domain.FieldTipoDeCambio:
		d, ok := value.(decimal.Decimal)
		if !ok {
			return patchTypeError(field, value)
		}
		add(columnFor(field), decimalToNumeric(d))
	case domain.FieldSubTotal, domain.FieldMontoTotal:
		s, ok := value.(domain.MonetarySnapshot)
		if !ok {
			return patchTypeError(field, value)
		}
		prefix := columnFor(field)
		add(prefix+"_ars", s.ARS)
		add(prefix+"_usd_oficial", s.USDOficial)
		add(prefix+"_usd_blue", s.USDBlue)
	case domain.FieldFecha:
		t, ok := value.(time.Time)
		if !ok {
			return patchTypeError(field, value)
		}
		add("fecha", timeToPgTimestamptz(t))
	default:
		return fmt.Errorf("unknown movement field %q", field)
	}
	return nil
}

func columnFor(field domain.Field) string {
	switch field {
	case domain.FieldMontoEnviado:
		return "monto_enviado"
	case domain.FieldDescuentoAplicado:
		return "descuento_aplicado"
	case domain.FieldTipoDeCambio:
		return "tipo_de_cambio"
	case domain.FieldSubTotal:
		return "sub_total"
	case domain.FieldMontoTotal:
		return "monto_total"
	default:
		return string(field)
	}
}

func patchTypeError(field domain.Field, value any) error {
	return fmt.Errorf("movement field %q: unexpected type %T", field, value)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var (
		m                        domain.Movement
		kind, moneda, cc         string
		monto, descuento, cambio string
	)

	err := row.Scan(
		&m.ID, &m.Cliente, &kind, &m.Caja, &m.Concepto,
		&monto, &moneda, &cc,
		&descuento, &cambio,
		&m.SubTotal.ARS, &m.SubTotal.USDOficial, &m.SubTotal.USDBlue,
		&m.MontoTotal.ARS, &m.MontoTotal.USDOficial, &m.MontoTotal.USDBlue,
		&m.Fecha, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Kind = domain.Kind(kind)
	m.MonedaDePago = domain.Currency(moneda)
	m.CuentaCorriente = domain.CuentaCorriente(cc)

	if m.MontoEnviado, err = textToDecimal("monto_enviado", monto); err != nil {
		return nil, err
	}
	if m.DescuentoAplicado, err = textToDecimal("descuento_aplicado", descuento); err != nil {
		return nil, err
	}
	if m.TipoDeCambio, err = textToDecimal("tipo_de_cambio", cambio); err != nil {
		return nil, err
	}

	return &m, nil
}
