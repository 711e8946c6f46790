package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/infrastructure/metrics"
)

// MovementUseCase handles movement business logic.
type MovementUseCase struct {
	txManager    TransactionManager
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	quotes       ExchangeRateProvider
	retrier      Retrier
	idGen        IDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewMovementUseCase creates a new MovementUseCase.
func NewMovementUseCase(
	txManager TransactionManager,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	quotes ExchangeRateProvider,
	retrier Retrier,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *MovementUseCase {
	return &MovementUseCase{
		txManager:    txManager,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		quotes:       quotes,
		retrier:      retrier,
		idGen:        idGen,
		logger:       logger.With().Str("component", "movement_usecase").Logger(),
		metrics:      metrics,
	}
}

// FormInput is a movement form as typed by the user. Amount, discount and
// manual rate stay raw so the coercion rules apply in one place.
type FormInput struct {
	Fecha            *time.Time
	Cliente          string
	Kind             domain.Kind
	Caja             string
	Concepto         string
	MontoEnviado     string
	MonedaDePago     domain.Currency
	CuentaCorriente  domain.CuentaCorriente
	DescuentoPercent string
	TipoDeCambio     string
}

// ListInput represents input for listing movements.
type ListInput struct {
	Cliente string
	Kind    domain.Kind
	Caja    string
	ViewAs  domain.CuentaCorriente
	Limit   int
	Offset  int
}

// MovementView pairs a movement with its projection under the requested account.
type MovementView struct {
	Movement   *domain.Movement
	Projection domain.Projection
}

// Preview computes the totals for a form without persisting anything. Amounts
// too large for their rate saturate rather than fail.
func (uc *MovementUseCase) Preview(ctx context.Context, input FormInput) (*domain.Totals, error) {
	rate := uc.resolveRate(ctx, input.TipoDeCambio, decimal.NullDecimal{})
	totals := domain.ComputeTotals(totalsInput(input, rate))
	return &totals, nil
}

// Create validates the form, computes its totals and stores the movement.
func (uc *MovementUseCase) Create(ctx context.Context, input FormInput) (*domain.Movement, error) {
	movement := movementFromForm(input)
	if err := movement.Validate(); err != nil {
		return nil, err
	}

	rate := uc.resolveRate(ctx, input.TipoDeCambio, decimal.NullDecimal{})
	totals := totalsInput(input, rate)
	if err := domain.ValidateConversion(totals.MontoEnviado, totals.CuentaCorriente, rate); err != nil {
		return nil, err
	}
	movement.ApplyTotals(domain.ComputeTotals(totals))

	now := time.Now().UTC()
	movement.ID = uc.idGen.Generate()
	movement.CreatedAt = now
	movement.UpdatedAt = now
	if movement.Fecha.IsZero() {
		movement.Fecha = now
	}

	event := uc.newEvent(movement, domain.EventTypeMovementCreated, nil, now)

	err := uc.retrier.Retry(ctx, func() error {
		return uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
			if err := uc.movementRepo.Create(txCtx, tx, movement); err != nil {
				return err
			}
			return uc.outboxRepo.Create(txCtx, tx, event)
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MovementsCreated.WithLabelValues(string(movement.Kind), string(movement.CuentaCorriente)).Inc()
		uc.metrics.SaveDuration.Observe(time.Since(now).Seconds())
	}

	uc.logger.Info().
		Str("movimiento_id", movement.ID).
		Str("cliente", movement.Cliente).
		Str("cuenta_corriente", string(movement.CuentaCorriente)).
		Msg("movement created")

	return movement, nil
}

// Update recomputes the movement from the edited form and persists only the
// changed fields. It returns domain.ErrNoChanges when the form matches what is stored.
func (uc *MovementUseCase) Update(ctx context.Context, id string, input FormInput) (*domain.Movement, error) {
	prev, err := uc.movementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := movementFromForm(input)
	if input.Fecha == nil {
		next.Fecha = prev.Fecha
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	// The stored rate stays in effect unless the user typed a new one.
	rate := uc.resolveRate(ctx, input.TipoDeCambio, decimal.NewNullDecimal(prev.TipoDeCambio))
	totals := totalsInput(input, rate)
	if err := domain.ValidateConversion(totals.MontoEnviado, totals.CuentaCorriente, rate); err != nil {
		return nil, err
	}
	next.ApplyTotals(domain.ComputeTotals(totals))

	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = prev.UpdatedAt

	patch := domain.Diff(prev, next)
	if patch.IsEmpty() {
		if uc.metrics != nil {
			uc.metrics.NoOpSaves.Inc()
		}
		return nil, domain.ErrNoChanges
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	event := uc.newEvent(next, domain.EventTypeMovementUpdated, patch.Fields(), now)

	err = uc.retrier.Retry(ctx, func() error {
		return uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
			if err := uc.movementRepo.Update(txCtx, tx, id, patch, now); err != nil {
				return err
			}
			return uc.outboxRepo.Create(txCtx, tx, event)
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MovementsUpdated.WithLabelValues(string(next.Kind), string(next.CuentaCorriente)).Inc()
		uc.metrics.SaveDuration.Observe(time.Since(now).Seconds())
	}

	uc.logger.Info().
		Str("movimiento_id", id).
		Strs("changed", fieldNames(patch.Fields())).
		Msg("movement updated")

	return next, nil
}

// Get retrieves a movement by ID.
func (uc *MovementUseCase) Get(ctx context.Context, id string) (*domain.Movement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

// List returns movements matching the filter, each projected under input.ViewAs.
func (uc *MovementUseCase) List(ctx context.Context, input ListInput) ([]MovementView, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	movements, err := uc.movementRepo.List(ctx, domain.MovementFilter{
		Cliente: strings.TrimSpace(input.Cliente),
		Kind:    input.Kind,
		Caja:    strings.TrimSpace(input.Caja),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}

	views := make([]MovementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, MovementView{Movement: m, Projection: m.ProjectAs(input.ViewAs)})
	}

	return views, nil
}

// Delete removes a movement.
func (uc *MovementUseCase) Delete(ctx context.Context, id string) error {
	movement, err := uc.movementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	event := uc.newEvent(movement, domain.EventTypeMovementDeleted, nil, now)

	err = uc.retrier.Retry(ctx, func() error {
		return uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
			if err := uc.movementRepo.Delete(txCtx, tx, id); err != nil {
				return err
			}
			return uc.outboxRepo.Create(txCtx, tx, event)
		})
	})
	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.MovementsDeleted.Inc()
	}

	uc.logger.Info().Str("movimiento_id", id).Msg("movement deleted")

	return nil
}

func (uc *MovementUseCase) inTx(ctx context.Context, fn func(txCtx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// resolveRate picks the rate in scope: a typed manual rate, then the stored
// rate of an edited movement, then the provider quote. A provider failure
// degrades to rate 1.
func (uc *MovementUseCase) resolveRate(ctx context.Context, manualRaw string, stored decimal.NullDecimal) decimal.Decimal {
	if manual := domain.ParseRate(manualRaw); manual.Valid {
		uc.countRate(RateSourceManual)
		return manual.Decimal
	}

	if stored.Valid && stored.Decimal.IsPositive() {
		uc.countRate(RateSourceStored)
		return stored.Decimal
	}

	if uc.quotes == nil {
		uc.countRate(RateSourceFallback)
		return domain.ResolveRate(decimal.NullDecimal{}, nil)
	}

	quote, err := uc.quotes.Current(ctx)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("exchange rate unavailable, using 1")
		uc.countRate(RateSourceFallback)
		return domain.ResolveRate(decimal.NullDecimal{}, nil)
	}

	uc.countRate(RateSourceProvider)
	return domain.ResolveRate(decimal.NullDecimal{}, quote)
}

func (uc *MovementUseCase) countRate(source string) {
	if uc.metrics != nil {
		uc.metrics.RateLookups.WithLabelValues(source).Inc()
	}
}

func (uc *MovementUseCase) newEvent(m *domain.Movement, eventType string, changed []domain.Field, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   m.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     eventType,
		Payload:       domain.NewMovementEvent(m, changed).Payload(),
		CreatedAt:     now,
		Published:     false,
	}
}

func movementFromForm(input FormInput) *domain.Movement {
	m := &domain.Movement{
		Cliente:         strings.TrimSpace(input.Cliente),
		Kind:            input.Kind,
		Caja:            strings.TrimSpace(input.Caja),
		Concepto:        strings.TrimSpace(input.Concepto),
		MontoEnviado:    domain.ParseAmount(input.MontoEnviado),
		MonedaDePago:    input.MonedaDePago,
		CuentaCorriente: input.CuentaCorriente,
	}
	if input.Fecha != nil {
		m.Fecha = input.Fecha.UTC()
	}
	return m
}

func totalsInput(input FormInput, rate decimal.Decimal) domain.TotalsInput {
	return domain.TotalsInput{
		MontoEnviado:     domain.ParseAmount(input.MontoEnviado),
		MonedaDePago:     input.MonedaDePago,
		CuentaCorriente:  input.CuentaCorriente,
		DescuentoPercent: domain.ParsePercent(input.DescuentoPercent),
		Rate:             rate,
		Kind:             input.Kind,
	}
}

func fieldNames(fields []domain.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
