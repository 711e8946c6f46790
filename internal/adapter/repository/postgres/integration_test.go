package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celulandia/cuentas/internal/adapter/repository/postgres"
	"github.com/celulandia/cuentas/internal/domain"
	pgdb "github.com/celulandia/cuentas/internal/infrastructure/postgres"
	"github.com/celulandia/cuentas/internal/usecase"
)

// newTestPool connects to DATABASE_URL, migrates and empties the tables.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, pgdb.RunMigrations(dbURL, zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgdb.NewPool(ctx, dbURL, 5, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE movimientos, outbox_events`)
	require.NoError(t, err)

	return pool
}

func newIntegrationUseCase(pool *pgxpool.Pool) *usecase.MovementUseCase {
	return usecase.NewMovementUseCase(
		postgres.NewTxManager(pool),
		postgres.NewMovementRepository(pool),
		postgres.NewOutboxRepository(pool),
		nil,
		postgres.NewRetrier(zerolog.Nop()),
		postgres.NewULIDGenerator(),
		zerolog.Nop(),
		nil,
	)
}

func TestMovementLifecycle(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	uc := newIntegrationUseCase(pool)

	form := usecase.FormInput{
		Cliente:         "Garcia",
		Kind:            domain.KindEntrega,
		Caja:            "efectivo",
		MontoEnviado:    "100.000",
		MonedaDePago:    domain.CurrencyARS,
		CuentaCorriente: domain.CuentaARS,
		TipoDeCambio:    "1000",
	}

	created, err := uc.Create(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, domain.MonetarySnapshot{ARS: -100000, USDOficial: -100, USDBlue: -100}, created.MontoTotal)

	stored, err := uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.MontoTotal, stored.MontoTotal)
	assert.True(t, stored.TipoDeCambio.Equal(created.TipoDeCambio))

	// Saving the same form again changes nothing.
	_, err = uc.Update(ctx, created.ID, form)
	require.ErrorIs(t, err, domain.ErrNoChanges)

	// Without a typed rate the stored one stays in effect.
	form.TipoDeCambio = ""
	form.DescuentoPercent = "10"
	updated, err := uc.Update(ctx, created.ID, form)
	require.NoError(t, err)
	assert.Equal(t, domain.MonetarySnapshot{ARS: -90000, USDOficial: -90, USDBlue: -90}, updated.MontoTotal)

	stored, err = uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.MontoTotal, stored.MontoTotal)
	assert.Equal(t, created.SubTotal, stored.SubTotal)
	assert.Equal(t, int64(10), domain.PercentFromFactor(stored.DescuentoAplicado))

	views, err := uc.List(ctx, usecase.ListInput{Cliente: "garc", ViewAs: domain.CuentaUSDBlue})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(-90), views[0].Projection.Monto)

	require.NoError(t, uc.Delete(ctx, created.ID))
	_, err = uc.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrMovementNotFound)

	events, err := postgres.NewOutboxRepository(pool).GetUnpublished(ctx, 10)
	require.NoError(t, err)

	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
		assert.Equal(t, created.ID, e.AggregateID)
	}
	assert.Equal(t, []string{
		domain.EventTypeMovementCreated,
		domain.EventTypeMovementUpdated,
		domain.EventTypeMovementDeleted,
	}, types)
}

func TestOutboxMarkPublished(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	uc := newIntegrationUseCase(pool)

	_, err := uc.Create(ctx, usecase.FormInput{
		Cliente:         "Lopez",
		Kind:            domain.KindIngreso,
		MontoEnviado:    "50",
		MonedaDePago:    domain.CurrencyUSD,
		CuentaCorriente: domain.CuentaUSDBlue,
		TipoDeCambio:    "1200",
	})
	require.NoError(t, err)

	repo := postgres.NewOutboxRepository(pool)
	events, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkPublished(ctx, events[0].ID, time.Now().UTC()))

	events, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestConcurrentUpdatesLastWriteWins(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	uc := newIntegrationUseCase(pool)

	base := usecase.FormInput{
		Cliente:         "Perez",
		Kind:            domain.KindIngreso,
		MontoEnviado:    "1000",
		MonedaDePago:    domain.CurrencyARS,
		CuentaCorriente: domain.CuentaARS,
		TipoDeCambio:    "1000",
	}
	created, err := uc.Create(ctx, base)
	require.NoError(t, err)

	errs := make(chan error, 2)
	for _, pct := range []string{"5", "20"} {
		form := base
		form.DescuentoPercent = pct
		go func() {
			_, err := uc.Update(ctx, created.ID, form)
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && !errors.Is(err, domain.ErrNoChanges) {
			t.Fatalf("unexpected update error: %v", err)
		}
	}

	stored, err := uc.Get(ctx, created.ID)
	require.NoError(t, err)
	pct := domain.PercentFromFactor(stored.DescuentoAplicado)
	assert.Contains(t, []int64{5, 20}, pct)
	assert.Equal(t, domain.Round(stored.DescuentoAplicado.Mul(decimal.NewFromInt(1000))), stored.MontoTotal.ARS)
}
