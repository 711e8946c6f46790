package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Movement metrics
	MovementsCreated *prometheus.CounterVec
	MovementsUpdated *prometheus.CounterVec
	MovementsDeleted prometheus.Counter
	NoOpSaves        prometheus.Counter
	SaveDuration     prometheus.Histogram

	// Exchange rate metrics
	RateLookups    *prometheus.CounterVec
	QuoteLookups   *prometheus.CounterVec
	ProviderErrors prometheus.Counter
	QuoteDuration  prometheus.Histogram

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailed    prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Redis metrics
	RedisErrors *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		MovementsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuentas_movimientos_created_total",
				Help: "Total number of movements created",
			},
			[]string{"kind", "cuenta_corriente"},
		),
		MovementsUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuentas_movimientos_updated_total",
				Help: "Total number of movements updated",
			},
			[]string{"kind", "cuenta_corriente"},
		),
		MovementsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cuentas_movimientos_deleted_total",
			Help: "Total number of movements deleted",
		}),
		NoOpSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cuentas_movimientos_noop_saves_total",
			Help: "Saves rejected because nothing changed",
		}),
		SaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cuentas_movimiento_save_duration_seconds",
			Help:    "Duration of movement save transactions",
			Buckets: prometheus.DefBuckets,
		}),

		RateLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuentas_rate_lookups_total",
				Help: "Exchange rate resolutions by source",
			},
			[]string{"source"},
		),
		QuoteLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuentas_quote_lookups_total",
				Help: "Quotes served by source, cache or provider",
			},
			[]string{"source"},
		),
		ProviderErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cuentas_rate_provider_errors_total",
			Help: "Failed calls to the exchange rate provider",
		}),
		QuoteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cuentas_rate_provider_duration_seconds",
			Help:    "Duration of exchange rate provider calls",
			Buckets: prometheus.DefBuckets,
		}),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cuentas_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cuentas_outbox_failed_total",
			Help: "Outbox events that failed to publish",
		}),

		DBRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuentas_db_retries_total",
				Help: "Transactions retried after a transient database error",
			},
			[]string{"sqlstate"},
		),

		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuentas_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
