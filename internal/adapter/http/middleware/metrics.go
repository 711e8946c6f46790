package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuentas_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuentas_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cuentas_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	httpIdempotentReplays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuentas_http_idempotent_replays_total",
			Help: "Responses replayed from the idempotency store",
		},
		[]string{"route"},
	)
)

// Metrics records request counts, latency and idempotent replays per route.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routeLabel(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())

		if wrapped.Header().Get(IdempotencyReplayHeader) == "true" {
			httpIdempotentReplays.WithLabelValues(route).Inc()
		}
	})
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabel uses the matched chi pattern, read after routing has run.
// Unrouted requests fall back to normalizePath.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces the movement id so paths stay low-cardinality.
// /api/v1/movimientos/01ABC123 -> /api/v1/movimientos/:id
func normalizePath(path string) string {
	const prefix = "/api/v1/movimientos/"

	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
		return path
	}

	rest := path[len(prefix):]
	id, suffix, _ := strings.Cut(rest, "/")
	if id == "preview" {
		return path
	}
	if suffix != "" {
		suffix = "/" + suffix
	}

	return prefix + ":id" + suffix
}
