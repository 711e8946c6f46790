package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/celulandia/cuentas/internal/adapter/http/handler"
	apimiddleware "github.com/celulandia/cuentas/internal/adapter/http/middleware"
	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"cliente":"Juan","kind":"ingreso","montoEnviado":"100","monedaDePago":"ARS","cuentaCorriente":"ARS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movimientos/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checkCalled || !store.updateCalled {
		t.Fatalf("expected idempotency store to be used, got %+v", store)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /api/v1/cotizaciones/actual",
		"POST /api/v1/cotizaciones/refresh",
		"POST /api/v1/movimientos/preview",
		"POST /api/v1/movimientos/",
		"GET /api/v1/movimientos/",
		"GET /api/v1/movimientos/{id}",
		"PATCH /api/v1/movimientos/{id}",
		"DELETE /api/v1/movimientos/{id}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:   handler.NewHealthHandler(nil, nil),
		MovementHandler: handler.NewMovementHandler(stubMovementService{}),
		QuoteHandler:    handler.NewQuoteHandler(stubQuoteService{}),
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubMovementService struct{}

func (stubMovementService) Preview(ctx context.Context, input usecase.FormInput) (*domain.Totals, error) {
	return &domain.Totals{}, nil
}

func (stubMovementService) Create(ctx context.Context, input usecase.FormInput) (*domain.Movement, error) {
	return &domain.Movement{ID: "mov", Cliente: input.Cliente, CuentaCorriente: input.CuentaCorriente}, nil
}

func (stubMovementService) Update(ctx context.Context, id string, input usecase.FormInput) (*domain.Movement, error) {
	return nil, domain.ErrNoChanges
}

func (stubMovementService) Get(ctx context.Context, id string) (*domain.Movement, error) {
	return &domain.Movement{ID: id}, nil
}

func (stubMovementService) List(ctx context.Context, input usecase.ListInput) ([]usecase.MovementView, error) {
	return []usecase.MovementView{}, nil
}

func (stubMovementService) Delete(ctx context.Context, id string) error {
	return nil
}

type stubQuoteService struct{}

func (stubQuoteService) Current(ctx context.Context) (*domain.ExchangeRateQuote, error) {
	return &domain.ExchangeRateQuote{}, nil
}

func (stubQuoteService) Invalidate(ctx context.Context) error {
	return nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
