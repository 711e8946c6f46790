package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/infrastructure/metrics"
)

// ExchangeRateUseCase serves the current quote from cache, falling back to the provider.
type ExchangeRateUseCase struct {
	provider ExchangeRateProvider
	cache    Cache
	ttl      time.Duration
	group    singleflight.Group
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewExchangeRateUseCase creates a new ExchangeRateUseCase. cache may be nil.
func NewExchangeRateUseCase(
	provider ExchangeRateProvider,
	cache Cache,
	ttl time.Duration,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ExchangeRateUseCase {
	if ttl <= 0 {
		ttl = DefaultQuoteCacheTTL
	}
	return &ExchangeRateUseCase{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With().Str("component", "exchange_rate_usecase").Logger(),
		metrics:  metrics,
	}
}

// Current returns the latest quote. Concurrent cache misses share one provider
// call, which runs detached from any single caller so one cancelled request does
// not fail the others.
func (uc *ExchangeRateUseCase) Current(ctx context.Context) (*domain.ExchangeRateQuote, error) {
	if quote, ok := uc.fromCache(ctx); ok {
		uc.countLookup(RateSourceCache)
		return quote, nil
	}

	ch := uc.group.DoChan(quoteCacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultQuoteFetchTimeout)
		defer cancel()

		start := time.Now()
		quote, err := uc.provider.Current(fetchCtx)
		if uc.metrics != nil {
			uc.metrics.QuoteDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			if uc.metrics != nil {
				uc.metrics.ProviderErrors.Inc()
			}
			return nil, err
		}
		uc.store(fetchCtx, quote)
		return quote, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, ctx.Err())
	}
	if res.Err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, res.Err)
	}

	uc.countLookup(RateSourceProvider)
	return res.Val.(*domain.ExchangeRateQuote), nil
}

// Invalidate drops the cached quote so the next call reaches the provider.
func (uc *ExchangeRateUseCase) Invalidate(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Delete(ctx, quoteCacheKey)
}

func (uc *ExchangeRateUseCase) fromCache(ctx context.Context) (*domain.ExchangeRateQuote, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, quoteCacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Msg("quote cache read failed")
		}
		return nil, false
	}

	var quote domain.ExchangeRateQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		uc.logger.Warn().Err(err).Msg("discarding malformed cached quote")
		return nil, false
	}

	return &quote, true
}

func (uc *ExchangeRateUseCase) store(ctx context.Context, quote *domain.ExchangeRateQuote) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(quote)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("quote encode failed")
		return
	}

	if err := uc.cache.Set(ctx, quoteCacheKey, data, uc.ttl); err != nil {
		uc.logger.Warn().Err(err).Msg("quote cache write failed")
	}
}

func (uc *ExchangeRateUseCase) countLookup(source string) {
	if uc.metrics != nil {
		uc.metrics.QuoteLookups.WithLabelValues(source).Inc()
	}
}
