package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultQuoteCacheTTL is used when the exchange-rate use case is built without a TTL
	DefaultQuoteCacheTTL = 5 * time.Minute

	// DefaultQuoteFetchTimeout bounds a shared provider call
	DefaultQuoteFetchTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	quoteCacheKey = "cotizacion:actual"
)

// Rate sources reported to metrics. Manual, stored, provider and fallback label
// movement rate resolutions. Cache and provider label served quotes.
const (
	RateSourceManual   = "manual"
	RateSourceStored   = "stored"
	RateSourceCache    = "cache"
	RateSourceProvider = "provider"
	RateSourceFallback = "fallback"
)
