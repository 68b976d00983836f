package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ProviderGate protects the shared OCR provider: a global concurrency cap
// (excess callers queue on the semaphore rather than being dropped), a request
// rate limiter for the provider's quota, and a circuit breaker that fails fast
// while the provider is down. The gate never retries — failed extractions are
// retried only by explicit operator action.
type ProviderGate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	log     *slog.Logger
}

type GateConfig struct {
	MaxConcurrent  int64
	RequestsPerSec float64
	Burst          int
}

func NewProviderGate(cfg GateConfig, logger *slog.Logger) *ProviderGate {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.MaxConcurrent)
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:    "ocr-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &ProviderGate{
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		log:     logger,
	}
}

// Do runs fn under the concurrency cap, rate limit and breaker.
func (g *ProviderGate) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire provider slot: %w", err)
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("provider rate limit: %w", err)
	}

	_, err := g.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// IsCircuitOpen reports whether err came from a tripped breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
