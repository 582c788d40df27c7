package db

import (
	"context"
	"sync/atomic"
	"time"

	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/observability/metrics"
)

// DBCircuitBreaker rejects calls once threshold consecutive failures have
// been seen, until resetAfter has elapsed since the last one.
type DBCircuitBreaker struct {
	name        string
	failures    atomic.Int32
	lastFailure atomic.Value
	threshold   int32
	timeout     time.Duration
	resetAfter  time.Duration
	now         func() time.Time
	log         *logger.Logger
}

func NewDBCircuitBreaker(name string, threshold int32, timeout, resetAfter time.Duration, log *logger.Logger) *DBCircuitBreaker {
	cb := &DBCircuitBreaker{
		name:       name,
		threshold:  threshold,
		timeout:    timeout,
		resetAfter: resetAfter,
		now:        time.Now,
		log:        log,
	}
	cb.lastFailure.Store(time.Time{})
	return cb
}

func (cb *DBCircuitBreaker) isOpen() bool {
	if cb.failures.Load() < cb.threshold {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(0)
		return false
	}

	lastFailure := cb.lastFailure.Load().(time.Time)
	if lastFailure.IsZero() {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(0)
		return false
	}

	if cb.now().Sub(lastFailure) > cb.resetAfter {
		cb.reset()
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(0)
		return false
	}

	metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(1)
	return true
}

func (cb *DBCircuitBreaker) recordFailure() {
	cb.failures.Add(1)
	cb.lastFailure.Store(cb.now())
	metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	cb.log.Warnf("%s circuit breaker: failure recorded", cb.name)
}

func (cb *DBCircuitBreaker) reset() {
	cb.failures.Store(0)
	cb.lastFailure.Store(time.Time{})
}

// Call runs fn with a per-call timeout. Errors for which countsAsFailure
// returns false pass through without tripping the breaker.
func (cb *DBCircuitBreaker) Call(ctx context.Context, fn func(context.Context) error, countsAsFailure func(error) bool) error {
	if cb.isOpen() {
		cb.log.Warnf("%s circuit breaker: circuit is open, rejecting request", cb.name)
		return commonerrors.ErrCircuitOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, cb.timeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && (countsAsFailure == nil || countsAsFailure(err)) {
		cb.recordFailure()
		return err
	}

	if err == nil {
		cb.reset()
	}
	return err
}
