package infer

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [breaker.execute] when the breaker is open
// and the reset timeout has not yet elapsed.
var ErrBreakerOpen = errors.New("infer: circuit breaker is open")

// breakerState is the breaker's operating mode.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker is a three-state circuit breaker guarding the inference endpoint.
// Consecutive transport failures open it; after resetTimeout a single probe
// call is let through, closing the breaker on success and re-opening it on
// failure. Safe for concurrent use.
type breaker struct {
	maxFailures  int
	resetTimeout time.Duration

	mu              sync.Mutex
	state           breakerState
	consecutiveFail int
	lastFailure     time.Time
	probing         bool
}

func newBreaker(maxFailures int, resetTimeout time.Duration) *breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

// execute runs fn if the breaker allows it, recording the outcome.
func (b *breaker) execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case breakerOpen:
		if time.Since(b.lastFailure) < b.resetTimeout {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.state = breakerHalfOpen
		b.probing = false
		slog.Info("infer: circuit breaker half-open, probing endpoint")
		fallthrough
	case breakerHalfOpen:
		if b.probing {
			// Another probe is already in flight.
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.probing = true
	}
	inHalfOpen := b.state == breakerHalfOpen
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if inHalfOpen {
		b.probing = false
	}
	if err != nil {
		b.consecutiveFail++
		b.lastFailure = time.Now()
		if inHalfOpen || b.consecutiveFail >= b.maxFailures {
			if b.state != breakerOpen {
				slog.Warn("infer: circuit breaker opened",
					"consecutive_failures", b.consecutiveFail)
			}
			b.state = breakerOpen
		}
		return err
	}

	if b.state != breakerClosed {
		slog.Info("infer: circuit breaker closed")
	}
	b.state = breakerClosed
	b.consecutiveFail = 0
	return nil
}
