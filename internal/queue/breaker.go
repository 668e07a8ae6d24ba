package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/logging"
)

// BreakerPublisher stops calling a failing backend after a run of consecutive
// errors and fails fast with ErrUnavailable until the breaker half-opens.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerPublisher wraps next with a circuit breaker
func NewBreakerPublisher(next Publisher, cfg config.BreakerConfig, logger *logging.Logger) *BreakerPublisher {
	if logger == nil {
		logger = logging.Global()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "queue-publish",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// A cancelled caller says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerPublisher{next: next, cb: cb}
}

// Publish publishes through the breaker
func (p *BreakerPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, subject, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// State returns the breaker state: closed, half-open or open
func (p *BreakerPublisher) State() string {
	return p.cb.State().String()
}

// Close closes the wrapped publisher
func (p *BreakerPublisher) Close() error {
	return p.next.Close()
}
