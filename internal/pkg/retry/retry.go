// Package retry wraps storage operations with bounded exponential backoff.
// Validation, not-found and access-denied failures are terminal and propagate
// immediately; everything else is retried and escalates to a RetryExhausted
// error once the attempt budget is spent.
package retry

import (
	"context"
	"errors"
	"time"

	"ai-tutoring-be/internal/pkg/apperror"
	"ai-tutoring-be/internal/pkg/logger"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"
)

type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseDelay:     1000 * time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      5000 * time.Millisecond,
	}
}

type Executor struct {
	cfg Config
	log logger.ILogger
}

func NewExecutor(cfg Config, log logger.ILogger) *Executor {
	if cfg.MaxAttempts < 1 {
		cfg = DefaultConfig()
	}
	return &Executor{cfg: cfg, log: log}
}

// Do runs fn up to MaxAttempts times. The backoff schedule is deterministic:
// min(MaxDelay, BaseDelay * BackoffFactor^(attempt-1)).
func (e *Executor) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.BaseDelay
	b.Multiplier = e.cfg.BackoffFactor
	b.MaxInterval = e.cfg.MaxDelay
	b.RandomizationFactor = 0

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := fn(ctx); err != nil {
			if IsTerminal(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			if e.log != nil {
				e.log.Warn("Retry", "operation attempt failed", map[string]interface{}{
					"operation": operation,
					"attempt":   attempt,
					"error":     err.Error(),
				})
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(e.cfg.MaxAttempts)))

	if err == nil {
		return nil
	}
	if IsTerminal(err) {
		return err
	}
	if e.log != nil {
		e.log.Error("Retry", "operation exhausted all attempts", map[string]interface{}{
			"operation": operation,
			"attempts":  attempt,
			"error":     err.Error(),
		})
	}
	return apperror.RetryExhausted(operation, err)
}

// IsTerminal reports errors that must never be retried: domain errors with a
// terminal kind, raw record-not-found from the storage engine, and caller
// cancellation/deadline.
func IsTerminal(err error) bool {
	if apperror.IsTerminal(err) {
		return true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
