// Package retry повторяет обращения к внешней инфраструктуре с
// экспоненциальной задержкой.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryableFunc - функция которую можно retry
type RetryableFunc func(ctx context.Context) error

// Config содержит конфигурацию повторов
type Config struct {
	MaxAttempts  int           // включая первую попытку, >= 1
	InitialDelay time.Duration // задержка перед первым повтором
	MaxDelay     time.Duration // верхняя граница задержки
	Multiplier   float64       // рост задержки, обычно 2.0
	Jitter       float64       // 0.0 - 1.0, доля случайного отклонения задержки

	// OnRetry вызывается перед каждым повтором
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig - три попытки: сразу, через 200ms, через 400ms
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MaxAttempts must be at least 1")
	}
	if c.InitialDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.Multiplier < 1 {
		c.Multiplier = 1
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("Jitter must be between 0.0 and 1.0")
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = c.InitialDelay
	}
	return nil
}

// permanentError - ошибка, повтор которой бессмыслен
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как не требующую повтора
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retryer выполняет retry логику
type Retryer struct {
	config Config
}

// NewRetryer создает новый Retryer
func NewRetryer(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Retryer{config: config}, nil
}

// Do выполняет fn до успеха, permanent-ошибки, исчерпания попыток или
// отмены контекста.
func (r *Retryer) Do(ctx context.Context, fn RetryableFunc) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= r.config.MaxAttempts {
			if attempt == 1 {
				return err
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, err)
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", errors.Join(ctx.Err(), err))
		}
	}
}

// delay: initial * multiplier^(attempt-1), не больше MaxDelay, с jitter
func (r *Retryer) delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if limit := float64(r.config.MaxDelay); d > limit {
		d = limit
	}
	if r.config.Jitter > 0 {
		d += d * r.config.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}
