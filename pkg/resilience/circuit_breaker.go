// Package resilience защищает обращения к внешней инфраструктуре (Redis)
// автоматическим выключателем: после серии сбоев вызовы отклоняются сразу,
// пока не истечет Timeout.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen - circuit breaker открыт, вызов не выполнялся
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State - состояние Circuit Breaker
type State int

const (
	StateClosed   State = iota // нормальная работа
	StateHalfOpen              // пробные вызовы после Timeout
	StateOpen                  // вызовы отклоняются
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Config - конфигурация Circuit Breaker
type Config struct {
	Name             string        // для логов
	MaxFailures      uint32        // последовательных ошибок для открытия
	Timeout          time.Duration // время в Open до перехода в Half-Open
	SuccessThreshold uint32        // успешных вызовов в Half-Open для закрытия

	// OnStateChange вызывается синхронно после смены состояния, вне блокировки
	OnStateChange func(name string, from, to State)
}

// DefaultConfig - конфигурация по умолчанию для обращений к Redis
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxFailures:      3,
		Timeout:          30 * time.Second,
		SuccessThreshold: 1,
	}
}

// Validate - валидация конфигурации
func (c *Config) Validate() error {
	if c.MaxFailures == 0 {
		return fmt.Errorf("MaxFailures must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("Timeout must be greater than 0")
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 1
	}
	if c.Name == "" {
		c.Name = "circuit-breaker"
	}
	return nil
}

// CircuitBreaker безопасен для параллельного использования
type CircuitBreaker struct {
	config Config

	mu         sync.Mutex
	state      State
	generation uint64 // меняется при каждой смене состояния
	failures   uint32 // последовательные ошибки
	successes  uint32 // последовательные успехи в Half-Open
	expiry     time.Time
}

// New - создать новый Circuit Breaker
func New(config Config) (*CircuitBreaker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit breaker config: %w", err)
	}
	return &CircuitBreaker{config: config}, nil
}

// Execute выполняет fn, если выключатель не открыт. Ошибка fn засчитывается
// как сбой; ошибка отмены контекста вызывающим - нет.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = fn(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	cb.afterRequest(generation, err == nil)
	return err
}

// State - текущее состояние; истекший Open отображается как Half-Open
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && !time.Now().Before(cb.expiry) {
		return StateHalfOpen
	}
	return cb.state
}

// Name - имя Circuit Breaker
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

func (cb *CircuitBreaker) String() string {
	return fmt.Sprintf("CircuitBreaker(%s state=%s)", cb.config.Name, cb.State())
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	var from State
	changed := false
	if cb.state == StateOpen && !time.Now().Before(cb.expiry) {
		from, changed = cb.state, true
		cb.setStateLocked(StateHalfOpen)
	}
	state, generation := cb.state, cb.generation
	cb.mu.Unlock()

	if changed {
		cb.notify(from, StateHalfOpen)
	}
	if state == StateOpen {
		return generation, ErrCircuitOpen
	}
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(generation uint64, success bool) {
	cb.mu.Lock()
	if generation != cb.generation {
		// результат относится к предыдущему состоянию
		cb.mu.Unlock()
		return
	}

	from := cb.state
	if success {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.setStateLocked(StateClosed)
			}
		}
	} else {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.MaxFailures {
			cb.setStateLocked(StateOpen)
		}
	}
	to := cb.state
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

// setStateLocked меняет состояние; cb.mu должен быть захвачен
func (cb *CircuitBreaker) setStateLocked(to State) {
	cb.state = to
	cb.generation++
	cb.failures = 0
	cb.successes = 0
	if to == StateOpen {
		cb.expiry = time.Now().Add(cb.config.Timeout)
	}
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
