// Package resilience wraps calls to external services in circuit breakers so
// a failing dependency is short-circuited instead of tying up request
// handlers. Calls are never retried.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/edgard/weatherscent/internal/metrics"
)

var (
	// ErrCircuitOpen indicates the circuit breaker rejected the call.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of CircuitState
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF-OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for circuit breakers
type CircuitBreakerConfig struct {
	Name          string
	MaxFailures   int
	Timeout       time.Duration // per-call timeout applied when ctx has no deadline
	HalfOpenLimit int
	ResetInterval time.Duration // how long the breaker stays open
	Logger        *slog.Logger
}

// CircuitBreaker runs operations returning T through a gobreaker breaker.
type CircuitBreaker[T any] struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[T]
}

func mapState(state gobreaker.State) CircuitState {
	switch state {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

// NewCircuitBreaker creates a circuit breaker that opens after MaxFailures
// consecutive failures.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *CircuitBreaker[T] {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = 60 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "circuit_breaker", "name", cfg.Name)

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(float64(StateClosed))

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenLimit), //nolint:gosec // small positive config value
		Interval:    cfg.ResetInterval,
		Timeout:     cfg.ResetInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures) //nolint:gosec // small positive config value
		},
		IsSuccessful: func(err error) bool {
			// Cancellation by the caller says nothing about the dependency.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromState := mapState(from)
			toState := mapState(to)
			log.Warn("Circuit breaker state changed", "from", fromState, "to", toState)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromState.String(), toState.String()).Inc()
		},
	}

	return &CircuitBreaker[T]{
		name:    cfg.Name,
		timeout: cfg.Timeout,
		cb:      gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Name returns the breaker name.
func (cb *CircuitBreaker[T]) Name() string {
	return cb.name
}

// State returns the current breaker state.
func (cb *CircuitBreaker[T]) State() CircuitState {
	return mapState(cb.cb.State())
}

// Execute runs operation through the circuit breaker. A timeout is applied
// when ctx carries no deadline. Rejections are reported as ErrCircuitOpen.
func (cb *CircuitBreaker[T]) Execute(ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	result, err := cb.cb.Execute(func() (T, error) {
		res, err := operation(ctx)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return res, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return result, fmt.Errorf("%s: %w", cb.name, ErrCircuitOpen)
	}
	return result, err
}
