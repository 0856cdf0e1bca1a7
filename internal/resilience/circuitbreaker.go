// Package resilience provides circuit breaker and provider failover primitives.
//
// [CircuitBreaker] is a three-state breaker (closed, open, half-open).
// [FallbackGroup] puts a breaker in front of each of several providers of the
// same kind so that a failing primary is bypassed in favour of the next
// healthy fallback. The STT, TTS, LLM and G2P wrappers in this package plug a
// FallbackGroup behind the matching provider interface.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] when the breaker is in
// the open state and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the reset timeout
	// elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through. Enough
	// successes close the breaker; any failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// MaxFailures is the number of consecutive failures in the closed state
	// before the breaker opens. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before transitioning to
	// half-open. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of successful probes needed to close the
	// breaker again. Default: 3.
	HalfOpenMax int

	// Ignore reports errors that are passed through to the caller without
	// counting as a failure. Context cancellation is always ignored.
	Ignore func(error) bool

	// OnStateChange, if set, is called after every transition with the
	// breaker's lock released.
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker implements the three-state circuit breaker pattern.
// It is safe for concurrent use from multiple goroutines.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probes      int
	probeWins   int
	transitions []transition
}

type transition struct{ from, to State }

// NewCircuitBreaker creates a [CircuitBreaker] with the supplied configuration.
// Zero-value config fields are replaced with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: StateClosed}
}

// Name returns the configured name.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Execute runs fn if the breaker allows it. In the open state it returns
// [ErrCircuitOpen] without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	cb.mu.Lock()
	switch {
	case err == nil || cb.ignored(err):
		cb.success(probe)
	default:
		cb.failure(probe)
	}
	pending := cb.drain()
	cb.mu.Unlock()

	cb.notify(pending)
	return err
}

// admit decides whether a call may proceed and whether it is a half-open probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer func() {
		pending := cb.drain()
		cb.mu.Unlock()
		cb.notify(pending)
	}()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			return false, ErrCircuitOpen
		}
		cb.moveTo(StateHalfOpen)
	}
	if cb.state == StateHalfOpen {
		if cb.probes >= cb.cfg.HalfOpenMax {
			return false, ErrCircuitOpen
		}
		cb.probes++
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) ignored(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return cb.cfg.Ignore != nil && cb.cfg.Ignore(err)
}

// success records a successful call. cb.mu must be held.
func (cb *CircuitBreaker) success(probe bool) {
	if !probe || cb.state != StateHalfOpen {
		cb.failures = 0
		return
	}
	cb.probeWins++
	if cb.probeWins >= cb.cfg.HalfOpenMax {
		cb.moveTo(StateClosed)
	}
}

// failure records a failed call. cb.mu must be held.
func (cb *CircuitBreaker) failure(probe bool) {
	if probe && cb.state == StateHalfOpen {
		cb.moveTo(StateOpen)
		return
	}
	cb.failures++
	if cb.state == StateClosed && cb.failures >= cb.cfg.MaxFailures {
		cb.moveTo(StateOpen)
	}
}

// moveTo switches state and resets the counters of the new state. cb.mu must
// be held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateHalfOpen:
		cb.probes, cb.probeWins = 0, 0
	case StateClosed:
		cb.failures, cb.probes, cb.probeWins = 0, 0, 0
	}
	cb.transitions = append(cb.transitions, transition{from, to})

	level := slog.LevelInfo
	if to == StateOpen {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "circuit breaker state change",
		"name", cb.cfg.Name,
		"from", from.String(),
		"to", to.String(),
		"consecutive_failures", cb.failures,
	)
}

// drain returns and clears the transitions recorded under the lock.
func (cb *CircuitBreaker) drain() []transition {
	t := cb.transitions
	cb.transitions = nil
	return t
}

func (cb *CircuitBreaker) notify(ts []transition) {
	if cb.cfg.OnStateChange == nil {
		return
	}
	for _, t := range ts {
		cb.cfg.OnStateChange(cb.cfg.Name, t.from, t.to)
	}
}

// State returns the current [State] of the breaker. An open breaker whose
// reset timeout has elapsed reports [StateHalfOpen]; the transition itself
// happens on the next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed].
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.moveTo(StateClosed)
	cb.failures = 0
	pending := cb.drain()
	cb.mu.Unlock()
	cb.notify(pending)
}
