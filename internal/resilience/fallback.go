package resilience

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MrWong99/lingoxa/internal/observe"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] fails or has an
// open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures a [FallbackGroup] and the circuit breaker created
// for each of its entries.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig

	// Kind labels provider error metrics (e.g. "stt", "g2p").
	Kind string

	// Metrics, if set, receives one provider error per failed attempt.
	Metrics *observe.Metrics

	// TryNext reports whether an error that the breaker ignores should
	// still move on to the next entry. By default ignored errors are returned
	// to the caller immediately.
	TryNext func(error) bool
}

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup wraps a primary and zero or more fallback instances of the same
// provider type. When the primary fails (or its circuit breaker is open), the
// next healthy fallback is tried in registration order. Fallbacks must be
// added before the group is shared between goroutines.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a fallback provider, tried after every earlier entry.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   fallback,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Names returns the entry names in the order they are tried.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, len(fg.entries))
	for i, e := range fg.entries {
		names[i] = e.name
	}
	return names
}

// Execute tries fn against each entry in order until one succeeds.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(context.Context, T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(ctx context.Context, v T) (struct{}, error) {
		return struct{}{}, fn(ctx, v)
	})
	return err
}

// ExecuteWithResult tries fn against each entry in the group until one
// succeeds. Entries with an open breaker are skipped. Failover stops as soon
// as ctx is done. When every entry fails the error wraps [ErrAllFailed] and
// each entry's error. The call runs in a span recording the entry that
// answered and how many were tried.
func ExecuteWithResult[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(context.Context, T) (R, error)) (_ R, err error) {
	var (
		zero     R
		errs     []error
		attempts int
	)
	ctx, span := observe.StartSpan(ctx, "provider."+fg.cfg.Kind)
	defer func() {
		span.SetAttributes(attribute.Int("provider.attempts", attempts))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "provider failed")
		}
		span.End()
	}()
	log := observe.Logger(ctx)
	for i := range fg.entries {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("resilience: %s: %w", fg.cfg.Kind, err)
		}
		entry := &fg.entries[i]
		attempts++
		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(ctx, entry.value)
			return innerErr
		})
		if err == nil {
			span.SetAttributes(attribute.String("provider.name", entry.name))
			return result, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))

		switch {
		case errors.Is(err, ErrCircuitOpen):
			log.Debug("skipping provider (circuit open)", "kind", fg.cfg.Kind, "provider", entry.name)
			continue
		case entry.breaker.ignored(err):
			if fg.cfg.TryNext == nil || !fg.cfg.TryNext(err) {
				return zero, err
			}
			log.Debug("provider had no answer, trying next", "kind", fg.cfg.Kind, "provider", entry.name, "err", err)
			continue
		}
		if fg.cfg.Metrics != nil {
			fg.cfg.Metrics.RecordProviderError(ctx, entry.name, fg.cfg.Kind)
		}
		log.Warn("provider failed, trying next", "kind", fg.cfg.Kind, "provider", entry.name, "err", err)
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}
