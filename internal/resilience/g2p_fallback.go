package resilience

import (
	"context"
	"errors"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

// G2PFallback implements [g2p.Generator] with failover across several
// phonemizers. A generator that returns [g2p.ErrNoPhonemes] has answered
// correctly for a word it does not know: its breaker is left alone and the
// word is offered to the next generator.
type G2PFallback struct {
	group *FallbackGroup[g2p.Generator]
}

var _ g2p.Generator = (*G2PFallback)(nil)

// NewG2PFallback creates a [G2PFallback] with primary as the preferred generator.
func NewG2PFallback(primary g2p.Generator, primaryName string, cfg FallbackConfig) *G2PFallback {
	if cfg.Kind == "" {
		cfg.Kind = "g2p"
	}
	noPhonemes := func(err error) bool { return errors.Is(err, g2p.ErrNoPhonemes) }
	if ignore := cfg.CircuitBreaker.Ignore; ignore != nil {
		cfg.CircuitBreaker.Ignore = func(err error) bool { return noPhonemes(err) || ignore(err) }
	} else {
		cfg.CircuitBreaker.Ignore = noPhonemes
	}
	cfg.TryNext = noPhonemes
	return &G2PFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional generator as a fallback.
func (f *G2PFallback) AddFallback(name string, gen g2p.Generator) {
	f.group.AddFallback(name, gen)
}

// Phonemize returns the first phoneme sequence any healthy generator produces.
// When none knows the word the error still matches [g2p.ErrNoPhonemes].
func (f *G2PFallback) Phonemize(ctx context.Context, word string) ([]string, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, g g2p.Generator) ([]string, error) {
		return g.Phonemize(ctx, word)
	})
}
