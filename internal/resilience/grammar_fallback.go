package resilience

import (
	"context"

	"github.com/MrWong99/lingoxa/internal/grammar"
)

// GrammarFallback implements [grammar.Checker] with failover across several
// checkers, such as a LanguageTool server backed by an LLM checker.
type GrammarFallback struct {
	group *FallbackGroup[grammar.Checker]
}

var _ grammar.Checker = (*GrammarFallback)(nil)

// NewGrammarFallback creates a [GrammarFallback] with primary as the preferred
// checker.
func NewGrammarFallback(primary grammar.Checker, primaryName string, cfg FallbackConfig) *GrammarFallback {
	if cfg.Kind == "" {
		cfg.Kind = "grammar"
	}
	return &GrammarFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional checker.
func (f *GrammarFallback) AddFallback(name string, c grammar.Checker) {
	f.group.AddFallback(name, c)
}

// Check runs the first healthy checker.
func (f *GrammarFallback) Check(ctx context.Context, text string) ([]grammar.Issue, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, c grammar.Checker) ([]grammar.Issue, error) {
		return c.Check(ctx, text)
	})
}
