// Package lexicon provides an offline G2P generator backed by a pronunciation
// dictionary.
//
// Known words are answered with their canonical dictionary pronunciation, so
// on its own this generator never reports a divergence for an in-vocabulary
// word. It is meant as the last member of a fallback chain and as the default
// when no generator is configured.
package lexicon

import (
	"context"
	"fmt"

	"github.com/MrWong99/lingoxa/pkg/dictionary"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

var _ g2p.Generator = (*Generator)(nil)

// Generator implements g2p.Generator over a dictionary.
type Generator struct {
	dict *dictionary.Dictionary
}

// New returns a Generator over d.
func New(d *dictionary.Dictionary) *Generator {
	return &Generator{dict: d}
}

// Phonemize implements g2p.Generator.
func (g *Generator) Phonemize(_ context.Context, word string) ([]string, error) {
	if v := g.dict.Lookup(word); len(v) > 0 {
		return v[0], nil
	}
	return nil, fmt.Errorf("g2p/lexicon: %q: %w", word, g2p.ErrNoPhonemes)
}
