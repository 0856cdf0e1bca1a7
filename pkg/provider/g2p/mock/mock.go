// Package mock provides a test double for the g2p.Generator interface.
//
// Example:
//
//	g := &mock.Generator{Phonemes: map[string][]string{"think": {"S", "IH1", "NG", "K"}}}
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

// Generator is a mock implementation of g2p.Generator.
type Generator struct {
	mu sync.Mutex

	// Phonemes maps lower-case words to the sequence Phonemize returns.
	// Unknown words yield g2p.ErrNoPhonemes.
	Phonemes map[string][]string

	// Err, if non-nil, is returned for every call.
	Err error

	// Words records every word passed to Phonemize in call order.
	Words []string
}

var _ g2p.Generator = (*Generator)(nil)

// Phonemize records the call and returns the configured sequence.
func (g *Generator) Phonemize(_ context.Context, word string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Words = append(g.Words, word)
	if g.Err != nil {
		return nil, g.Err
	}
	p, ok := g.Phonemes[strings.ToLower(word)]
	if !ok {
		return nil, fmt.Errorf("g2p/mock: %q: %w", word, g2p.ErrNoPhonemes)
	}
	return append([]string(nil), p...), nil
}

// Calls returns a copy of the recorded words.
func (g *Generator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.Words...)
}
