// Package mock provides a test double for the dialogue.Generator interface.
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/lingoxa/internal/dialogue"
)

// Generator is a mock implementation of dialogue.Generator.
type Generator struct {
	mu    sync.Mutex
	calls [][]dialogue.Turn

	// Reply is returned from Generate.
	Reply string

	// Err, if non-nil, is returned from Generate.
	Err error
}

var _ dialogue.Generator = (*Generator)(nil)

// Generate records a copy of history and returns Reply, Err.
func (g *Generator) Generate(_ context.Context, history []dialogue.Turn) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, slices.Clone(history))
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// Calls returns the history passed to each Generate call, in order.
func (g *Generator) Calls() [][]dialogue.Turn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.calls)
}
