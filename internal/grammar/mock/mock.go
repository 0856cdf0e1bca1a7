// Package mock provides a test double for [grammar.Checker].
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lingoxa/internal/grammar"
)

// Checker is a mock implementation of [grammar.Checker].
type Checker struct {
	mu sync.Mutex

	// Issues is returned by Check. Nil yields an empty slice.
	Issues []grammar.Issue

	// CheckFunc, when set, takes precedence over Issues and Err.
	CheckFunc func(text string) ([]grammar.Issue, error)

	// Err, if non-nil, is returned by Check.
	Err error

	// Texts records every text passed to Check.
	Texts []string
}

var _ grammar.Checker = (*Checker)(nil)

// Check records the call and returns the configured result.
func (c *Checker) Check(_ context.Context, text string) ([]grammar.Issue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Texts = append(c.Texts, text)
	if c.CheckFunc != nil {
		return c.CheckFunc(text)
	}
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]grammar.Issue, len(c.Issues))
	copy(out, c.Issues)
	return out, nil
}

// Calls returns a copy of the recorded texts.
func (c *Checker) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Texts...)
}
