// Package mock provides a test double for the intent.Classifier interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lingoxa/internal/intent"
)

// Classifier is a mock implementation of intent.Classifier.
type Classifier struct {
	mu    sync.Mutex
	texts []string

	// Label is returned when Labels has no entry for the text. The zero
	// value yields intent.General.
	Label intent.Label

	// Labels maps exact utterances to labels.
	Labels map[string]intent.Label

	// Err, if non-nil, is returned from Predict.
	Err error
}

var _ intent.Classifier = (*Classifier)(nil)

// Predict records text and returns the configured label.
func (c *Classifier) Predict(_ context.Context, text string) (intent.Label, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	if c.Err != nil {
		return "", c.Err
	}
	if l, ok := c.Labels[text]; ok {
		return l, nil
	}
	if c.Label == "" {
		return intent.General, nil
	}
	return c.Label, nil
}

// Texts returns a copy of every utterance passed to Predict, in order.
func (c *Classifier) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}
