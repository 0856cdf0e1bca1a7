// Package intent labels a learner's utterance with the conversational move it
// makes. The label only steers the dialogue; a goodbye ends the session and
// triggers the summary.
package intent

import (
	"context"
	"fmt"
	"strings"
)

// Label is the intent of one utterance.
type Label string

const (
	Greeting  Label = "greeting"
	AskHealth Label = "ask_health"
	Goodbye   Label = "goodbye"
	General   Label = "general"
)

// Labels lists every label in precedence order: when an utterance carries
// several intents, the earliest one wins.
var Labels = []Label{Goodbye, AskHealth, Greeting, General}

// Classifier predicts the intent of an utterance. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Predict(ctx context.Context, text string) (Label, error)
}

// ParseLabel maps s to a Label, ignoring case and surrounding space.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Labels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("intent: unknown label %q", s)
}
