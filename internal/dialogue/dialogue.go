// Package dialogue produces the assistant's reply to a learner's utterance.
//
// A Generator sees the conversation so far as an ordered slice of turns
// owned by the caller. Generators keep no per-session state.
package dialogue

import (
	"context"

	"github.com/MrWong99/lingoxa/internal/intent"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	User   Speaker = "User"
	System Speaker = "System"
)

// Turn is one line of the conversation.
type Turn struct {
	Speaker Speaker
	Text    string

	// Intent is the classified intent of a user turn. It is empty for
	// system turns.
	Intent intent.Label
}

// Generator returns the next system reply. The last turn of history is the
// utterance being answered.
type Generator interface {
	Generate(ctx context.Context, history []Turn) (string, error)
}

// lastUser returns the most recent user turn in history.
func lastUser(history []Turn) (Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Speaker == User {
			return history[i], true
		}
	}
	return Turn{}, false
}
