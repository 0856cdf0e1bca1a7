package dialogue

import (
	"context"

	"github.com/MrWong99/lingoxa/internal/intent"
)

// Canned replies of the [Template] generator.
const (
	ReplyGreeting  = "Hello! Let's have a conversation. Please talk about anything."
	ReplyAskHealth = "I am doing well! Please continue."
	ReplyGeneral   = "Interesting. Please tell me more about something else."
)

// Template answers with a fixed sentence chosen by the intent of the last
// user turn. A goodbye gets an empty reply; the caller replaces it with the
// session summary.
type Template struct{}

var _ Generator = Template{}

// Generate implements [Generator].
func (Template) Generate(_ context.Context, history []Turn) (string, error) {
	t, _ := lastUser(history)
	switch t.Intent {
	case intent.Greeting:
		return ReplyGreeting, nil
	case intent.AskHealth:
		return ReplyAskHealth, nil
	case intent.Goodbye:
		return "", nil
	default:
		return ReplyGeneral, nil
	}
}
