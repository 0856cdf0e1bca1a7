package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/lingoxa/pkg/provider/llm"
)

const (
	DefaultHistoryTurns = 6

	DefaultSystemPrompt = `You are a patient, friendly conversation partner for someone practising spoken English.
Continue the dialogue below with one or two short sentences as "System".
Keep the vocabulary simple and end with a question that keeps the learner talking.`

	defaultTemperature = 0.7
	defaultMaxTokens   = 128
)

// ErrEmptyReply is returned when the model produced no text.
var ErrEmptyReply = errors.New("dialogue: empty reply")

// LLM continues the conversation with a language model. Only the most recent
// turns are sent, rendered as a "User:"/"System:" transcript ending in an
// open "System:" line.
type LLM struct {
	llm          llm.Provider
	turns        int
	systemPrompt string
	temperature  float64
	tokenBudget  int
}

var _ Generator = (*LLM)(nil)

// LLMOption configures an [LLM] generator.
type LLMOption func(*LLM)

// WithHistoryTurns limits the transcript to the last n turns. Values below 1
// are ignored. Default: [DefaultHistoryTurns].
func WithHistoryTurns(n int) LLMOption {
	return func(l *LLM) {
		if n > 0 {
			l.turns = n
		}
	}
}

// WithSystemPrompt replaces [DefaultSystemPrompt].
func WithSystemPrompt(p string) LLMOption {
	return func(l *LLM) {
		if p != "" {
			l.systemPrompt = p
		}
	}
}

// WithTokenBudget drops the oldest turns until the prompt fits into n tokens
// as estimated by the provider's CountTokens. The newest turn is always sent.
func WithTokenBudget(n int) LLMOption {
	return func(l *LLM) { l.tokenBudget = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LLMOption {
	return func(l *LLM) { l.temperature = t }
}

// NewLLM returns an LLM generator backed by provider.
func NewLLM(provider llm.Provider, opts ...LLMOption) *LLM {
	l := &LLM{
		llm:          provider,
		turns:        DefaultHistoryTurns,
		systemPrompt: DefaultSystemPrompt,
		temperature:  defaultTemperature,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Generate implements [Generator].
func (l *LLM) Generate(ctx context.Context, history []Turn) (string, error) {
	msgs, err := l.prompt(history)
	if err != nil {
		return "", err
	}
	resp, err := l.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: l.systemPrompt,
		Messages:     msgs,
		Temperature:  l.temperature,
		MaxTokens:    defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("dialogue: complete: %w", err)
	}
	reply := cleanReply(resp.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// prompt renders the transcript message, shrinking the turn window while it
// exceeds the token budget.
func (l *LLM) prompt(history []Turn) ([]llm.Message, error) {
	n := min(l.turns, len(history))
	for {
		msgs := []llm.Message{
			{Role: llm.RoleSystem, Content: l.systemPrompt},
			{Role: llm.RoleUser, Content: Transcript(history, n)},
		}
		if l.tokenBudget <= 0 || n <= 1 {
			return msgs[1:], nil
		}
		count, err := l.llm.CountTokens(msgs)
		if err != nil {
			return nil, fmt.Errorf("dialogue: count tokens: %w", err)
		}
		if count <= l.tokenBudget {
			return msgs[1:], nil
		}
		n--
	}
}

// Transcript renders the last n turns of history as "Speaker: text" lines
// followed by an open "System:" prompt. n <= 0 renders every turn.
func Transcript(history []Turn, n int) string {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Text)
	}
	b.WriteString(string(System) + ":")
	return b.String()
}

// cleanReply drops a speaker prefix the model may echo and anything after
// it starts writing the learner's next line.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, string(System)+":"))
	if i := strings.Index(s, "\n"+string(User)+":"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
