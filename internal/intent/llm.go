package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
)

const llmPrompt = `Classify the intent of the user's utterance in a spoken English practice chat.

Answer with exactly one of these labels and nothing else:
greeting    - the user says hello
ask_health  - the user asks how the assistant is doing
goodbye     - the user ends the conversation
general     - anything else`

// LLM asks a language model for the label. Replies that name no known label
// are classified as [General].
type LLM struct {
	llm      llm.Provider
	fallback Classifier
}

var _ Classifier = (*LLM)(nil)

// LLMOption configures an [LLM] classifier.
type LLMOption func(*LLM)

// WithFallback answers with c when the provider call fails instead of
// returning the error.
func WithFallback(c Classifier) LLMOption {
	return func(l *LLM) { l.fallback = c }
}

// NewLLM returns an LLM classifier backed by provider.
func NewLLM(provider llm.Provider, opts ...LLMOption) *LLM {
	l := &LLM{llm: provider}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Predict implements [Classifier].
func (l *LLM) Predict(ctx context.Context, text string) (Label, error) {
	if strings.TrimSpace(text) == "" {
		return General, nil
	}
	resp, err := l.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: llmPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
		MaxTokens:    8,
	})
	if err != nil {
		if l.fallback != nil {
			observe.Logger(ctx).Warn("intent: llm failed, using fallback classifier", "err", err)
			return l.fallback.Predict(ctx, text)
		}
		return "", fmt.Errorf("intent: complete: %w", err)
	}
	return parseReply(resp.Content), nil
}

// parseReply takes the first word of the reply, stripped of quotes and
// punctuation, as the label.
func parseReply(s string) Label {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return General
	}
	word := strings.Trim(fields[0], "\"'`.,:;!*")
	if l, err := ParseLabel(word); err == nil {
		return l
	}
	return General
}
