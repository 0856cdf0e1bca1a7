// Package llmcheck asks a language model for grammar corrections. It needs
// no grammar server and copes with conversational, spoken-style input.
package llmcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
)

const defaultTemperature = 0.1

const systemPrompt = `You are a grammar checker for learners practising spoken English.

Find grammar mistakes in the user's utterance. Ignore capitalisation and punctuation,
because the utterance was transcribed from speech.

For each mistake report:
- "error_word": the exact wrong word or phrase as it appears in the utterance
- "suggestion": the corrected word or phrase
- "type": one of "verb", "article", "spelling", "other"

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{"issues": [{"error_word": "...", "suggestion": "...", "type": "..."}]}

If the utterance is correct, return {"issues": []}.`

var _ grammar.Checker = (*Checker)(nil)

// llmResponse is the expected JSON structure returned by the LLM.
type llmResponse struct {
	Issues []struct {
		ErrorWord  string `json:"error_word"`
		Suggestion string `json:"suggestion"`
		Type       string `json:"type"`
	} `json:"issues"`
}

// Option is a functional option for configuring a [Checker].
type Option func(*Checker)

// WithTemperature sets the LLM sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(c *Checker) {
		c.temperature = temp
	}
}

// Checker implements [grammar.Checker] with an [llm.Provider]. It is safe
// for concurrent use.
type Checker struct {
	llm         llm.Provider
	temperature float64
}

// New returns a Checker backed by provider.
func New(provider llm.Provider, opts ...Option) *Checker {
	c := &Checker{
		llm:         provider,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check implements [grammar.Checker]. Provider errors are returned; an
// unparseable reply yields no issues.
func (c *Checker) Check(ctx context.Context, text string) ([]grammar.Issue, error) {
	if strings.TrimSpace(text) == "" {
		return []grammar.Issue{}, nil
	}

	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Temperature:  c.temperature,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
		JSON:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm grammar: complete: %w", err)
	}

	issues, err := parseResponse(resp.Content, text)
	if err != nil {
		return []grammar.Issue{}, nil //nolint:nilerr // unparseable reply means no hints
	}
	return issues, nil
}

// parseResponse turns the model reply into issues. Entries whose error word
// does not occur in text, or whose suggestion only changes case, are
// dropped.
func parseResponse(content, text string) ([]grammar.Issue, error) {
	var r llmResponse
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &r); err != nil {
		return nil, fmt.Errorf("llm grammar: parse response: %w", err)
	}

	lower := strings.ToLower(text)
	issues := []grammar.Issue{}
	for _, i := range r.Issues {
		word := strings.TrimSpace(i.ErrorWord)
		sugg := strings.TrimSpace(i.Suggestion)
		if word == "" || sugg == "" || !strings.Contains(lower, strings.ToLower(word)) {
			continue
		}
		if grammar.Trivial(word, []string{sugg}) {
			continue
		}
		issues = append(issues, grammar.Issue{
			OriginalSentence: text,
			ErrorWord:        word,
			Suggestion:       sugg,
			Explanation:      grammar.Explain(i.Type),
		})
	}
	return issues, nil
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models wrap around JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
