// Package pattern classifies an utterance and counts its filler words.
package pattern

import (
	"strings"
	"unicode"
)

// Category is the coarse kind of an utterance.
type Category string

const (
	Greeting  Category = "greeting"
	Question  Category = "question"
	Statement Category = "statement"
)

// DefaultFillers are the filler words counted when none are configured.
var DefaultFillers = []string{"um", "uh", "like"}

// Result is the pattern analysis of one utterance. The JSON names match the
// persisted conversation record.
type Result struct {
	FillerCount int      `json:"filler_count"`
	Category    Category `json:"category"`
}

// Service analyses utterances. Implementations must be pure and safe for
// concurrent use.
type Service interface {
	Analyze(text string) Result
}

// Option is a functional option for [New].
type Option func(*Recognizer)

// WithFillers replaces [DefaultFillers]. Matching is case-insensitive.
func WithFillers(words ...string) Option {
	return func(r *Recognizer) {
		r.fillers = make(map[string]struct{}, len(words))
		for _, w := range words {
			r.fillers[strings.ToLower(w)] = struct{}{}
		}
	}
}

// Recognizer is the word-list implementation of [Service].
type Recognizer struct {
	fillers map[string]struct{}
}

var _ Service = (*Recognizer)(nil)

// New returns a Recognizer.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{}
	WithFillers(DefaultFillers...)(r)
	for _, o := range opts {
		o(r)
	}
	return r
}

// Analyze implements [Service]. An utterance containing the word "hello" or
// "hi" is a greeting, otherwise one ending in "?" is a question, otherwise it
// is a statement.
func (r *Recognizer) Analyze(text string) Result {
	words := tokens(text)
	res := Result{Category: Statement}
	greeting := false
	for _, w := range words {
		if _, ok := r.fillers[w]; ok {
			res.FillerCount++
		}
		if w == "hello" || w == "hi" {
			greeting = true
		}
	}
	switch {
	case greeting:
		res.Category = Greeting
	case strings.HasSuffix(strings.TrimSpace(text), "?"):
		res.Category = Question
	}
	return res
}

// tokens splits text into lower-case words. Apostrophes stay inside words so
// "don't" is one token.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
