// Package grammar defines the grammar feedback attached to each utterance
// and the [Checker] interface implemented by the grammar backends.
package grammar

import (
	"context"
	"strings"
)

// Issue is one grammar correction. The JSON names match the persisted
// conversation record.
type Issue struct {
	// OriginalSentence is the full utterance the issue was found in.
	OriginalSentence string `json:"original_sentence"`

	// ErrorWord is the offending span of OriginalSentence.
	ErrorWord string `json:"error_word"`

	// Suggestion replaces ErrorWord.
	Suggestion string `json:"suggestion"`

	// Explanation is a short spoken-style hint for the learner.
	Explanation string `json:"explanation"`
}

// Checker finds grammar issues in an utterance. An utterance without issues
// yields an empty slice.
//
// Implementations must be safe for concurrent use.
type Checker interface {
	Check(ctx context.Context, text string) ([]Issue, error)
}

// Explanations used by [Explain].
const (
	ExplainVerb     = "This seems like a verb form issue. Try using the correct verb form for spoken English."
	ExplainArticle  = "This seems like a missing or incorrect article. Try using the correct article."
	ExplainSpelling = "This might be a spelling issue. Try pronouncing the word more clearly."
	ExplainGeneric  = "Try using the suggested word to make the sentence grammatically correct."
)

// Explain picks the learner explanation for a checker message by keyword.
// "verb" wins over "article", which wins over "spelling".
func Explain(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "verb"):
		return ExplainVerb
	case strings.Contains(m, "article"):
		return ExplainArticle
	case strings.Contains(m, "spelling"):
		return ExplainSpelling
	}
	return ExplainGeneric
}

// Trivial reports whether replacing errorWord with any of replacements only
// changes letter case. Such corrections are not worth a spoken hint.
func Trivial(errorWord string, replacements []string) bool {
	if len(replacements) == 0 {
		return false
	}
	for _, r := range replacements {
		if !strings.EqualFold(r, errorWord) {
			return false
		}
	}
	return true
}

// Disabled is a Checker that never reports an issue. It stands in when no
// grammar backend is configured.
type Disabled struct{}

// Check implements [Checker].
func (Disabled) Check(context.Context, string) ([]Issue, error) { return nil, nil }
