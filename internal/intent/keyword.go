package intent

import (
	"context"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// DefaultPhrases are the trigger phrases of the keyword classifier.
var DefaultPhrases = map[Label][]string{
	Goodbye: {
		"goodbye", "bye", "bye bye", "see you", "see you later", "farewell",
		"good night", "i have to go", "talk to you later",
	},
	AskHealth: {
		"how are you", "how are you doing", "how is it going", "how's it going",
		"how do you do", "how have you been", "are you well",
	},
	Greeting: {
		"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
		"greetings",
	},
}

const (
	// fuzzyMinLen is the shortest keyword that may match approximately.
	// Shorter ones ("hi", "bye") must match exactly.
	fuzzyMinLen = 4

	defaultThreshold = 0.9
)

// Keyword classifies by phrase matching over word tokens. Tokens of four or
// more letters also match near-misses, which absorbs common transcription
// slips such as "goodby" or "helo".
type Keyword struct {
	phrases   map[Label][][]string
	threshold float64
}

var _ Classifier = (*Keyword)(nil)

// KeywordOption configures a [Keyword] classifier.
type KeywordOption func(*Keyword)

// WithPhrases replaces the trigger phrases of label.
func WithPhrases(label Label, phrases ...string) KeywordOption {
	return func(k *Keyword) {
		k.phrases[label] = nil
		for _, p := range phrases {
			if toks := tokenize(p); len(toks) > 0 {
				k.phrases[label] = append(k.phrases[label], toks)
			}
		}
	}
}

// WithThreshold sets the Jaro-Winkler similarity a token needs to count as
// a near-miss of a keyword. Values outside (0, 1] are ignored.
func WithThreshold(t float64) KeywordOption {
	return func(k *Keyword) {
		if t > 0 && t <= 1 {
			k.threshold = t
		}
	}
}

// NewKeyword returns a Keyword classifier seeded with [DefaultPhrases].
func NewKeyword(opts ...KeywordOption) *Keyword {
	k := &Keyword{
		phrases:   make(map[Label][][]string),
		threshold: defaultThreshold,
	}
	for label, phrases := range DefaultPhrases {
		WithPhrases(label, phrases...)(k)
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Predict implements [Classifier]. It never fails.
func (k *Keyword) Predict(_ context.Context, text string) (Label, error) {
	toks := tokenize(text)
	for _, label := range Labels {
		for _, phrase := range k.phrases[label] {
			if k.contains(toks, phrase) {
				return label, nil
			}
		}
	}
	return General, nil
}

// contains reports whether phrase occurs as a contiguous run in toks.
func (k *Keyword) contains(toks, phrase []string) bool {
	for start := 0; start+len(phrase) <= len(toks); start++ {
		ok := true
		for i, want := range phrase {
			if !k.match(toks[start+i], want) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (k *Keyword) match(tok, want string) bool {
	if tok == want {
		return true
	}
	if len(want) < fuzzyMinLen || len(tok) < fuzzyMinLen {
		return false
	}
	// A prefix like "good" must not pass for "goodbye".
	if d := len(tok) - len(want); d > 1 || d < -1 {
		return false
	}
	if matchr.JaroWinkler(tok, want, false) >= k.threshold {
		return true
	}
	// Same sound, different spelling, as in "gudbye".
	tp, _ := matchr.DoubleMetaphone(tok)
	wp, _ := matchr.DoubleMetaphone(want)
	return tp != "" && tp == wp && matchr.JaroWinkler(tok, want, false) >= k.threshold-0.05
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
