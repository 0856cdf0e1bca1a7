// Package g2p defines the Generator interface for grapheme-to-phoneme
// backends.
//
// A generator predicts how a written word is pronounced and returns ARPAbet
// symbols with stress digits on vowels (e.g., "HH AH0 L OW1"). The practice
// server compares the prediction for the recognised word against the
// reference dictionary pronunciation.
//
// Implementations must be safe for concurrent use.
package g2p

import (
	"context"
	"errors"
	"strings"

	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

// ErrNoPhonemes is returned when a backend produced no usable phoneme for a
// non-empty word.
var ErrNoPhonemes = errors.New("g2p: no phonemes produced")

// Generator is the abstraction over any G2P backend.
type Generator interface {
	// Phonemize returns the predicted ARPAbet symbols for word. The result
	// may contain empty or whitespace tokens; callers filter them.
	Phonemize(ctx context.Context, word string) ([]string, error)
}

// ParseARPAbet extracts ARPAbet symbols from free text such as "HH AH0, L OW1"
// or a model answer wrapped in brackets or slashes. Tokens are upper-cased and
// anything that is not a known symbol is dropped.
func ParseARPAbet(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '[' || r == ']' ||
			r == '/' || r == '"' || r == '\'' || r == '.' || r == '-'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToUpper(f)
		if _, ok := phoneme.IPA(f); ok {
			out = append(out, f)
		}
	}
	return out
}
