package pronunciation

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/MrWong99/lingoxa/pkg/dictionary"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

// CleanWord lower-cases word and drops every rune that is not a letter.
// "Don't," becomes "dont". The result may be empty.
func CleanWord(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Adapter derives the two phoneme sequences that get compared for a word:
// the learner's sequence from a grapheme-to-phoneme generator and the
// reference sequence from a pronunciation dictionary.
//
// Adapter is safe for concurrent use if its generator is.
type Adapter struct {
	g2p  g2p.Generator
	dict dictionary.Lookup
}

// NewAdapter returns an Adapter over gen and dict.
func NewAdapter(gen g2p.Generator, dict dictionary.Lookup) *Adapter {
	return &Adapter{g2p: gen, dict: dict}
}

// UserPhonemes returns the learner's phoneme sequence for word. A word that
// is empty after [CleanWord] yields an empty sequence without consulting the
// generator. Blank tokens, such as word-boundary markers, are dropped from
// the generator output.
func (a *Adapter) UserPhonemes(ctx context.Context, word string) (phoneme.Sequence, error) {
	w := CleanWord(word)
	if w == "" {
		return phoneme.Sequence{}, nil
	}
	raw, err := a.g2p.Phonemize(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("pronunciation: phonemize %q: %w", w, err)
	}
	seq := make(phoneme.Sequence, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) == "" {
			continue
		}
		seq = append(seq, strings.TrimSpace(p))
	}
	return seq, nil
}

// ReferencePhonemes returns the canonical pronunciation of word, which is
// the first variant the dictionary lists. ok is false when the cleaned word
// is empty or absent from the dictionary.
func (a *Adapter) ReferencePhonemes(word string) (seq phoneme.Sequence, ok bool) {
	w := CleanWord(word)
	if w == "" {
		return nil, false
	}
	variants := a.dict.Lookup(w)
	if len(variants) == 0 || len(variants[0]) == 0 {
		return nil, false
	}
	return phoneme.Sequence(variants[0]), true
}
