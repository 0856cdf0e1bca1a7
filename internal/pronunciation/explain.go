package pronunciation

import (
	"fmt"
	"strings"

	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

// Explain returns the learner-facing sentence for d, chosen by its kind.
func Explain(d Divergence) string {
	switch d.Kind {
	case Substitution:
		i := d.MismatchIndex
		if i >= 0 && i < len(d.UserPhonemes) && i < len(d.CorrectPhonemes) {
			return fmt.Sprintf("You pronounced the phoneme '%s' but it should be '%s'. "+
				"Try adjusting your vowel or consonant sound for that phoneme.",
				d.UserPhonemes[i], d.CorrectPhonemes[i])
		}
	case Omission:
		return "You omitted a phoneme. The correct pronunciation has additional sounds at the end."
	case Insertion:
		return "You added extra sounds. Try removing extra phonemes."
	}
	return "Try pronouncing the word more clearly."
}

// Mark is one position of a highlighted sequence.
type Mark struct {
	Symbol   string `json:"symbol"`
	Mismatch bool   `json:"mismatch"`
}

// Rendering is a reference sequence laid out for display, once per alphabet.
// Both slices have one entry per reference position, and at most one entry
// has Mismatch set. Turning the flagged entry into an audio trigger is up to
// the presentation layer; [phoneme.ExampleWord] gives the word to speak.
type Rendering struct {
	ARPAbet []Mark `json:"arpabet"`
	IPA     []Mark `json:"ipa"`
}

// RenderHighlighted lays out ref and flags the symbol at mismatchIndex. An
// index outside ref, such as -1, flags nothing.
func RenderHighlighted(ref phoneme.Sequence, mismatchIndex int) Rendering {
	ipa := phoneme.ToIPA(ref)
	r := Rendering{
		ARPAbet: make([]Mark, len(ref)),
		IPA:     make([]Mark, len(ref)),
	}
	for i, sym := range ref {
		hit := i == mismatchIndex
		r.ARPAbet[i] = Mark{Symbol: sym, Mismatch: hit}
		r.IPA[i] = Mark{Symbol: ipa[i], Mismatch: hit}
	}
	return r
}

// Highlighted returns the flagged ARPAbet symbol, if any.
func (r Rendering) Highlighted() (string, bool) {
	for _, m := range r.ARPAbet {
		if m.Mismatch {
			return m.Symbol, true
		}
	}
	return "", false
}

// Join renders marks separated by single spaces, passing the flagged symbol
// through hl.
func Join(marks []Mark, hl func(string) string) string {
	parts := make([]string, len(marks))
	for i, m := range marks {
		parts[i] = m.Symbol
		if m.Mismatch && hl != nil {
			parts[i] = hl(m.Symbol)
		}
	}
	return strings.Join(parts, " ")
}

// SuggestionLine returns the one-line correction hint for d.
func SuggestionLine(d Divergence) string {
	return fmt.Sprintf("For '%s', you said [%s], try [%s] and pay attention to the differing phoneme.",
		d.Word, d.UserPhonemes, d.CorrectPhonemes)
}

// Suggestions returns [SuggestionLine] for every divergence, in order.
func Suggestions(ds []Divergence) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = SuggestionLine(d)
	}
	return out
}
