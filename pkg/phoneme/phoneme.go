// Package phoneme holds the static ARPAbet tables used by the pronunciation
// engine: the ARPAbet to IPA mapping and the example word for each sound.
//
// Every lookup is total. A symbol missing from a table is returned unchanged,
// so callers never have to handle a lookup error.
package phoneme

import (
	"slices"
	"strings"
)

// Symbol is a single ARPAbet token such as "AH0" or "SH". Stress digits are
// part of the symbol.
type Symbol = string

// Sequence is an ordered list of phoneme symbols for one word. An empty
// sequence means no pronunciation could be derived.
type Sequence []Symbol

// String joins the sequence with single spaces.
func (s Sequence) String() string {
	return strings.Join(s, " ")
}

// Equal reports whether s and o hold the same symbols in the same order.
func (s Sequence) Equal(o Sequence) bool {
	return slices.Equal(s, o)
}

// pair is one literal row of a lookup table.
type pair struct {
	key, value string
}

// fold builds a lookup map from rows; a later row for the same key replaces
// an earlier one.
func fold(rows []pair) map[string]string {
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		m[r.key] = r.value
	}
	return m
}

// ipaRows lists every ARPAbet symbol with exactly one IPA value. AH0 maps to
// the wedge "ʌ" like the other AH variants rather than to the schwa "ə"; the
// schwa stays available through AX and AX-H.
var ipaRows = []pair{
	// Reduced and stressed vowels.
	{"AA0", "ɑ"}, {"AA1", "ɑ"}, {"AA2", "ɑ"},
	{"AE0", "æ"}, {"AE1", "æ"}, {"AE2", "æ"},
	{"AH0", "ʌ"}, {"AH1", "ʌ"}, {"AH2", "ʌ"},
	{"AO0", "ɔ"}, {"AO1", "ɔ"}, {"AO2", "ɔ"},
	{"AW0", "aʊ"}, {"AW1", "aʊ"}, {"AW2", "aʊ"},
	{"AY0", "aɪ"}, {"AY1", "aɪ"}, {"AY2", "aɪ"},
	{"EH0", "ɛ"}, {"EH1", "ɛ"}, {"EH2", "ɛ"},
	{"ER0", "ɜː"}, {"ER1", "ɜː"}, {"ER2", "ɜː"},
	{"EY0", "eɪ"}, {"EY1", "eɪ"}, {"EY2", "eɪ"},
	{"IH0", "ɪ"}, {"IH1", "ɪ"}, {"IH2", "ɪ"},
	{"IY0", "i"}, {"IY1", "i"}, {"IY2", "i"},
	{"OW0", "oʊ"}, {"OW1", "oʊ"}, {"OW2", "oʊ"},
	{"OY0", "ɔɪ"}, {"OY1", "ɔɪ"}, {"OY2", "ɔɪ"},
	{"UH0", "ʊ"}, {"UH1", "ʊ"}, {"UH2", "ʊ"},
	{"UW0", "u"}, {"UW1", "u"}, {"UW2", "u"},

	// Unstressed vowel spellings.
	{"AA", "ɑ"}, {"AE", "æ"}, {"AH", "ʌ"}, {"AO", "ɔ"}, {"AW", "aʊ"},
	{"AY", "aɪ"}, {"EH", "ɛ"}, {"ER", "ɜː"}, {"EY", "eɪ"}, {"IH", "ɪ"},
	{"IY", "i"}, {"OW", "oʊ"}, {"UH", "ʊ"}, {"UW", "u"},

	// TIMIT extensions.
	{"AX", "ə"}, {"AX-H", "ə"}, {"AXR", "ɚ"}, {"IX", "ɨ"}, {"UX", "u"},
	{"DX", "ɾ"}, {"Q", "ʔ"},

	// Consonants.
	{"B", "b"}, {"CH", "tʃ"}, {"D", "d"}, {"DH", "ð"}, {"F", "f"},
	{"G", "ɡ"}, {"HH", "h"}, {"JH", "dʒ"}, {"K", "k"}, {"L", "l"},
	{"M", "m"}, {"N", "n"}, {"NG", "ŋ"}, {"P", "p"}, {"R", "r"},
	{"S", "s"}, {"SH", "ʃ"}, {"T", "t"}, {"TH", "θ"}, {"V", "v"},
	{"W", "w"}, {"Y", "j"}, {"Z", "z"}, {"ZH", "ʒ"},
}

var exampleRows = []pair{
	{"AH0", "about"}, {"IH0", "roses"}, {"IH2", "kitten"}, {"EH1", "red"},
	{"AA1", "father"}, {"AE1", "cat"}, {"AO1", "thought"}, {"UW1", "blue"},
	{"UH1", "book"}, {"EH2", "elephant"}, {"EY1", "eight"}, {"AY1", "my"},
	{"OW1", "go"}, {"AW1", "now"},
	{"B", "bat"}, {"D", "dog"}, {"F", "fun"}, {"G", "goat"}, {"K", "cat"},
	{"P", "pat"}, {"R", "rat"}, {"V", "van"}, {"W", "win"}, {"Y", "yes"},
	{"Z", "zip"},
	{"ER0", "butter"}, {"ER1", "bird"}, {"ER2", "better"},
	{"DH", "this"}, {"HH", "hat"}, {"NG", "sing"}, {"SH", "she"},
	{"TH", "think"}, {"CH", "chat"}, {"ZH", "measure"},
}

var (
	ipaTable     = fold(ipaRows)
	exampleTable = fold(exampleRows)
)

// IPA returns the IPA rendering of sym and whether the table knows it.
func IPA(sym Symbol) (string, bool) {
	v, ok := ipaTable[sym]
	return v, ok
}

// ToIPA converts seq element-wise to IPA. Unknown symbols pass through, so
// the result always has the same length as seq.
func ToIPA(seq Sequence) []string {
	out := make([]string, len(seq))
	for i, s := range seq {
		if v, ok := ipaTable[s]; ok {
			out[i] = v
		} else {
			out[i] = s
		}
	}
	return out
}

// ExampleWord returns a word containing the sound sym, or sym itself when no
// example is tabulated.
func ExampleWord(sym Symbol) string {
	if w, ok := exampleTable[sym]; ok {
		return w
	}
	return sym
}

// Symbols returns every symbol of the IPA table in sorted order.
func Symbols() []Symbol {
	out := make([]Symbol, 0, len(ipaTable))
	for k := range ipaTable {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
