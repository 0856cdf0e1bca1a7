package dictionary

import (
	"cmp"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// minSuggestScore is the lowest Jaro-Winkler score a suggestion may have.
const minSuggestScore = 0.80

// Suggest returns up to n headwords that sound like word, best first. It is
// meant for words that [Dictionary.Lookup] does not know. Candidates share a
// Double Metaphone code with word and are ranked by Jaro-Winkler similarity.
//
// The phonetic index is built on the first call.
func (d *Dictionary) Suggest(word string, n int) []string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || n <= 0 {
		return nil
	}
	d.indexOnce.Do(d.buildIndex)

	type scored struct {
		word  string
		score float64
	}
	seen := make(map[string]struct{})
	var cands []scored
	for _, code := range codes(word) {
		for _, w := range d.index[code] {
			if _, dup := seen[w]; dup || w == word {
				continue
			}
			seen[w] = struct{}{}
			if s := matchr.JaroWinkler(word, w, false); s >= minSuggestScore {
				cands = append(cands, scored{w, s})
			}
		}
	}

	slices.SortFunc(cands, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.word, b.word)
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.word
	}
	return out
}

func (d *Dictionary) buildIndex() {
	d.index = make(map[string][]string)
	for w := range d.entries {
		for _, c := range codes(w) {
			d.index[c] = append(d.index[c], w)
		}
	}
}

// codes returns the distinct non-empty Double Metaphone codes of w.
func codes(w string) []string {
	p, s := matchr.DoubleMetaphone(w)
	switch {
	case p == "" && s == "":
		return nil
	case s == "" || s == p:
		return []string{p}
	case p == "":
		return []string{s}
	}
	return []string{p, s}
}
