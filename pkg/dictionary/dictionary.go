// Package dictionary loads CMU Pronouncing Dictionary files and answers
// reference pronunciation lookups.
//
// Both the classic upper-case layout ("HELLO  HH AH0 L OW1", ";;;" comments)
// and the lower-case cmudict.dict layout ("hello hh ah0 l ow1", "#" comments)
// are accepted. Alternate pronunciations are written as "WORD(2)" and are kept
// in file order after the primary entry. Phonemes are stored upper-case.
//
// A [Dictionary] is read-only after loading and safe for concurrent use.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Lookup is the read side of a pronunciation dictionary.
type Lookup interface {
	// Lookup returns every known pronunciation of word in dictionary order, or
	// nil when the word is absent. The first variant is canonical.
	Lookup(word string) [][]string
}

// Dictionary is an in-memory pronunciation dictionary.
type Dictionary struct {
	entries map[string][][]string

	indexOnce sync.Once
	index     map[string][]string
}

var _ Lookup = (*Dictionary)(nil)

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{entries: make(map[string][][]string)}
}

// LoadFile opens path and loads it with [Dictionary.Load].
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	d := New()
	if err := d.Load(f); err != nil {
		return nil, fmt.Errorf("dictionary: load %q: %w", path, err)
	}
	return d, nil
}

// Load reads dictionary lines from r and merges them into d. Lines that do
// not carry at least one phoneme are ignored. Load must not be called once d
// is shared between goroutines.
func (d *Dictionary) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";;;") || strings.HasPrefix(line, "#") {
			continue
		}
		// cmudict.dict allows trailing "# comment" annotations.
		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := headword(fields[0])
		if word == "" {
			continue
		}
		phones := make([]string, len(fields)-1)
		for i, p := range fields[1:] {
			phones[i] = strings.ToUpper(p)
		}
		d.entries[word] = append(d.entries[word], phones)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("dictionary: scan: %w", err)
	}
	return nil
}

// Add appends a pronunciation for word. The first call for a word sets its
// canonical pronunciation. Intended for tests and small custom lexicons.
func (d *Dictionary) Add(word string, phones ...string) {
	w := strings.ToLower(word)
	d.entries[w] = append(d.entries[w], phones)
}

// Lookup implements [Lookup]. Matching is case-insensitive.
func (d *Dictionary) Lookup(word string) [][]string {
	return d.entries[strings.ToLower(word)]
}

// Len returns the number of distinct headwords.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// headword lower-cases w and strips a "(n)" variant suffix.
func headword(w string) string {
	if i := strings.IndexByte(w, '('); i > 0 && strings.HasSuffix(w, ")") {
		w = w[:i]
	}
	return strings.ToLower(w)
}
