package pronunciation

import (
	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

// Kind classifies where a learner's pronunciation first departs from the
// reference.
type Kind string

const (
	// Substitution means a symbol differs at [Divergence.MismatchIndex].
	Substitution Kind = "substitution"

	// Omission means the learner's sequence is a strict prefix of the
	// reference: trailing sounds were dropped.
	Omission Kind = "omission"

	// Insertion means the reference is a strict prefix of the learner's
	// sequence: extra trailing sounds were added.
	Insertion Kind = "insertion"
)

// Divergence is the record of one mispronounced word. It is only built when
// the two sequences are not element-wise identical and is never modified
// afterwards. The JSON names match the persisted conversation record.
type Divergence struct {
	Word            string           `json:"word"`
	UserPhonemes    phoneme.Sequence `json:"user_phonemes"`
	CorrectPhonemes phoneme.Sequence `json:"correct_phonemes"`
	UserIPA         []string         `json:"user_ipa"`
	CorrectIPA      []string         `json:"correct_ipa"`
	Note            string           `json:"difference_note"`
	Kind            Kind             `json:"kind,omitempty"`

	// MismatchIndex is the first position at which the sequences differ, or
	// -1 when the divergence is a pure length difference.
	MismatchIndex int `json:"mismatch_index"`
}

// Comparator compares a learner's phoneme sequence with the reference for
// word. It returns ok == false when there is nothing to correct.
//
// Implementations must be pure and safe for concurrent use.
type Comparator interface {
	Compare(word string, user, ref phoneme.Sequence) (d Divergence, ok bool)
}

// FirstMismatch reports only the first position at which the sequences
// differ, one correction per word. It is not an alignment: a sound inserted
// or dropped in the middle of a word shifts every later position, and the
// reported index is the first shifted one.
type FirstMismatch struct{}

var _ Comparator = FirstMismatch{}

// Compare implements [Comparator]. The returned divergence carries both
// sequences in ARPAbet and IPA and the [Explain] note. An empty sequence on
// either side means no pronunciation could be derived and is never a
// divergence.
func (FirstMismatch) Compare(word string, user, ref phoneme.Sequence) (Divergence, bool) {
	if len(user) == 0 || len(ref) == 0 || user.Equal(ref) {
		return Divergence{}, false
	}
	idx := MismatchIndex(user, ref)
	kind := Substitution
	switch {
	case idx >= 0:
	case len(user) < len(ref):
		kind = Omission
	default:
		kind = Insertion
	}

	d := Divergence{
		Word:            word,
		UserPhonemes:    user,
		CorrectPhonemes: ref,
		UserIPA:         phoneme.ToIPA(user),
		CorrectIPA:      phoneme.ToIPA(ref),
		Kind:            kind,
		MismatchIndex:   idx,
	}
	d.Note = Explain(d)
	return d, true
}

// MismatchIndex returns the first index below the shorter length at which
// user and ref differ, or -1 if one is a prefix of the other.
func MismatchIndex(user, ref phoneme.Sequence) int {
	n := min(len(user), len(ref))
	for i := range n {
		if user[i] != ref[i] {
			return i
		}
	}
	return -1
}
