package resilience

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	g2pmock "github.com/MrWong99/lingoxa/pkg/provider/g2p/mock"
)

func TestG2PFallback_Phonemize(t *testing.T) {
	t.Parallel()

	primary := &g2pmock.Generator{Phonemes: map[string][]string{"think": {"S", "IH1", "NG", "K"}}}
	secondary := &g2pmock.Generator{Phonemes: map[string][]string{
		"think":  {"TH", "IH1", "NG", "K"},
		"zephyr": {"Z", "EH1", "F", "ER0"},
	}}

	fb := NewG2PFallback(primary, "remote", FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1}})
	fb.AddFallback("llm", secondary)

	tests := []struct {
		word    string
		want    []string
		wantErr error
	}{
		{word: "think", want: []string{"S", "IH1", "NG", "K"}},
		{word: "zephyr", want: []string{"Z", "EH1", "F", "ER0"}},
		{word: "xyzzy", wantErr: g2p.ErrNoPhonemes},
		// The primary's breaker allows a single failure; unknown words
		// above must not have opened it.
		{word: "think", want: []string{"S", "IH1", "NG", "K"}},
	}
	for _, tc := range tests {
		got, err := fb.Phonemize(context.Background(), tc.word)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("Phonemize(%q) err = %v, want %v", tc.word, err, tc.wantErr)
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("Phonemize(%q) = %v, want %v", tc.word, got, tc.want)
		}
	}
}

func TestG2PFallback_OutageFailsOver(t *testing.T) {
	t.Parallel()

	primary := &g2pmock.Generator{Err: errors.New("connection refused")}
	secondary := &g2pmock.Generator{Phonemes: map[string][]string{"cat": {"K", "AE1", "T"}}}

	fb := NewG2PFallback(primary, "remote", FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1}})
	fb.AddFallback("lexicon", secondary)

	for range 3 {
		got, err := fb.Phonemize(context.Background(), "cat")
		if err != nil || !slices.Equal(got, []string{"K", "AE1", "T"}) {
			t.Fatalf("Phonemize = %v, %v", got, err)
		}
	}
	if n := len(primary.Calls()); n != 1 {
		t.Errorf("primary called %d times, want 1 before its circuit opened", n)
	}
}
