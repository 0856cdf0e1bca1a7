package pronunciation_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/pkg/dictionary"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
	g2pmock "github.com/MrWong99/lingoxa/pkg/provider/g2p/mock"
)

func testDictionary() *dictionary.Dictionary {
	d := dictionary.New()
	d.Add("this", "DH", "IH0", "S")
	d.Add("cat", "K", "AE1", "T")
	d.Add("world", "W", "ER1", "L", "D")
	d.Add("is", "IH1", "Z")
	d.Add("my", "M", "AY1")
	return d
}

func newTestAnalyzer(t *testing.T, gen *g2pmock.Generator) (*pronunciation.Analyzer, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	a := pronunciation.NewAnalyzer(
		pronunciation.NewAdapter(gen, testDictionary()),
		pronunciation.WithMetrics(m),
		pronunciation.WithConcurrency(2),
	)
	return a, reader
}

func counter(t *testing.T, reader *metric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	gen := &g2pmock.Generator{Phonemes: map[string][]string{
		"this":  {"D", "IH0", "S"},
		"is":    {"IH1", "Z"},
		"my":    {"M", "AY1"},
		"cat":   {"K", "AE1", "T"},
		"world": {"W", "ER1", "L"},
	}}
	a, reader := newTestAnalyzer(t, gen)

	rep, err := a.Analyze(context.Background(), "This is my cat, Zorblax! Hello world?")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Divergences) != 2 {
		t.Fatalf("got %d divergences, want 2: %+v", len(rep.Divergences), rep.Divergences)
	}
	first, second := rep.Divergences[0], rep.Divergences[1]
	if first.Word != "this" || first.Kind != pronunciation.Substitution || first.MismatchIndex != 0 {
		t.Errorf("first divergence = %+v", first)
	}
	if second.Word != "world" || second.Kind != pronunciation.Omission {
		t.Errorf("second divergence = %+v", second)
	}

	if len(rep.Highlights) != 2 || len(rep.Suggestions) != 2 {
		t.Fatalf("highlights/suggestions = %d/%d, want 2/2", len(rep.Highlights), len(rep.Suggestions))
	}
	if sym, ok := rep.Highlights[0].Highlighted(); !ok || sym != "DH" {
		t.Errorf("Highlights[0] flags %q, %v", sym, ok)
	}
	if _, ok := rep.Highlights[1].Highlighted(); ok {
		t.Error("omission highlight flags a symbol")
	}

	if !slices.Equal(rep.Skipped, []string{"zorblax", "hello"}) {
		t.Errorf("Skipped = %v, want out-of-vocabulary words in order", rep.Skipped)
	}
	for _, w := range gen.Calls() {
		if w == "zorblax" || w == "hello" {
			t.Errorf("generator called for out-of-vocabulary word %q", w)
		}
	}

	if got := counter(t, reader, "lingoxa.pronunciation.divergences"); got != 2 {
		t.Errorf("divergences counter = %d, want 2", got)
	}
	if got := counter(t, reader, "lingoxa.pronunciation.oov_words"); got != 2 {
		t.Errorf("oov counter = %d, want 2", got)
	}
}

func TestAnalyze_OutOfVocabularyOnly(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, &g2pmock.Generator{})
	rep, err := a.Analyze(context.Background(), "Zorblax")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.Divergences) != 0 {
		t.Errorf("got %d divergences, want none for an unknown word", len(rep.Divergences))
	}
}

func TestAnalyze_SkipsWordsWithoutPhonemes(t *testing.T) {
	t.Parallel()

	// "cat" is in the dictionary but the generator does not know it.
	a, _ := newTestAnalyzer(t, &g2pmock.Generator{Phonemes: map[string][]string{
		"is": {"IH1", "Z"},
	}})
	rep, err := a.Analyze(context.Background(), "cat is")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.Divergences) != 0 || len(rep.Skipped) != 0 {
		t.Errorf("report = %+v, want empty", rep)
	}
}

func TestAnalyze_BlankGeneratorOutput(t *testing.T) {
	t.Parallel()

	a, reader := newTestAnalyzer(t, &g2pmock.Generator{Phonemes: map[string][]string{
		"cat": {" ", ""},
	}})
	rep, err := a.Analyze(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.Divergences) != 0 || len(rep.Skipped) != 0 {
		t.Errorf("report = %+v, want no divergence for blank phonemes", rep)
	}
	if got := counter(t, reader, "lingoxa.pronunciation.divergences"); got != 0 {
		t.Errorf("divergence counter = %d, want 0", got)
	}
}

func TestAnalyze_GeneratorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("g2p down")
	a, _ := newTestAnalyzer(t, &g2pmock.Generator{Err: boom})
	if _, err := a.Analyze(context.Background(), "this cat"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped g2p error", err)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, &g2pmock.Generator{})
	for _, text := range []string{"", "   ", "!!! ... 42"} {
		rep, err := a.Analyze(context.Background(), text)
		if err != nil {
			t.Fatalf("Analyze(%q): %v", text, err)
		}
		if rep.Divergences == nil || len(rep.Divergences) != 0 {
			t.Errorf("Analyze(%q) divergences = %#v, want empty non-nil", text, rep.Divergences)
		}
	}
}

// alwaysDiverge reports a divergence for every word.
type alwaysDiverge struct{}

func (alwaysDiverge) Compare(word string, user, ref phoneme.Sequence) (pronunciation.Divergence, bool) {
	return pronunciation.Divergence{Word: word, UserPhonemes: user, CorrectPhonemes: ref, MismatchIndex: -1}, true
}

func TestAnalyze_CustomComparator(t *testing.T) {
	t.Parallel()

	gen := &g2pmock.Generator{Phonemes: map[string][]string{"cat": {"K", "AE1", "T"}}}
	a := pronunciation.NewAnalyzer(
		pronunciation.NewAdapter(gen, testDictionary()),
		pronunciation.WithComparator(alwaysDiverge{}),
	)
	rep, err := a.Analyze(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.Divergences) != 1 {
		t.Errorf("custom comparator not used: %+v", rep)
	}
}

func TestAnalyzer_Phonemes(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, &g2pmock.Generator{})
	arpa, ipa, ok := a.Phonemes("Cat")
	if !ok || arpa.String() != "K AE1 T" || !slices.Equal(ipa, []string{"k", "æ", "t"}) {
		t.Errorf("Phonemes(Cat) = %v, %v, %v", arpa, ipa, ok)
	}
	if _, _, ok := a.Phonemes("zorblax"); ok {
		t.Error("Phonemes(zorblax) ok")
	}
}
