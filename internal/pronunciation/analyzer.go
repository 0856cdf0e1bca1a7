package pronunciation

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

const defaultConcurrency = 4

// Report is the pronunciation feedback for one utterance. Divergences,
// Highlights and Suggestions are parallel slices in utterance order.
type Report struct {
	Divergences []Divergence `json:"pronunciation_errors"`
	Highlights  []Rendering  `json:"highlights"`
	Suggestions []string     `json:"suggestions"`

	// Skipped lists cleaned words that were left out because the dictionary
	// has no reference for them.
	Skipped []string `json:"skipped,omitempty"`
}

// AnalyzerOption is a functional option for [NewAnalyzer].
type AnalyzerOption func(*Analyzer)

// WithComparator replaces the default [FirstMismatch] comparator.
func WithComparator(c Comparator) AnalyzerOption {
	return func(a *Analyzer) {
		a.cmp = c
	}
}

// WithMetrics records analysis metrics on m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithConcurrency bounds how many words are phonemized at once. Values
// below 1 are ignored. Default: 4.
func WithConcurrency(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// Analyzer produces a [Report] for an utterance. It is safe for concurrent
// use.
type Analyzer struct {
	adapter     *Adapter
	cmp         Comparator
	metrics     *observe.Metrics
	concurrency int
}

// NewAnalyzer returns an Analyzer over adapter.
func NewAnalyzer(adapter *Adapter, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		adapter:     adapter,
		cmp:         FirstMismatch{},
		concurrency: defaultConcurrency,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

// wordResult is the outcome for one word slot of the utterance.
type wordResult struct {
	div Divergence
	hit bool
	oov string
}

// Analyze splits text on whitespace and compares every word against its
// reference. Words that clean to nothing, words the dictionary does not
// know and words the generator yields no phonemes for are skipped. A
// generator error fails the whole analysis.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Report, error) {
	ctx, span := observe.StartSpan(ctx, "pronunciation.analyze")
	defer span.End()
	start := time.Now()

	words := strings.Fields(text)
	results := make([]wordResult, len(words))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, raw := range words {
		g.Go(func() error {
			r, err := a.word(gctx, raw)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		Divergences: []Divergence{},
		Highlights:  []Rendering{},
		Suggestions: []string{},
	}
	for _, r := range results {
		if r.oov != "" {
			rep.Skipped = append(rep.Skipped, r.oov)
			continue
		}
		if !r.hit {
			continue
		}
		rep.Divergences = append(rep.Divergences, r.div)
		rep.Highlights = append(rep.Highlights, RenderHighlighted(r.div.CorrectPhonemes, r.div.MismatchIndex))
		rep.Suggestions = append(rep.Suggestions, SuggestionLine(r.div))
		a.metrics.RecordDivergence(ctx, string(r.div.Kind))
	}
	if len(rep.Skipped) > 0 {
		a.metrics.OOVWords.Add(ctx, int64(len(rep.Skipped)))
	}
	a.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())

	observe.Logger(ctx).Debug("pronunciation analysed",
		"words", len(words),
		"divergences", len(rep.Divergences),
		"skipped", len(rep.Skipped),
	)
	return rep, nil
}

func (a *Analyzer) word(ctx context.Context, raw string) (wordResult, error) {
	w := CleanWord(raw)
	if w == "" {
		return wordResult{}, nil
	}
	ref, ok := a.adapter.ReferencePhonemes(w)
	if !ok {
		observe.Logger(ctx).Debug("word not in dictionary, skipping", "word", w)
		return wordResult{oov: w}, nil
	}

	start := time.Now()
	user, err := a.adapter.UserPhonemes(ctx, w)
	a.metrics.G2PDuration.Record(ctx, time.Since(start).Seconds())
	if errors.Is(err, g2p.ErrNoPhonemes) {
		return wordResult{}, nil
	}
	if err != nil {
		return wordResult{}, err
	}
	if len(user) == 0 {
		return wordResult{}, nil
	}

	d, hit := a.cmp.Compare(w, user, ref)
	return wordResult{div: d, hit: hit}, nil
}

// Phonemes returns the reference ARPAbet and IPA sequences of word, for
// lookup tools that do not compare anything.
func (a *Analyzer) Phonemes(word string) (phoneme.Sequence, []string, bool) {
	ref, ok := a.adapter.ReferencePhonemes(word)
	if !ok {
		return nil, nil, false
	}
	return ref, phoneme.ToIPA(ref), true
}
