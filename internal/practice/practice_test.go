package practice_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/lingoxa/internal/conversation"
	"github.com/MrWong99/lingoxa/internal/conversation/memstore"
	storemock "github.com/MrWong99/lingoxa/internal/conversation/mock"
	"github.com/MrWong99/lingoxa/internal/dialogue"
	dialoguemock "github.com/MrWong99/lingoxa/internal/dialogue/mock"
	"github.com/MrWong99/lingoxa/internal/grammar"
	grammarmock "github.com/MrWong99/lingoxa/internal/grammar/mock"
	"github.com/MrWong99/lingoxa/internal/intent"
	intentmock "github.com/MrWong99/lingoxa/internal/intent/mock"
	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/pattern"
	"github.com/MrWong99/lingoxa/internal/practice"
	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/internal/summary"
	"github.com/MrWong99/lingoxa/pkg/dictionary"
	g2pmock "github.com/MrWong99/lingoxa/pkg/provider/g2p/mock"
)

type fixture struct {
	store    conversation.Store
	grammar  *grammarmock.Checker
	intent   *intentmock.Classifier
	dialogue *dialoguemock.Generator
	svc      *practice.Service
}

func newFixture(t *testing.T, store conversation.Store) *fixture {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}

	dict := dictionary.New()
	dict.Add("this", "DH", "IH1", "S")
	dict.Add("is", "IH1", "Z")
	dict.Add("my", "M", "AY1")
	dict.Add("cat", "K", "AE1", "T")
	gen := &g2pmock.Generator{Phonemes: map[string][]string{
		"this": {"D", "IH1", "S"},
		"is":   {"IH1", "Z"},
		"my":   {"M", "AY1"},
		"cat":  {"K", "AE1", "T"},
	}}
	analyzer := pronunciation.NewAnalyzer(pronunciation.NewAdapter(gen, dict), pronunciation.WithMetrics(m))

	f := &fixture{
		store: store,
		grammar: &grammarmock.Checker{CheckFunc: func(text string) ([]grammar.Issue, error) {
			if strings.Contains(text, "he go") {
				return []grammar.Issue{{
					OriginalSentence: text,
					ErrorWord:        "go",
					Suggestion:       "goes",
					Explanation:      grammar.ExplainVerb,
				}}, nil
			}
			return nil, nil
		}},
		intent: &intentmock.Classifier{Labels: map[string]intent.Label{
			"hello": intent.Greeting,
			"bye":   intent.Goodbye,
		}},
		dialogue: &dialoguemock.Generator{Reply: "Tell me more."},
	}
	f.svc, err = practice.New(practice.Config{
		Store:         store,
		Pattern:       pattern.New(),
		Grammar:       f.grammar,
		Pronunciation: analyzer,
		Intent:        f.intent,
		Dialogue:      f.dialogue,
		Summary:       summary.New(summary.WithMetrics(m)),
		Metrics:       m,
	})
	if err != nil {
		t.Fatalf("practice.New: %v", err)
	}
	return f
}

func TestProcess_Utterance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, memstore.New())
	res, err := f.svc.Process(context.Background(), "s1", "  um This is my cat  ")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.Response != "Tell me more." || res.IsSummary {
		t.Errorf("Response = %q, IsSummary = %v", res.Response, res.IsSummary)
	}
	if res.SessionID != "s1" || res.RecordID == "" {
		t.Errorf("SessionID = %q, RecordID = %q", res.SessionID, res.RecordID)
	}
	if len(res.PronunciationErrors) != 1 || res.PronunciationErrors[0].Word != "this" {
		t.Fatalf("PronunciationErrors = %+v", res.PronunciationErrors)
	}
	if len(res.Highlights) != 1 || len(res.PronunciationSuggestions) != 1 {
		t.Errorf("Highlights = %d, Suggestions = %d, want 1 each", len(res.Highlights), len(res.PronunciationSuggestions))
	}
	if res.GrammarErrors == nil || len(res.GrammarErrors) != 0 {
		t.Errorf("GrammarErrors = %#v, want empty non-nil", res.GrammarErrors)
	}
	if res.PatternAnalysis.FillerCount != 1 || res.PatternAnalysis.Category != pattern.Statement {
		t.Errorf("PatternAnalysis = %+v", res.PatternAnalysis)
	}
	if res.Intent != intent.General {
		t.Errorf("Intent = %q", res.Intent)
	}

	recs, err := f.store.AllForSession(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("stored %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.UserText != "um This is my cat" || rec.SystemResponse != "Tell me more." {
		t.Errorf("stored record = %+v", rec)
	}
	var divs []pronunciation.Divergence
	if err := rec.Decode(conversation.FieldPronunciationErrors, &divs); err != nil || len(divs) != 1 {
		t.Errorf("stored divergences = %+v, %v", divs, err)
	}
	var pr pattern.Result
	if err := rec.Decode(conversation.FieldPatternAnalysis, &pr); err != nil || pr.FillerCount != 1 {
		t.Errorf("stored pattern = %+v, %v", pr, err)
	}
}

func TestProcess_HistoryFromStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t, memstore.New())
	ctx := context.Background()
	for _, text := range []string{"hello", "I like tea"} {
		if _, err := f.svc.Process(ctx, "s1", text); err != nil {
			t.Fatalf("Process(%q): %v", text, err)
		}
	}
	if _, err := f.svc.Process(ctx, "other", "unrelated"); err != nil {
		t.Fatal(err)
	}

	calls := f.dialogue.Calls()
	if len(calls) != 3 {
		t.Fatalf("Generate called %d times, want 3", len(calls))
	}
	got := calls[1]
	want := []dialogue.Turn{
		{Speaker: dialogue.User, Text: "hello"},
		{Speaker: dialogue.System, Text: "Tell me more."},
		{Speaker: dialogue.User, Text: "I like tea", Intent: intent.General},
	}
	if len(got) != len(want) {
		t.Fatalf("history = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(calls[2]) != 1 {
		t.Errorf("other session saw %d turns, want 1", len(calls[2]))
	}
	if calls[0][0].Intent != intent.Greeting {
		t.Errorf("first turn intent = %q, want greeting", calls[0][0].Intent)
	}
}

func TestProcess_GoodbyeReturnsSummary(t *testing.T) {
	t.Parallel()

	f := newFixture(t, memstore.New())
	ctx := context.Background()
	for _, text := range []string{"This is my cat", "he go home"} {
		if _, err := f.svc.Process(ctx, "s1", text); err != nil {
			t.Fatal(err)
		}
	}

	res, err := f.svc.Process(ctx, "s1", "bye")
	if err != nil {
		t.Fatalf("Process(bye): %v", err)
	}
	if !res.IsSummary || res.Intent != intent.Goodbye {
		t.Errorf("IsSummary = %v, Intent = %q", res.IsSummary, res.Intent)
	}
	for _, want := range []string{
		summary.Heading,
		"The word 'this' was mispronounced.",
		"Grammar Issue: In 'he go home', 'go' should be 'goes'.",
		"Your utterance: 'bye'",
		summary.Closing,
	} {
		if !strings.Contains(res.Response, want) {
			t.Errorf("summary missing %q:\n%s", want, res.Response)
		}
	}
	if len(f.dialogue.Calls()) != 2 {
		t.Errorf("dialogue generator called for goodbye")
	}

	recs, _ := f.store.AllForSession(ctx, "s1")
	if len(recs) != 3 {
		t.Fatalf("stored %d records, want 3", len(recs))
	}
	if last := recs[2]; last.SystemResponse != practice.SummaryPending || last.ID != res.RecordID {
		t.Errorf("goodbye record = %+v", last)
	}

	again, err := f.svc.Summary(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if again != res.Response {
		t.Error("Summary differs from the report returned at goodbye")
	}
}

func TestProcess_NewSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t, memstore.New())
	a, err := f.svc.Process(context.Background(), "", "hello")
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.svc.Process(context.Background(), "", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if a.SessionID == "" || a.SessionID == b.SessionID {
		t.Errorf("session ids %q and %q, want distinct non-empty", a.SessionID, b.SessionID)
	}
}

func TestProcess_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(f *fixture, st *storemock.Store)
	}{
		{"grammar", func(f *fixture, _ *storemock.Store) { f.grammar.CheckFunc = nil; f.grammar.Err = boom }},
		{"intent", func(f *fixture, _ *storemock.Store) { f.intent.Err = boom }},
		{"dialogue", func(f *fixture, _ *storemock.Store) { f.dialogue.Err = boom }},
		{"history", func(_ *fixture, st *storemock.Store) { st.AllForSessionErr = boom }},
		{"append", func(_ *fixture, st *storemock.Store) { st.AppendErr = boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := &storemock.Store{}
			f := newFixture(t, st)
			tt.setup(f, st)
			if _, err := f.svc.Process(context.Background(), "s", "this"); !errors.Is(err, boom) {
				t.Errorf("Process error = %v, want wrapped boom", err)
			}
		})
	}
}

func TestSummary_MalformedRecord(t *testing.T) {
	t.Parallel()

	st := &storemock.Store{AllForSessionResult: []conversation.Record{
		{ID: "x", PronunciationErrors: []byte(`"nope"`)},
	}}
	f := newFixture(t, st)
	if _, err := f.svc.Summary(context.Background(), "s"); !errors.Is(err, conversation.ErrMalformedRecord) {
		t.Errorf("Summary error = %v, want ErrMalformedRecord", err)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := practice.New(practice.Config{})
	if err == nil {
		t.Fatal("New(empty config) returned nil error")
	}
	for _, want := range []string{"store", "grammar", "intent", "dialogue", "summary"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestTurns(t *testing.T) {
	t.Parallel()

	got := practice.Turns([]conversation.Record{
		{UserText: "hi", SystemResponse: "hello"},
		{UserText: "bye", SystemResponse: practice.SummaryPending},
	})
	if len(got) != 3 {
		t.Fatalf("Turns = %+v", got)
	}
	if got[2].Speaker != dialogue.User || got[2].Text != "bye" {
		t.Errorf("last turn = %+v", got[2])
	}
}
