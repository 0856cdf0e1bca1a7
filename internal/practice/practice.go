// Package practice runs one learner utterance through the whole feedback
// pipeline and keeps the session's conversation log.
//
// For every utterance the service analyses filler words and category,
// grammar, pronunciation and intent concurrently, picks a reply and appends
// a record to the conversation store. A goodbye ends the session: the
// record is stored with a placeholder reply and the compiled session
// summary is returned instead.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lingoxa/internal/conversation"
	"github.com/MrWong99/lingoxa/internal/dialogue"
	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/internal/intent"
	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/pattern"
	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/internal/summary"
)

// SummaryPending is the system response stored with the goodbye utterance.
const SummaryPending = "(summary pending)"

// PronunciationAnalyzer produces pronunciation feedback for an utterance.
// [pronunciation.Analyzer] implements it.
type PronunciationAnalyzer interface {
	Analyze(ctx context.Context, text string) (*pronunciation.Report, error)
}

// Result is the feedback for one utterance. The JSON names of the first
// five fields are shared with the web client.
type Result struct {
	Response                 string                     `json:"response"`
	GrammarErrors            []grammar.Issue            `json:"grammar_errors"`
	PronunciationErrors      []pronunciation.Divergence `json:"pronunciation_errors"`
	PronunciationSuggestions []string                   `json:"pronunciation_suggestions"`
	IsSummary                bool                       `json:"is_summary"`

	Highlights      []pronunciation.Rendering `json:"highlights"`
	PatternAnalysis pattern.Result            `json:"pattern_analysis"`
	Intent          intent.Label              `json:"intent"`
	SessionID       string                    `json:"session_id"`
	RecordID        string                    `json:"record_id"`
}

// Config holds the collaborators of a [Service]. Every field except Metrics
// is required.
type Config struct {
	Store         conversation.Store
	Pattern       pattern.Service
	Grammar       grammar.Checker
	Pronunciation PronunciationAnalyzer
	Intent        intent.Classifier
	Dialogue      dialogue.Generator
	Summary       *summary.Compiler

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

func (c Config) validate() error {
	var errs []error
	if c.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if c.Pattern == nil {
		errs = append(errs, errors.New("pattern service is required"))
	}
	if c.Grammar == nil {
		errs = append(errs, errors.New("grammar checker is required"))
	}
	if c.Pronunciation == nil {
		errs = append(errs, errors.New("pronunciation analyzer is required"))
	}
	if c.Intent == nil {
		errs = append(errs, errors.New("intent classifier is required"))
	}
	if c.Dialogue == nil {
		errs = append(errs, errors.New("dialogue generator is required"))
	}
	if c.Summary == nil {
		errs = append(errs, errors.New("summary compiler is required"))
	}
	return errors.Join(errs...)
}

// Service is the practice pipeline. It holds no session state of its own;
// the conversation store is the only record of a session. It is safe for
// concurrent use, but concurrent utterances of the same session append in
// completion order.
type Service struct {
	cfg Config
}

// New validates cfg and returns a Service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("practice: %w", err)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Service{cfg: cfg}, nil
}

// analysis collects the concurrent per-utterance results.
type analysis struct {
	pattern pattern.Result
	grammar []grammar.Issue
	pron    *pronunciation.Report
	intent  intent.Label
	history []conversation.Record
}

// Process handles one utterance of sessionID. An empty sessionID starts a
// new session whose id is returned in the result.
func (s *Service) Process(ctx context.Context, sessionID, text string) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "practice.process")
	defer span.End()

	text = strings.TrimSpace(text)
	if sessionID == "" {
		sessionID = conversation.NewID()
	}
	log := observe.Logger(ctx).With("session_id", sessionID)

	a, err := s.analyse(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}
	s.cfg.Metrics.RecordUtterance(ctx, string(a.intent))

	res := &Result{
		GrammarErrors:            a.grammar,
		PronunciationErrors:      a.pron.Divergences,
		PronunciationSuggestions: a.pron.Suggestions,
		Highlights:               a.pron.Highlights,
		PatternAnalysis:          a.pattern,
		Intent:                   a.intent,
		SessionID:                sessionID,
	}

	if a.intent == intent.Goodbye {
		rec, err := s.appendRecord(ctx, sessionID, text, SummaryPending, a)
		if err != nil {
			return nil, err
		}
		report, err := s.Summary(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		res.Response = report
		res.IsSummary = true
		res.RecordID = rec.ID
		log.Info("session finished", "records", len(a.history)+1)
		return res, nil
	}

	history := Turns(a.history)
	history = append(history, dialogue.Turn{Speaker: dialogue.User, Text: text, Intent: a.intent})
	reply, err := s.cfg.Dialogue.Generate(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("practice: generate reply: %w", err)
	}

	rec, err := s.appendRecord(ctx, sessionID, text, reply, a)
	if err != nil {
		return nil, err
	}
	res.Response = reply
	res.RecordID = rec.ID
	log.Debug("utterance processed",
		"intent", a.intent,
		"grammar_issues", len(a.grammar),
		"divergences", len(a.pron.Divergences),
	)
	return res, nil
}

func (s *Service) analyse(ctx context.Context, sessionID, text string) (analysis, error) {
	var a analysis
	a.pattern = s.cfg.Pattern.Analyze(text)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		issues, err := s.cfg.Grammar.Check(gctx, text)
		if err != nil {
			return fmt.Errorf("practice: grammar check: %w", err)
		}
		a.grammar = issues
		return nil
	})
	g.Go(func() error {
		rep, err := s.cfg.Pronunciation.Analyze(gctx, text)
		if err != nil {
			return fmt.Errorf("practice: pronunciation: %w", err)
		}
		a.pron = rep
		return nil
	})
	g.Go(func() error {
		l, err := s.cfg.Intent.Predict(gctx, text)
		if err != nil {
			return fmt.Errorf("practice: classify intent: %w", err)
		}
		a.intent = l
		return nil
	})
	g.Go(func() error {
		recs, err := s.cfg.Store.AllForSession(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("practice: load history: %w", err)
		}
		a.history = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return analysis{}, err
	}

	if a.grammar == nil {
		a.grammar = []grammar.Issue{}
	}
	if a.pron == nil {
		a.pron = &pronunciation.Report{}
	}
	if a.pron.Divergences == nil {
		a.pron.Divergences = []pronunciation.Divergence{}
	}
	if a.pron.Suggestions == nil {
		a.pron.Suggestions = []string{}
	}
	if a.pron.Highlights == nil {
		a.pron.Highlights = []pronunciation.Rendering{}
	}
	return a, nil
}

func (s *Service) appendRecord(ctx context.Context, sessionID, text, reply string, a analysis) (conversation.Record, error) {
	rec := conversation.Record{
		SessionID:      sessionID,
		UserText:       text,
		SystemResponse: reply,
	}
	var err error
	if rec.GrammarErrors, err = conversation.Encode(a.grammar); err != nil {
		return rec, fmt.Errorf("practice: %w", err)
	}
	if rec.PronunciationErrors, err = conversation.Encode(a.pron.Divergences); err != nil {
		return rec, fmt.Errorf("practice: %w", err)
	}
	if rec.PatternAnalysis, err = conversation.Encode(a.pattern); err != nil {
		return rec, fmt.Errorf("practice: %w", err)
	}
	stored, err := s.cfg.Store.Append(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("practice: append record: %w", err)
	}
	return stored, nil
}

// Summary compiles the report for every record of sessionID stored so far.
func (s *Service) Summary(ctx context.Context, sessionID string) (string, error) {
	recs, err := s.cfg.Store.AllForSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("practice: load session: %w", err)
	}
	report, err := s.cfg.Summary.Compile(ctx, recs)
	if err != nil {
		return "", fmt.Errorf("practice: %w", err)
	}
	return report, nil
}

// Turns converts stored records into dialogue turns in order. Placeholder
// replies of finished sessions are left out.
func Turns(recs []conversation.Record) []dialogue.Turn {
	turns := make([]dialogue.Turn, 0, 2*len(recs))
	for _, r := range recs {
		turns = append(turns, dialogue.Turn{Speaker: dialogue.User, Text: r.UserText})
		if r.SystemResponse != "" && r.SystemResponse != SummaryPending {
			turns = append(turns, dialogue.Turn{Speaker: dialogue.System, Text: r.SystemResponse})
		}
	}
	return turns
}
