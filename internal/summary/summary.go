// Package summary compiles the end-of-session report from a session's
// conversation records.
//
// Compilation is a single order-preserving pass. The only state carried
// across records is whether any grammar issue and any pronunciation issue
// has been seen, which decides the two "no issues" sentences at the end.
// The same records always compile to the same report.
package summary

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/MrWong99/lingoxa/internal/conversation"
	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/pattern"
	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

// Format selects how the report is rendered.
type Format string

const (
	// Text renders plain lines; the mismatched phoneme is wrapped in
	// asterisks.
	Text Format = "text"

	// HTML renders block elements; the mismatched phoneme is wrapped in a
	// span carrying a data-phoneme attribute for audio playback.
	HTML Format = "html"
)

// Fixed report sentences.
const (
	Heading         = "Detailed Summary of Your Session:"
	NoGrammar       = "No significant grammar issues detected."
	NoPronunciation = "No significant pronunciation issues detected."
	Closing         = "Thank you for practicing! Goodbye."
)

// ParseFormat maps a configuration string to a Format. The empty string
// selects [Text].
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", Text:
		return Text, nil
	case HTML:
		return HTML, nil
	}
	return "", fmt.Errorf("summary: unknown format %q", s)
}

// Compiler turns conversation records into a report. It holds no per-call
// state and is safe for concurrent use.
type Compiler struct {
	format  Format
	metrics *observe.Metrics
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFormat selects the output format. The default is [Text].
func WithFormat(f Format) Option {
	return func(c *Compiler) { c.format = f }
}

// WithMetrics records every compilation outcome on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Compiler) { c.metrics = m }
}

// New returns a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{format: Text}
	for _, o := range opts {
		o(c)
	}
	return c
}

// artifacts holds the decoded analysis of one record.
type artifacts struct {
	grammar []grammar.Issue
	pron    []pronunciation.Divergence
	pattern *pattern.Result
}

func decode(r conversation.Record) (artifacts, error) {
	var a artifacts
	if err := r.Decode(conversation.FieldGrammarErrors, &a.grammar); err != nil {
		return a, err
	}
	if err := r.Decode(conversation.FieldPronunciationErrors, &a.pron); err != nil {
		return a, err
	}
	if !conversation.Empty(r.PatternAnalysis) {
		res := pattern.Result{Category: pattern.Statement}
		if err := r.Decode(conversation.FieldPatternAnalysis, &res); err != nil {
			return a, err
		}
		if res.Category == "" {
			res.Category = pattern.Statement
		}
		a.pattern = &res
	}
	return a, nil
}

// Compile renders the report for records in the given order. A record whose
// artifacts cannot be decoded fails the whole report with an error wrapping
// [conversation.ErrMalformedRecord].
func (c *Compiler) Compile(ctx context.Context, records []conversation.Record) (string, error) {
	out, err := c.compile(records)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordSummary(ctx, status)
	}
	if err != nil {
		observe.Logger(ctx).Warn("summary compilation failed", "records", len(records), "err", err)
		return "", err
	}
	return out, nil
}

func (c *Compiler) compile(records []conversation.Record) (string, error) {
	w := &writer{html: c.format == HTML}
	w.heading(Heading)

	grammarSeen, pronSeen := false, false
	for _, r := range records {
		a, err := decode(r)
		if err != nil {
			return "", fmt.Errorf("summary: %w", err)
		}
		if len(a.grammar) > 0 || len(a.pron) > 0 || a.pattern != nil {
			w.utterance(fmt.Sprintf("Your utterance: '%s'", r.UserText))
		}
		if a.pattern != nil {
			w.para(patternSentence(*a.pattern))
		}
		for _, g := range a.grammar {
			grammarSeen = true
			w.grammar(g)
		}
		for _, d := range a.pron {
			pronSeen = true
			w.pronunciation(d)
		}
	}

	if !grammarSeen {
		w.para(NoGrammar)
	}
	if !pronSeen {
		w.para(NoPronunciation)
	}
	w.para(Closing)
	return w.String(), nil
}

func patternSentence(p pattern.Result) string {
	if p.FillerCount > 0 {
		return fmt.Sprintf("This was categorized as a %s and contained %d filler words.", p.Category, p.FillerCount)
	}
	return fmt.Sprintf("This was categorized as a %s with no filler words detected.", p.Category)
}

// ---- rendering ----

// writer emits report lines in one of the formats.
type writer struct {
	html  bool
	lines []string
}

func (w *writer) String() string {
	return strings.Join(w.lines, "\n")
}

func (w *writer) esc(s string) string {
	if w.html {
		return html.EscapeString(s)
	}
	return s
}

func (w *writer) heading(s string) {
	if w.html {
		w.lines = append(w.lines, "<h2>"+w.esc(s)+"</h2>")
		return
	}
	w.lines = append(w.lines, s)
}

func (w *writer) utterance(s string) {
	if w.html {
		w.lines = append(w.lines, "<h4>"+w.esc(s)+"</h4>")
		return
	}
	w.lines = append(w.lines, "", s)
}

func (w *writer) para(s string) {
	if w.html {
		w.lines = append(w.lines, "<p>"+w.esc(s)+"</p>")
		return
	}
	w.lines = append(w.lines, s)
}

func (w *writer) grammar(g grammar.Issue) {
	body := fmt.Sprintf("In '%s', '%s' should be '%s'. %s",
		g.OriginalSentence, g.ErrorWord, g.Suggestion, g.Explanation)
	if w.html {
		w.lines = append(w.lines, "<p><strong>Grammar Issue:</strong> "+w.esc(body)+"</p>")
		return
	}
	w.lines = append(w.lines, "Grammar Issue: "+body)
}

func (w *writer) pronunciation(d pronunciation.Divergence) {
	// The highlight position is recomputed from the sequences so records
	// written without a mismatch index render the same way.
	idx := pronunciation.MismatchIndex(d.UserPhonemes, d.CorrectPhonemes)
	r := pronunciation.RenderHighlighted(d.CorrectPhonemes, idx)

	userIPA := d.UserIPA
	if len(userIPA) == 0 && len(d.UserPhonemes) > 0 {
		userIPA = phoneme.ToIPA(d.UserPhonemes)
	}
	// Stored IPA may differ from the current tables; keep what was stored.
	if len(d.CorrectIPA) == len(r.IPA) {
		for i := range r.IPA {
			r.IPA[i].Symbol = d.CorrectIPA[i]
		}
	}

	lines := []string{
		fmt.Sprintf("The word '%s' was mispronounced.", d.Word),
		fmt.Sprintf("You said (ARPAbet): [%s]", strings.Join(d.UserPhonemes, " ")),
		fmt.Sprintf("You said (IPA): [%s]", strings.Join(userIPA, " ")),
	}
	if !w.html {
		star := func(s string) string { return "*" + s + "*" }
		w.lines = append(w.lines,
			"Pronunciation Issue: "+lines[0],
			"  "+lines[1],
			"  "+lines[2],
			"  Try (ARPAbet): ["+pronunciation.Join(r.ARPAbet, star)+"]",
			"  Try (IPA): ["+pronunciation.Join(r.IPA, star)+"]",
			"  "+d.Note,
		)
		return
	}

	escMarks := func(marks []pronunciation.Mark) []pronunciation.Mark {
		out := make([]pronunciation.Mark, len(marks))
		for i, m := range marks {
			out[i] = pronunciation.Mark{Symbol: html.EscapeString(m.Symbol), Mismatch: m.Mismatch}
		}
		return out
	}
	arpaHL := func(s string) string {
		return fmt.Sprintf(`<span class="mismatch" data-phoneme="%s">%s</span>`, s, s)
	}
	ipaHL := func(s string) string {
		return `<span class="mismatch">` + s + `</span>`
	}
	w.lines = append(w.lines,
		`<div class="pronunciation-issue">`+
			"<strong>Pronunciation Issue:</strong> "+w.esc(lines[0])+"<br>"+
			w.esc(lines[1])+"<br>"+
			w.esc(lines[2])+"<br>"+
			"Try (ARPAbet): ["+pronunciation.Join(escMarks(r.ARPAbet), arpaHL)+"]<br>"+
			"Try (IPA): ["+pronunciation.Join(escMarks(r.IPA), ipaHL)+"]<br>"+
			w.esc(d.Note)+
			"</div>")
}
