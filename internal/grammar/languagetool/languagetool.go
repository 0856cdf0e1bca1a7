// Package languagetool checks grammar with a LanguageTool server through its
// HTTP API (POST /v2/check). Both self-hosted servers and the public API
// work.
package languagetool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/MrWong99/lingoxa/internal/grammar"
)

const (
	checkPath       = "/v2/check"
	defaultLanguage = "en-US"
	defaultTimeout  = 10 * time.Second

	// ruleSentenceStart flags a lower-case sentence start. A learner cannot
	// hear capitalisation, so these matches are dropped.
	ruleSentenceStart = "UPPERCASE_SENTENCE_START"
)

var _ grammar.Checker = (*Checker)(nil)

// Option is a functional option for configuring a Checker.
type Option func(*Checker)

// WithLanguage sets the LanguageTool language code. Default: "en-US".
func WithLanguage(lang string) Option {
	return func(c *Checker) {
		c.language = lang
	}
}

// WithCredentials sets the username and API key for LanguageTool Premium.
func WithCredentials(username, apiKey string) Option {
	return func(c *Checker) {
		c.username = username
		c.apiKey = apiKey
	}
}

// WithHTTPClient replaces the default client, which has a 10 s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		c.httpClient = hc
	}
}

// Checker implements [grammar.Checker] against a LanguageTool server.
type Checker struct {
	baseURL    string
	language   string
	username   string
	apiKey     string
	httpClient *http.Client
}

// New returns a Checker for the server at baseURL, for example
// "http://localhost:8010" or "https://api.languagetool.org".
func New(baseURL string, opts ...Option) (*Checker, error) {
	if baseURL == "" {
		return nil, errors.New("languagetool: baseURL must not be empty")
	}
	c := &Checker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type checkResponse struct {
	Matches []match `json:"matches"`
}

type match struct {
	Message      string `json:"message"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Rule struct {
		ID string `json:"id"`
	} `json:"rule"`
}

// Check implements [grammar.Checker]. Matches without a replacement,
// sentence-start capitalisation matches and case-only replacements are
// dropped. The first replacement becomes the suggestion.
func (c *Checker) Check(ctx context.Context, text string) ([]grammar.Issue, error) {
	if strings.TrimSpace(text) == "" {
		return []grammar.Issue{}, nil
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.language)
	if c.username != "" {
		form.Set("username", c.username)
		form.Set("apiKey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("languagetool: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("languagetool: check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("languagetool: check: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("languagetool: decode response: %w", err)
	}
	return toIssues(text, cr.Matches), nil
}

func toIssues(text string, matches []match) []grammar.Issue {
	// LanguageTool offsets count UTF-16 code units.
	units := utf16.Encode([]rune(text))

	issues := []grammar.Issue{}
	for _, m := range matches {
		if m.Rule.ID == ruleSentenceStart || len(m.Replacements) == 0 {
			continue
		}
		if m.Offset < 0 || m.Length < 0 || m.Offset+m.Length > len(units) {
			continue
		}
		word := string(utf16.Decode(units[m.Offset : m.Offset+m.Length]))

		repl := make([]string, len(m.Replacements))
		for i, r := range m.Replacements {
			repl[i] = r.Value
		}
		if grammar.Trivial(word, repl) {
			continue
		}
		issues = append(issues, grammar.Issue{
			OriginalSentence: text,
			ErrorWord:        word,
			Suggestion:       repl[0],
			Explanation:      grammar.Explain(m.Message),
		})
	}
	return issues
}
