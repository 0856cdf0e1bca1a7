// Package remote provides a G2P generator that calls an HTTP phonemizer
// sidecar, typically a thin wrapper around a neural g2p model.
//
// The sidecar contract is:
//
//	POST {baseURL}/phonemize
//	{"word": "hello"}
//
//	200 OK
//	{"phonemes": ["HH", "AH0", "L", "OW1"]}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

const (
	phonemizePath  = "/phonemize"
	defaultTimeout = 10 * time.Second
)

var _ g2p.Generator = (*Generator)(nil)

// Option is a functional option for configuring a Generator.
type Option func(*Generator)

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(g *Generator) {
		g.apiKey = key
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.httpClient.Timeout = d
	}
}

// Generator implements g2p.Generator against an HTTP phonemizer.
type Generator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Generator for the phonemizer at baseURL.
func New(baseURL string, opts ...Option) (*Generator, error) {
	if baseURL == "" {
		return nil, errors.New("g2p/remote: baseURL must not be empty")
	}
	g := &Generator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

type phonemizeRequest struct {
	Word string `json:"word"`
}

type phonemizeResponse struct {
	Phonemes []string `json:"phonemes"`
}

// Phonemize implements g2p.Generator.
func (g *Generator) Phonemize(ctx context.Context, word string) ([]string, error) {
	body, err := json.Marshal(phonemizeRequest{Word: word})
	if err != nil {
		return nil, fmt.Errorf("g2p/remote: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+phonemizePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("g2p/remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("g2p/remote: POST %s: %w", phonemizePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("g2p/remote: POST %s returned status %d", phonemizePath, resp.StatusCode)
	}

	var pr phonemizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("g2p/remote: decode response: %w", err)
	}
	if len(pr.Phonemes) == 0 {
		return nil, fmt.Errorf("g2p/remote: %q: %w", word, g2p.ErrNoPhonemes)
	}
	return pr.Phonemes, nil
}
