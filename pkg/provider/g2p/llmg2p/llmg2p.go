// Package llmg2p provides a G2P generator that asks an LLM for the ARPAbet
// transcription of a word. It is a convenient fallback when no phonemizer
// sidecar is deployed.
package llmg2p

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
)

const systemPrompt = `You convert English words to ARPAbet as used by the CMU Pronouncing Dictionary.
Mark vowel stress with 0, 1 or 2. Reply with the phonemes only, separated by single spaces.
Example: hello -> HH AH0 L OW1`

var _ g2p.Generator = (*Generator)(nil)

// Generator implements g2p.Generator on top of an llm.Provider.
type Generator struct {
	llm llm.Provider
}

// New returns a Generator that queries p.
func New(p llm.Provider) (*Generator, error) {
	if p == nil {
		return nil, errors.New("g2p/llm: provider must not be nil")
	}
	return &Generator{llm: p}, nil
}

// Phonemize implements g2p.Generator.
func (g *Generator) Phonemize(ctx context.Context, word string) ([]string, error) {
	resp, err := g.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: word}},
		MaxTokens:    32,
	})
	if err != nil {
		return nil, fmt.Errorf("g2p/llm: complete: %w", err)
	}
	phones := g2p.ParseARPAbet(resp.Content)
	if len(phones) == 0 {
		return nil, fmt.Errorf("g2p/llm: %q: %w", word, g2p.ErrNoPhonemes)
	}
	return phones, nil
}
