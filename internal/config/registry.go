package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Factory builds a provider of type T from its configuration entry.
type Factory[T any] func(ProviderEntry) (T, error)

// factories is a name-keyed set of constructors for one provider kind.
type factories[T any] struct {
	kind string
	m    map[string]Factory[T]
}

func newFactories[T any](kind string) factories[T] {
	return factories[T]{kind: kind, m: make(map[string]Factory[T])}
}

// create looks up entry.Name under the read lock and calls the factory
// outside it, so factories may themselves use the registry.
func create[T any](r *Registry, f factories[T], entry ProviderEntry) (T, error) {
	r.mu.RLock()
	factory, ok := f.m[entry.Name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, f.kind, entry.Name)
	}
	return factory(entry)
}

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	llm     factories[llm.Provider]
	stt     factories[stt.Provider]
	tts     factories[tts.Provider]
	g2p     factories[g2p.Generator]
	grammar factories[grammar.Checker]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:     newFactories[llm.Provider]("llm"),
		stt:     newFactories[stt.Provider]("stt"),
		tts:     newFactories[tts.Provider]("tts"),
		g2p:     newFactories[g2p.Generator]("g2p"),
		grammar: newFactories[grammar.Checker]("grammar"),
	}
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory Factory[llm.Provider]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm.m[name] = factory
}

// RegisterSTT registers an STT provider factory under name.
func (r *Registry) RegisterSTT(name string, factory Factory[stt.Provider]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt.m[name] = factory
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory Factory[tts.Provider]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts.m[name] = factory
}

// RegisterG2P registers a grapheme-to-phoneme generator factory under name.
func (r *Registry) RegisterG2P(name string, factory Factory[g2p.Generator]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.g2p.m[name] = factory
}

// RegisterGrammar registers a grammar checker factory under name.
func (r *Registry) RegisterGrammar(name string, factory Factory[grammar.Checker]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grammar.m[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return create(r, r.llm, entry)
}

// CreateSTT instantiates an STT provider using the factory registered under entry.Name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	return create(r, r.stt, entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	return create(r, r.tts, entry)
}

// CreateG2P instantiates a G2P generator using the factory registered under entry.Name.
func (r *Registry) CreateG2P(entry ProviderEntry) (g2p.Generator, error) {
	return create(r, r.g2p, entry)
}

// CreateGrammar instantiates a grammar checker using the factory registered under entry.Name.
func (r *Registry) CreateGrammar(entry ProviderEntry) (grammar.Checker, error) {
	return create(r, r.grammar, entry)
}
