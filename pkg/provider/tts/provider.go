// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or a local
// Coqui server) and turns a piece of text into one playable clip. The practice
// server speaks system responses and phoneme example words with it.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/MrWong99/lingoxa/pkg/audio"
)

// Voice describes a TTS voice.
type Voice struct {
	// ID is the provider-specific voice identifier. Some providers accept an
	// empty ID and fall back to their default speaker.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable voice name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Provider identifies which TTS provider this voice belongs to.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Language is the language code to synthesise in (e.g., "en"). Empty
	// selects the provider default.
	Language string `yaml:"language,omitempty" json:"language,omitempty"`

	// Metadata holds provider-specific voice attributes (gender, accent, etc.).
	Metadata map[string]string `yaml:"-" json:"metadata,omitempty"`
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text with voice and returns the complete clip. Empty
	// text is an error.
	Synthesize(ctx context.Context, text string, voice Voice) (audio.Clip, error)

	// ListVoices returns all voices available from this provider.
	ListVoices(ctx context.Context) ([]Voice, error)
}
