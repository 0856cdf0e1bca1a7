package resilience

import (
	"context"

	"github.com/MrWong99/lingoxa/pkg/audio"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] with failover across several
// synthesisers. Each backend has its own circuit breaker.
//
// Voice IDs are provider specific; a fallback receives the same [tts.Voice]
// and is expected to map or ignore an ID it does not know.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	if cfg.Kind == "" {
		cfg.Kind = "tts"
	}
	return &TTSFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize renders text with the first healthy provider.
func (f *TTSFallback) Synthesize(ctx context.Context, text string, voice tts.Voice) (audio.Clip, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, p tts.Provider) (audio.Clip, error) {
		return p.Synthesize(ctx, text, voice)
	})
}

// ListVoices returns available voices from the first healthy provider.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, p tts.Provider) ([]tts.Voice, error) {
		return p.ListVoices(ctx)
	})
}
