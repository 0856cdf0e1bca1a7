package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/lingoxa/pkg/audio"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
	ttsmock "github.com/MrWong99/lingoxa/pkg/provider/tts/mock"
)

func TestTTSFallback_Synthesize(t *testing.T) {
	t.Parallel()

	voice := tts.Voice{ID: "rachel"}
	primary := &ttsmock.Provider{SynthesizeErr: errors.New("quota exceeded")}
	secondary := &ttsmock.Provider{Clip: audio.Clip{PCM: []byte{1, 2}, SampleRate: 22050, Channels: 1}}

	fb := NewTTSFallback(primary, "elevenlabs", FallbackConfig{})
	fb.AddFallback("coqui", secondary)

	clip, err := fb.Synthesize(context.Background(), "hello", voice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.SampleRate != 22050 {
		t.Errorf("clip from wrong provider: %+v", clip)
	}
	calls := secondary.Calls()
	if len(calls) != 1 || calls[0].Text != "hello" || calls[0].Voice.ID != "rachel" {
		t.Errorf("secondary calls = %+v", calls)
	}
}

func TestTTSFallback_ListVoices(t *testing.T) {
	t.Parallel()

	primary := &ttsmock.Provider{ListVoicesErr: errTest}
	secondary := &ttsmock.Provider{Voices: []tts.Voice{{ID: "v1"}, {ID: "v2"}}}
	fb := NewTTSFallback(primary, "elevenlabs", FallbackConfig{})
	fb.AddFallback("coqui", secondary)

	voices, err := fb.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(voices) != 2 {
		t.Errorf("voices = %v, want 2", voices)
	}

	fb = NewTTSFallback(primary, "elevenlabs", FallbackConfig{})
	if _, err := fb.ListVoices(context.Background()); !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}
