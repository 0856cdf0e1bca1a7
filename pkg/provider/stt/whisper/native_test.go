package whisper_test

import (
	"context"
	"os"
	"testing"

	"github.com/MrWong99/lingoxa/pkg/audio"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	"github.com/MrWong99/lingoxa/pkg/provider/stt/whisper"
)

// testModelPath returns the path to a whisper model for integration tests.
// It reads from the WHISPER_MODEL_PATH environment variable. If unset the
// test is skipped.
func testModelPath(t *testing.T) string {
	t.Helper()
	p := os.Getenv("WHISPER_MODEL_PATH")
	if p == "" {
		t.Skip("WHISPER_MODEL_PATH not set; skipping native whisper test")
	}
	return p
}

func TestNewNative_EmptyPath_ReturnsError(t *testing.T) {
	if _, err := whisper.NewNative(""); err == nil {
		t.Fatal("expected error for empty model path, got nil")
	}
}

func TestNewNative_InvalidPath_ReturnsError(t *testing.T) {
	if _, err := whisper.NewNative("/nonexistent/path/to/model.bin"); err == nil {
		t.Fatal("expected error for invalid model path, got nil")
	}
}

func TestNativeRecognize_SilenceSkipsInference(t *testing.T) {
	p, err := whisper.NewNative(testModelPath(t), whisper.WithNativeLanguage("en"))
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	defer p.Close()

	tr, err := p.Recognize(context.Background(), stt.Request{
		Clip: audio.Clip{PCM: makeSilencePCM(16000), SampleRate: 16000, Channels: 1},
	})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if tr.Text != "" {
		t.Errorf("Text = %q, want empty for silence", tr.Text)
	}
}

func TestNativeRecognize_CancelledContext_ReturnsError(t *testing.T) {
	p, err := whisper.NewNative(testModelPath(t))
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Recognize(ctx, stt.Request{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
