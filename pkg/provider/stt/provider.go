// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (e.g., Deepgram, a local
// whisper.cpp server, or an in-process whisper model) and turns one recorded
// utterance into text. Practice sessions submit complete recordings, so the
// interface is a single blocking call per clip.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"time"

	"github.com/MrWong99/lingoxa/pkg/audio"
)

// Request describes one recognition call.
type Request struct {
	// Clip is the recorded utterance. Providers convert it to the format they
	// need with audio.Convert.
	Clip audio.Clip

	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// An empty string selects the provider's configured default.
	Language string
}

// Transcript is the result of recognising one utterance.
type Transcript struct {
	// Text is the transcribed speech content. Empty when nothing intelligible
	// was heard.
	Text string

	// Confidence is the overall confidence score (0.0–1.0). May be zero if the
	// provider does not report confidence.
	Confidence float64

	// Words contains per-word detail when available (Deepgram).
	Words []WordDetail
}

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Recognize transcribes req.Clip. It returns an error when the backend
	// cannot be reached or rejects the audio; an utterance with no speech
	// yields an empty Transcript and a nil error.
	Recognize(ctx context.Context, req Request) (Transcript, error)
}
