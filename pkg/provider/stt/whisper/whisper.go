// Package whisper provides local whisper.cpp-backed STT providers.
//
// [Provider] talks to a running whisper-server binary, which exposes a REST
// API at POST /inference. [NativeProvider] runs the model in-process through
// the whisper.cpp CGO bindings.
//
// Both trim leading and trailing silence before inference. A clip that holds
// no speech at all yields an empty transcript without contacting the model.
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080", whisper.WithLanguage("en"))
//	tr, err := p.Recognize(ctx, stt.Request{Clip: clip})
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/lingoxa/pkg/audio"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
)

const (
	// defaultRMSThreshold is the root-mean-square energy level (in 16-bit PCM
	// units) below which a frame is considered silent. 300 is near-silence.
	defaultRMSThreshold = 300.0

	// frameMs is the window used by the silence trimmer.
	frameMs = 20

	defaultLanguage = "en"
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithRMSThreshold overrides the energy level below which audio frames are
// treated as silence.
func WithRMSThreshold(rms float64) Option {
	return func(p *Provider) {
		p.rmsThreshold = rms
	}
}

// WithHTTPClient replaces the HTTP client used for inference requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements stt.Provider backed by a local whisper.cpp HTTP server.
// It is safe for concurrent use.
type Provider struct {
	serverURL    string
	model        string
	language     string
	rmsThreshold float64
	httpClient   *http.Client
}

// New creates a new Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:    strings.TrimRight(serverURL, "/"),
		language:     defaultLanguage,
		rmsThreshold: defaultRMSThreshold,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Recognize implements stt.Provider.
func (p *Provider) Recognize(ctx context.Context, req stt.Request) (stt.Transcript, error) {
	clip := trimSilence(audio.Convert(req.Clip, audio.SpeechFormat), p.rmsThreshold)
	if len(clip.PCM) == 0 {
		return stt.Transcript{}, nil
	}
	lang := req.Language
	if lang == "" {
		lang = p.language
	}

	text, err := p.infer(ctx, audio.EncodeWAV(clip), lang)
	if err != nil {
		return stt.Transcript{}, err
	}
	return stt.Transcript{Text: text}, nil
}

// infer POSTs wav to the whisper.cpp /inference endpoint as
// multipart/form-data and returns the transcribed text.
func (p *Provider) infer(ctx context.Context, wav []byte, lang string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}

	if lang != "" {
		if err := mw.WriteField("language", lang); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// ---- helpers ----------------------------------------------------------------

// trimSilence drops leading and trailing frames of mono clip c whose RMS is
// below threshold. It returns an empty clip when no frame is above it.
func trimSilence(c audio.Clip, threshold float64) audio.Clip {
	frame := c.SampleRate * frameMs / 1000 * 2
	if frame <= 0 || len(c.PCM) == 0 {
		return c
	}
	pcm := c.PCM[:len(c.PCM)/2*2]

	start := 0
	for start < len(pcm) && audio.RMS(pcm[start:min(start+frame, len(pcm))]) < threshold {
		start += frame
	}
	if start >= len(pcm) {
		return audio.Clip{SampleRate: c.SampleRate, Channels: c.Channels}
	}

	end := len(pcm)
	for end > start {
		from := max(start, end-frame)
		if audio.RMS(pcm[from:end]) >= threshold {
			break
		}
		end = from
	}
	return audio.Clip{PCM: pcm[start:end], SampleRate: c.SampleRate, Channels: c.Channels}
}
