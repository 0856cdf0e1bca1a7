// Package api exposes the practice assistant over HTTP.
//
// All endpoints except the audio downloads speak JSON. Synthesised speech
// is kept in a bounded in-memory [ClipCache] and served as WAV under a
// generated id.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/practice"
	"github.com/MrWong99/lingoxa/internal/topics"
	"github.com/MrWong99/lingoxa/pkg/audio"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
)

const (
	// DefaultResponseText is spoken when /get_audio_response gets no text.
	DefaultResponseText = "I have nothing to say."

	maxSuggestions = 5

	maxUploadBytes = 32 << 20
	maxJSONBytes   = 1 << 20
)

// Practice is the utterance pipeline. [practice.Service] implements it.
type Practice interface {
	Process(ctx context.Context, sessionID, text string) (*practice.Result, error)
	Summary(ctx context.Context, sessionID string) (string, error)
}

// Lexicon answers reference pronunciation lookups.
// [pronunciation.Analyzer] implements it.
type Lexicon interface {
	Phonemes(word string) (phoneme.Sequence, []string, bool)
}

// Suggester proposes similar sounding dictionary words for one that a
// [Lexicon] does not know. The pronunciation dictionary implements it.
type Suggester interface {
	Suggest(word string, n int) []string
}

// Config holds the collaborators of a [Server]. Practice is required; a nil
// STT makes every transcription empty and a nil TTS disables the audio
// endpoints. Without a Suggester pronunciation misses carry no suggestions.
type Config struct {
	Practice  Practice
	STT       stt.Provider
	TTS       tts.Provider
	Voice     tts.Voice
	Language  string
	Topics    *topics.Catalog
	Lexicon   Lexicon
	Suggester Suggester
	Clips     *ClipCache
	Metrics   *observe.Metrics
}

// Server implements the HTTP endpoints.
type Server struct {
	cfg Config

	mu    sync.RWMutex
	voice tts.Voice
}

// New returns a Server for cfg.
func New(cfg Config) (*Server, error) {
	if cfg.Practice == nil {
		return nil, errors.New("api: practice service is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Clips == nil {
		cfg.Clips = NewClipCache(0, cfg.Metrics)
	}
	if cfg.Topics == nil {
		cfg.Topics = topics.Builtin()
	}
	return &Server{cfg: cfg, voice: cfg.Voice}, nil
}

// SetVoice replaces the voice used for every later synthesis.
func (s *Server) SetVoice(v tts.Voice) {
	s.mu.Lock()
	s.voice = v
	s.mu.Unlock()
}

// Voice returns the current synthesis voice.
func (s *Server) Voice() tts.Voice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice
}

// Register adds every endpoint to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /recognize_speech", s.recognizeSpeech)
	mux.HandleFunc("POST /process_input", s.processInput)
	mux.HandleFunc("POST /get_audio_response", s.getAudioResponse)
	mux.HandleFunc("GET /audio_response/{id}", s.serveClip)
	mux.HandleFunc("POST /get_phoneme_audio", s.getPhonemeAudio)
	mux.HandleFunc("GET /phoneme_audio_file/{id}", s.serveClip)
	mux.HandleFunc("GET /sessions/{id}/summary", s.sessionSummary)
	mux.HandleFunc("GET /topics", s.listTopics)
	mux.HandleFunc("GET /topics/{name}", s.getTopic)
	mux.HandleFunc("GET /phonemes", s.listPhonemes)
	mux.HandleFunc("GET /pronunciations/{word}", s.getPronunciation)
}

// ---- speech ----

func (s *Server) recognizeSpeech(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable audio file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcription": s.transcribe(r.Context(), data)})
}

// transcribe returns the recognised text of a WAV upload. Any failure
// yields an empty transcription, which the client treats as silence.
func (s *Server) transcribe(ctx context.Context, wav []byte) string {
	log := observe.Logger(ctx)
	if s.cfg.STT == nil {
		log.Warn("no speech-to-text provider configured")
		return ""
	}
	clip, err := audio.DecodeWAV(wav)
	if err != nil {
		log.Warn("undecodable audio upload", "err", err)
		return ""
	}

	start := time.Now()
	tr, err := s.cfg.STT.Recognize(ctx, stt.Request{Clip: clip, Language: s.cfg.Language})
	s.cfg.Metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.cfg.Metrics.RecordProviderError(ctx, "stt", "recognize")
		log.Warn("transcription failed", "err", err)
		return ""
	}
	return strings.TrimSpace(tr.Text)
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

// speakable strips markup from an HTML summary so it can be read aloud.
func speakable(s string) string {
	s = html.UnescapeString(tagRE.ReplaceAllString(s, " "))
	return strings.Join(strings.Fields(s), " ")
}

func (s *Server) getAudioResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResponseText string `json:"response_text"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	text := speakable(req.ResponseText)
	if text == "" {
		text = DefaultResponseText
	}
	id, err := s.synthesize(r.Context(), text)
	if err != nil {
		s.synthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audio_url": "/audio_response/" + id})
}

func (s *Server) getPhonemeAudio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phoneme string `json:"phoneme"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	sym := strings.ToUpper(strings.TrimSpace(req.Phoneme))
	if sym == "" {
		writeError(w, http.StatusBadRequest, "No phoneme provided")
		return
	}
	word := phoneme.ExampleWord(sym)
	id, err := s.synthesize(r.Context(), word)
	if err != nil {
		s.synthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"audio_url":    "/phoneme_audio_file/" + id,
		"example_word": word,
	})
}

var errNoTTS = errors.New("no text-to-speech provider configured")

func (s *Server) synthesize(ctx context.Context, text string) (string, error) {
	if s.cfg.TTS == nil {
		return "", errNoTTS
	}
	start := time.Now()
	clip, err := s.cfg.TTS.Synthesize(ctx, text, s.Voice())
	s.cfg.Metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.cfg.Metrics.RecordProviderError(ctx, "tts", "synthesize")
		return "", fmt.Errorf("api: synthesize: %w", err)
	}
	return s.cfg.Clips.Put(ctx, clip), nil
}

func (s *Server) synthError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errNoTTS) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	observe.Logger(r.Context()).Error("speech synthesis failed", "err", err)
	writeError(w, http.StatusBadGateway, "speech synthesis failed")
}

func (s *Server) serveClip(w http.ResponseWriter, r *http.Request) {
	clip, ok := s.cfg.Clips.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(audio.EncodeWAV(clip))
}

// ---- conversation ----

func (s *Server) processInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.cfg.Practice.Process(r.Context(), req.SessionID, req.Text)
	if err != nil {
		observe.Logger(r.Context()).Error("processing utterance failed", "session_id", req.SessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) sessionSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := s.cfg.Practice.Summary(r.Context(), id)
	if err != nil {
		observe.Logger(r.Context()).Error("session summary failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "summary": report})
}

// ---- reference data ----

func (s *Server) listTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Topics.All())
}

func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Topics.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown topic")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type phonemeInfo struct {
	Symbol      string `json:"symbol"`
	IPA         string `json:"ipa"`
	ExampleWord string `json:"example_word"`
}

func (s *Server) listPhonemes(w http.ResponseWriter, _ *http.Request) {
	syms := phoneme.Symbols()
	out := make([]phonemeInfo, len(syms))
	for i, sym := range syms {
		ipa, _ := phoneme.IPA(sym)
		out[i] = phonemeInfo{Symbol: sym, IPA: ipa, ExampleWord: phoneme.ExampleWord(sym)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPronunciation(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	if s.cfg.Lexicon == nil {
		writeError(w, http.StatusServiceUnavailable, "no dictionary loaded")
		return
	}
	arpa, ipa, ok := s.cfg.Lexicon.Phonemes(word)
	if !ok {
		suggestions := []string{}
		if s.cfg.Suggester != nil {
			suggestions = append(suggestions, s.cfg.Suggester.Suggest(word, maxSuggestions)...)
		}
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       "word not in dictionary",
			"word":        word,
			"suggestions": suggestions,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"word": word, "arpabet": arpa, "ipa": ipa})
}

// ---- helpers ----

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
