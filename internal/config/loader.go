package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/lingoxa/internal/intent"
	"github.com/MrWong99/lingoxa/internal/summary"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":     {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt":     {"deepgram", "whisper", "whisper-native"},
	"tts":     {"elevenlabs", "coqui"},
	"g2p":     {"remote", "llm", "lexicon"},
	"grammar": {"languagetool", "llm"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. An empty document yields the default configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if _, err := summary.ParseFormat(cfg.Server.SummaryFormat); err != nil {
		errs = append(errs, fmt.Errorf("server.summary_format: %w", err))
	}
	if cfg.Server.ClipCapacity < 0 {
		errs = append(errs, fmt.Errorf("server.clip_capacity %d must not be negative", cfg.Server.ClipCapacity))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Providers
	for kind, entry := range cfg.providerEntries() {
		validateProviderName(kind, entry.Name)
		for i, fb := range entry.Fallbacks {
			if fb.Name == "" {
				errs = append(errs, fmt.Errorf("providers.%s.fallbacks[%d].name is required", kind, i))
			}
			if entry.Name == "" {
				errs = append(errs, fmt.Errorf("providers.%s.fallbacks[%d] configured without a primary provider", kind, i))
			}
			validateProviderName(kind, fb.Name)
		}
	}
	if cfg.Providers.G2P.Name == "llm" && cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New(`providers.g2p "llm" requires providers.llm`))
	}
	if cfg.Providers.Grammar.Name == "llm" && cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New(`providers.grammar "llm" requires providers.llm`))
	}
	if cfg.Providers.G2P.Name == "lexicon" && cfg.Dictionary.Path == "" {
		errs = append(errs, errors.New(`providers.g2p "lexicon" requires dictionary.path`))
	}

	// Dictionary
	if cfg.Dictionary.Path == "" {
		slog.Warn("dictionary.path is empty; every word will be reported as out of vocabulary")
		if len(cfg.Dictionary.Extra) > 0 {
			errs = append(errs, errors.New("dictionary.extra requires dictionary.path"))
		}
	}
	if cfg.Providers.G2P.Name == "" {
		slog.Warn("providers.g2p is not configured; pronunciation analysis will compare the dictionary against itself")
	}

	// Store
	switch {
	case !cfg.Store.Backend.IsValid():
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: memory, sqlite, postgres", cfg.Store.Backend))
	case cfg.Store.Backend == StoreSQLite && cfg.Store.Path == "":
		errs = append(errs, errors.New("store.path is required when store.backend is sqlite"))
	case cfg.Store.Backend == StorePostgres && cfg.Store.DSN == "":
		errs = append(errs, errors.New("store.dsn is required when store.backend is postgres"))
	}

	// Dialogue
	switch cfg.Dialogue.Mode {
	case ModeTemplate:
	case ModeLLM:
		if cfg.Providers.LLM.Name == "" {
			errs = append(errs, errors.New(`dialogue.mode "llm" requires providers.llm`))
		}
	default:
		errs = append(errs, fmt.Errorf("dialogue.mode %q is invalid; valid values: template, llm", cfg.Dialogue.Mode))
	}
	if cfg.Dialogue.HistoryTurns < 0 {
		errs = append(errs, fmt.Errorf("dialogue.history_turns %d must not be negative", cfg.Dialogue.HistoryTurns))
	}
	if cfg.Dialogue.MaxPromptTokens < 0 {
		errs = append(errs, fmt.Errorf("dialogue.max_prompt_tokens %d must not be negative", cfg.Dialogue.MaxPromptTokens))
	}

	// Intent
	switch cfg.Intent.Mode {
	case ModeKeyword:
	case ModeLLM:
		if cfg.Providers.LLM.Name == "" {
			errs = append(errs, errors.New(`intent.mode "llm" requires providers.llm`))
		}
	default:
		errs = append(errs, fmt.Errorf("intent.mode %q is invalid; valid values: keyword, llm", cfg.Intent.Mode))
	}
	if t := cfg.Intent.Threshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("intent.threshold %.2f is out of range [0, 1]", t))
	}
	for label := range cfg.Intent.Phrases {
		if _, err := intent.ParseLabel(label); err != nil {
			errs = append(errs, fmt.Errorf("intent.phrases: %w", err))
		}
	}

	// MCP
	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path %q must start with /", cfg.MCP.Path))
	}

	// Voice
	if cfg.Providers.TTS.Name != "" && cfg.Voice.ID == "" {
		slog.Warn("providers.tts is configured but voice.id is empty; the provider default voice is used")
	}
	if cfg.Voice.Provider != "" && cfg.Providers.TTS.Name != "" && cfg.Voice.Provider != cfg.Providers.TTS.Name {
		slog.Warn("voice provider does not match configured TTS provider",
			"voice_provider", cfg.Voice.Provider,
			"tts_provider", cfg.Providers.TTS.Name,
		)
	}

	return errors.Join(errs...)
}

// providerEntries returns the provider entries keyed by kind.
func (cfg *Config) providerEntries() map[string]ProviderEntry {
	return map[string]ProviderEntry{
		"llm":     cfg.Providers.LLM,
		"stt":     cfg.Providers.STT,
		"tts":     cfg.Providers.TTS,
		"g2p":     cfg.Providers.G2P,
		"grammar": cfg.Providers.Grammar,
	}
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
