// Package config provides the configuration schema, loader, and provider registry
// for the Lingoxa practice server.
package config

import (
	"log/slog"

	"github.com/MrWong99/lingoxa/internal/summary"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
)

// LogLevel controls log verbosity for the Lingoxa server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to its slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// StoreBackend selects where conversation records are persisted.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

// IsValid reports whether b is a recognised store backend.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreMemory, StoreSQLite, StorePostgres:
		return true
	}
	return false
}

// Mode selects between the rule-based and the LLM-backed implementation of a
// conversational component.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeKeyword  Mode = "keyword"
	ModeLLM      Mode = "llm"
)

// Config is the root configuration structure for Lingoxa.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Store      StoreConfig      `yaml:"store"`
	Dialogue   DialogueConfig   `yaml:"dialogue"`
	Intent     IntentConfig     `yaml:"intent"`
	Pattern    PatternConfig    `yaml:"pattern"`
	Topics     TopicsConfig     `yaml:"topics"`
	MCP        MCPConfig        `yaml:"mcp"`

	// Voice is the TTS voice used for replies and phoneme examples.
	Voice tts.Voice `yaml:"voice"`
}

// ServerConfig holds network and logging settings for the Lingoxa server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// SummaryFormat is "text" or "html". Empty means text.
	SummaryFormat string `yaml:"summary_format"`

	// Language is the BCP-47 tag passed to speech recognition (e.g., "en-US").
	Language string `yaml:"language"`

	// ClipCapacity bounds the number of synthesised clips held in memory.
	// Zero selects the built-in default.
	ClipCapacity int `yaml:"clip_capacity"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM     ProviderEntry `yaml:"llm"`
	STT     ProviderEntry `yaml:"stt"`
	TTS     ProviderEntry `yaml:"tts"`
	G2P     ProviderEntry `yaml:"g2p"`
	Grammar ProviderEntry `yaml:"grammar"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "deepgram").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o", "nova-2").
	Model string `yaml:"model"`

	// Options holds provider-specific values not covered by the fields above.
	Options map[string]any `yaml:"options"`

	// Fallbacks are tried in order when the primary provider fails. Nested
	// fallbacks inside a fallback entry are ignored.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// Option returns the string value of Options[key], or "" when unset.
func (e ProviderEntry) Option(key string) string {
	if v, ok := e.Options[key].(string); ok {
		return v
	}
	return ""
}

// DictionaryConfig points at CMUdict-format pronunciation files.
type DictionaryConfig struct {
	// Path is the main dictionary file. Required for reference lookups.
	Path string `yaml:"path"`

	// Extra files are merged after Path, in order.
	Extra []string `yaml:"extra"`
}

// StoreConfig selects the conversation log backend.
type StoreConfig struct {
	// Backend defaults to memory.
	Backend StoreBackend `yaml:"backend"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`
}

// DialogueConfig configures reply generation.
type DialogueConfig struct {
	// Mode is template (default) or llm.
	Mode         Mode    `yaml:"mode"`
	HistoryTurns int     `yaml:"history_turns"`
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float64 `yaml:"temperature"`

	// MaxPromptTokens, when positive, trims the oldest turns until the
	// estimated prompt size fits.
	MaxPromptTokens int `yaml:"max_prompt_tokens"`
}

// IntentConfig configures intent classification.
type IntentConfig struct {
	// Mode is keyword (default) or llm. The llm mode falls back to keyword
	// matching when the provider fails.
	Mode Mode `yaml:"mode"`

	// Threshold is the fuzzy match score for the keyword classifier.
	Threshold float64 `yaml:"threshold"`

	// Phrases override the built-in keyword phrases per label.
	Phrases map[string][]string `yaml:"phrases"`
}

// PatternConfig configures the utterance pattern recogniser.
type PatternConfig struct {
	Fillers []string `yaml:"fillers"`
}

// TopicsConfig points at an optional grammar topics file merged over the
// built-in catalog.
type TopicsConfig struct {
	File string `yaml:"file"`
}

// MCPConfig controls the embedded MCP tool server.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP mount point. Defaults to /mcp.
	Path string `yaml:"path"`
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr = ":8080"
	DefaultMCPPath    = "/mcp"
	DefaultLanguage   = "en-US"
)

// ApplyDefaults fills unset fields with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.SummaryFormat == "" {
		cfg.Server.SummaryFormat = string(summary.Text)
	}
	if cfg.Server.Language == "" {
		cfg.Server.Language = DefaultLanguage
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreMemory
	}
	if cfg.Dialogue.Mode == "" {
		cfg.Dialogue.Mode = ModeTemplate
	}
	if cfg.Intent.Mode == "" {
		cfg.Intent.Mode = ModeKeyword
	}
	if cfg.MCP.Path == "" {
		cfg.MCP.Path = DefaultMCPPath
	}
}
