package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/lingoxa/internal/config"
	"github.com/MrWong99/lingoxa/internal/grammar"
	grammarmock "github.com/MrWong99/lingoxa/internal/grammar/mock"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	g2pmock "github.com/MrWong99/lingoxa/pkg/provider/g2p/mock"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
	llmmock "github.com/MrWong99/lingoxa/pkg/provider/llm/mock"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	sttmock "github.com/MrWong99/lingoxa/pkg/provider/stt/mock"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
	ttsmock "github.com/MrWong99/lingoxa/pkg/provider/tts/mock"
)

const sampleYAML = `
server:
  listen_addr: ":9000"
  log_level: debug
  summary_format: html
  language: en-GB
  clip_capacity: 16

providers:
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o
    fallbacks:
      - name: ollama
        model: llama3
  stt:
    name: deepgram
    api_key: dg-test
  tts:
    name: elevenlabs
    api_key: el-test
  g2p:
    name: remote
    base_url: http://localhost:5002
  grammar:
    name: languagetool
    base_url: http://localhost:8010
    options:
      language: en-GB

dictionary:
  path: /usr/share/cmudict/cmudict.dict
  extra:
    - ./extra.dict

store:
  backend: sqlite
  path: ./lingoxa.db

dialogue:
  mode: llm
  history_turns: 4
  max_prompt_tokens: 1500

intent:
  mode: llm
  threshold: 0.85
  phrases:
    goodbye: [see ya]

pattern:
  fillers: [um, uh, like, you know]

topics:
  file: ./topics.yaml

mcp:
  enabled: true
  path: /tools

voice:
  id: rachel
  provider: elevenlabs
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.SummaryFormat != "html" || cfg.Server.ClipCapacity != 16 {
		t.Errorf("server: got %+v", cfg.Server)
	}
	if cfg.Providers.LLM.Model != "gpt-4o" {
		t.Errorf("llm model: got %q", cfg.Providers.LLM.Model)
	}
	if len(cfg.Providers.LLM.Fallbacks) != 1 || cfg.Providers.LLM.Fallbacks[0].Name != "ollama" {
		t.Errorf("llm fallbacks: got %+v", cfg.Providers.LLM.Fallbacks)
	}
	if got := cfg.Providers.Grammar.Option("language"); got != "en-GB" {
		t.Errorf("grammar option language: got %q", got)
	}
	if cfg.Store.Backend != config.StoreSQLite || cfg.Store.Path != "./lingoxa.db" {
		t.Errorf("store: got %+v", cfg.Store)
	}
	if cfg.Dialogue.Mode != config.ModeLLM || cfg.Dialogue.HistoryTurns != 4 || cfg.Dialogue.MaxPromptTokens != 1500 {
		t.Errorf("dialogue: got %+v", cfg.Dialogue)
	}
	if cfg.Intent.Phrases["goodbye"][0] != "see ya" {
		t.Errorf("intent phrases: got %v", cfg.Intent.Phrases)
	}
	if len(cfg.Pattern.Fillers) != 4 {
		t.Errorf("pattern fillers: got %v", cfg.Pattern.Fillers)
	}
	if !cfg.MCP.Enabled || cfg.MCP.Path != "/tools" {
		t.Errorf("mcp: got %+v", cfg.MCP)
	}
	if cfg.Voice.ID != "rachel" {
		t.Errorf("voice id: got %q", cfg.Voice.ID)
	}
}

func TestLoadFromReader_EmptyAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("listen_addr = %q, want %q", cfg.Server.ListenAddr, config.DefaultListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo || cfg.Server.SummaryFormat != "text" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Store.Backend != config.StoreMemory {
		t.Errorf("store.backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Dialogue.Mode != config.ModeTemplate || cfg.Intent.Mode != config.ModeKeyword {
		t.Errorf("modes = %q/%q, want template/keyword", cfg.Dialogue.Mode, cfg.Intent.Mode)
	}
	if cfg.MCP.Path != config.DefaultMCPPath {
		t.Errorf("mcp.path = %q", cfg.MCP.Path)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("npcs: []\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lingoxa.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Language != "en-GB" {
		t.Errorf("language = %q", cfg.Server.Language)
	}

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("Load(missing) error = %v, want path in message", err)
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	entry := config.ProviderEntry{Name: "nonexistent"}

	creates := map[string]func() error{
		"llm":     func() error { _, err := reg.CreateLLM(entry); return err },
		"stt":     func() error { _, err := reg.CreateSTT(entry); return err },
		"tts":     func() error { _, err := reg.CreateTTS(entry); return err },
		"g2p":     func() error { _, err := reg.CreateG2P(entry); return err },
		"grammar": func() error { _, err := reg.CreateGrammar(entry); return err },
	}
	for kind, create := range creates {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			err := create()
			if !errors.Is(err, config.ErrProviderNotRegistered) {
				t.Fatalf("expected ErrProviderNotRegistered, got %v", err)
			}
			if !strings.Contains(err.Error(), kind+`/"nonexistent"`) {
				t.Errorf("error %q should name the kind and provider", err)
			}
		})
	}
}

func TestRegistry_Registered(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	var gotEntry config.ProviderEntry
	reg.RegisterLLM("test-llm", func(e config.ProviderEntry) (llm.Provider, error) {
		gotEntry = e
		return &llmmock.Provider{}, nil
	})
	reg.RegisterSTT("test-stt", func(config.ProviderEntry) (stt.Provider, error) { return &sttmock.Provider{}, nil })
	reg.RegisterTTS("test-tts", func(config.ProviderEntry) (tts.Provider, error) { return &ttsmock.Provider{}, nil })
	reg.RegisterG2P("test-g2p", func(config.ProviderEntry) (g2p.Generator, error) { return &g2pmock.Generator{}, nil })
	reg.RegisterGrammar("test-grammar", func(config.ProviderEntry) (grammar.Checker, error) { return &grammarmock.Checker{}, nil })

	p, err := reg.CreateLLM(config.ProviderEntry{Name: "test-llm", Model: "m"})
	if err != nil || p == nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if gotEntry.Model != "m" {
		t.Errorf("factory received entry %+v", gotEntry)
	}
	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "test-stt"}); err != nil {
		t.Errorf("CreateSTT: %v", err)
	}
	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "test-tts"}); err != nil {
		t.Errorf("CreateTTS: %v", err)
	}
	if _, err := reg.CreateG2P(config.ProviderEntry{Name: "test-g2p"}); err != nil {
		t.Errorf("CreateG2P: %v", err)
	}
	if _, err := reg.CreateGrammar(config.ProviderEntry{Name: "test-grammar"}); err != nil {
		t.Errorf("CreateGrammar: %v", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	want := errors.New("bad api key")
	reg.RegisterTTS("broken", func(config.ProviderEntry) (tts.Provider, error) { return nil, want })

	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "broken"}); !errors.Is(err, want) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestRegistry_FactoryMayUseRegistry(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	reg.RegisterLLM("base", func(config.ProviderEntry) (llm.Provider, error) { return &llmmock.Provider{}, nil })
	reg.RegisterG2P("llm", func(config.ProviderEntry) (g2p.Generator, error) {
		if _, err := reg.CreateLLM(config.ProviderEntry{Name: "base"}); err != nil {
			return nil, err
		}
		return &g2pmock.Generator{}, nil
	})

	if _, err := reg.CreateG2P(config.ProviderEntry{Name: "llm"}); err != nil {
		t.Fatalf("CreateG2P: %v", err)
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.in.Level(); got != tc.want {
			t.Errorf("LogLevel(%q).Level() = %v, want %v", tc.in, got, tc.want)
		}
	}
}
