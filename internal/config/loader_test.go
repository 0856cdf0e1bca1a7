package config_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/lingoxa/internal/config"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		// wantErr lists substrings the joined error must contain; empty
		// means the config is valid.
		wantErr []string
	}{
		{
			name:    "invalid log level",
			yaml:    "server:\n  log_level: verbose\n",
			wantErr: []string{"server.log_level"},
		},
		{
			name:    "invalid summary format",
			yaml:    "server:\n  summary_format: pdf\n",
			wantErr: []string{"server.summary_format"},
		},
		{
			name:    "negative clip capacity",
			yaml:    "server:\n  clip_capacity: -1\n",
			wantErr: []string{"clip_capacity"},
		},
		{
			name:    "tls needs both files",
			yaml:    "server:\n  tls:\n    cert_file: cert.pem\n",
			wantErr: []string{"server.tls"},
		},
		{
			name:    "sqlite needs path",
			yaml:    "store:\n  backend: sqlite\n",
			wantErr: []string{"store.path"},
		},
		{
			name:    "postgres needs dsn",
			yaml:    "store:\n  backend: postgres\n",
			wantErr: []string{"store.dsn"},
		},
		{
			name:    "unknown backend",
			yaml:    "store:\n  backend: redis\n",
			wantErr: []string{"store.backend"},
		},
		{
			name:    "negative prompt budget",
			yaml:    "dialogue:\n  max_prompt_tokens: -5\n",
			wantErr: []string{"dialogue.max_prompt_tokens"},
		},
		{
			name:    "llm dialogue without llm",
			yaml:    "dialogue:\n  mode: llm\n",
			wantErr: []string{"dialogue.mode"},
		},
		{
			name:    "invalid dialogue mode",
			yaml:    "dialogue:\n  mode: keyword\n",
			wantErr: []string{`dialogue.mode "keyword" is invalid`},
		},
		{
			name:    "llm intent without llm",
			yaml:    "intent:\n  mode: llm\n",
			wantErr: []string{"intent.mode"},
		},
		{
			name:    "threshold out of range",
			yaml:    "intent:\n  threshold: 1.5\n",
			wantErr: []string{"intent.threshold"},
		},
		{
			name:    "unknown intent label",
			yaml:    "intent:\n  phrases:\n    farewell: [bye]\n",
			wantErr: []string{"intent.phrases"},
		},
		{
			name:    "llm g2p and grammar without llm",
			yaml:    "providers:\n  g2p:\n    name: llm\n  grammar:\n    name: llm\n",
			wantErr: []string{"providers.g2p", "providers.grammar"},
		},
		{
			name:    "lexicon g2p without dictionary",
			yaml:    "providers:\n  g2p:\n    name: lexicon\n",
			wantErr: []string{"dictionary.path"},
		},
		{
			name:    "fallback without name or primary",
			yaml:    "providers:\n  stt:\n    fallbacks:\n      - model: x\n",
			wantErr: []string{"providers.stt.fallbacks[0].name", "without a primary"},
		},
		{
			name:    "mcp path must be absolute",
			yaml:    "mcp:\n  enabled: true\n  path: tools\n",
			wantErr: []string{"mcp.path"},
		},
		{
			name: "llm modes with provider",
			yaml: "providers:\n  llm:\n    name: openai\n  g2p:\n    name: llm\ndialogue:\n  mode: llm\nintent:\n  mode: llm\n",
		},
		{
			name: "unknown provider name only warns",
			yaml: "providers:\n  tts:\n    name: my-tts\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if len(tc.wantErr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %v, got nil", tc.wantErr)
			}
			for _, want := range tc.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q should contain %q", err, want)
				}
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  log_level: loud
store:
  backend: sqlite
dialogue:
  mode: llm
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	if n := len(strings.Split(err.Error(), "\n")); n != 3 {
		t.Errorf("got %d joined errors, want 3: %v", n, err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"llm", "stt", "tts", "g2p", "grammar"} {
		names, ok := config.ValidProviderNames[kind]
		if !ok || len(names) == 0 {
			t.Errorf("ValidProviderNames[%q] is empty", kind)
		}
	}
	if !slices.Contains(config.ValidProviderNames["stt"], "whisper-native") {
		t.Error("whisper-native should be a known stt provider")
	}
}
