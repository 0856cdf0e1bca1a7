package config_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/lingoxa/internal/config"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	base := func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{ListenAddr: ":8080", LogLevel: config.LogInfo, SummaryFormat: "text"},
			Voice:  tts.Voice{ID: "alloy"},
			Store:  config.StoreConfig{Backend: config.StoreMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		check   func(t *testing.T, d config.Diff)
		restart []string
	}{
		{
			name:   "no changes",
			mutate: func(*config.Config) {},
			check: func(t *testing.T, d config.Diff) {
				if d.Changed() {
					t.Errorf("Changed() = true for identical configs: %+v", d)
				}
			},
		},
		{
			name:   "log level",
			mutate: func(c *config.Config) { c.Server.LogLevel = config.LogDebug },
			check: func(t *testing.T, d config.Diff) {
				if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
					t.Errorf("diff = %+v, want log level debug", d)
				}
			},
		},
		{
			name:    "summary format needs restart",
			mutate:  func(c *config.Config) { c.Server.SummaryFormat = "html" },
			restart: []string{"server"},
		},
		{
			name:   "voice and topics",
			mutate: func(c *config.Config) { c.Voice.ID = "nova"; c.Topics.File = "topics.yaml" },
			check: func(t *testing.T, d config.Diff) {
				if !d.VoiceChanged || !d.TopicsChanged {
					t.Errorf("diff = %+v, want voice and topics changes", d)
				}
			},
		},
		{
			name: "restart sections sorted",
			mutate: func(c *config.Config) {
				c.Server.ListenAddr = ":9090"
				c.Providers.LLM.Name = "openai"
				c.Dialogue.HistoryTurns = 4
			},
			restart: []string{"dialogue", "providers", "server"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			old, updated := base(), base()
			tc.mutate(updated)
			d := config.Compare(old, updated)
			if tc.check != nil {
				tc.check(t, d)
			}
			if !slices.Equal(d.Restart, tc.restart) {
				t.Errorf("Restart = %v, want %v", d.Restart, tc.restart)
			}
		})
	}
}
