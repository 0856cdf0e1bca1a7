package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/lingoxa/internal/config"
	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/internal/grammar/languagetool"
	"github.com/MrWong99/lingoxa/internal/grammar/llmcheck"
	"github.com/MrWong99/lingoxa/internal/resilience"
	"github.com/MrWong99/lingoxa/pkg/dictionary"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p/lexicon"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p/llmg2p"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p/remote"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
	"github.com/MrWong99/lingoxa/pkg/provider/llm/anyllm"
	"github.com/MrWong99/lingoxa/pkg/provider/llm/openai"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	"github.com/MrWong99/lingoxa/pkg/provider/stt/deepgram"
	"github.com/MrWong99/lingoxa/pkg/provider/stt/whisper"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
	"github.com/MrWong99/lingoxa/pkg/provider/tts/coqui"
	"github.com/MrWong99/lingoxa/pkg/provider/tts/elevenlabs"
)

// Providers holds one value per provider slot. Nil means the slot is not
// configured. A slot with fallbacks holds the resilience wrapper.
type Providers struct {
	LLM     llm.Provider
	STT     stt.Provider
	TTS     tts.Provider
	G2P     g2p.Generator
	Grammar grammar.Checker
}

// registerBuiltinProviders wires every built-in factory into reg. The
// lexicon g2p backend reads dict; the llm g2p and grammar backends reuse the
// LLM already built into ps, so the llm slot must be built first.
func registerBuiltinProviders(reg *config.Registry, dict *dictionary.Dictionary, ps *Providers) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := entry.Option("organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		if d := optDuration(entry, "timeout"); d > 0 {
			opts = append(opts, openai.WithTimeout(d))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile", "ollama",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			// ollama is a local server addressed by BaseURL alone.
			if entry.APIKey != "" && providerName != "ollama" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ── STT ───────────────────────────────────────────────────────────────────
	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := entry.Option("language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.Option("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if rms := optFloat(entry, "rms_threshold"); rms > 0 {
			opts = append(opts, whisper.WithRMSThreshold(rms))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = entry.Option("model_path")
		}
		var opts []whisper.NativeOption
		if lang := entry.Option("language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		if rms := optFloat(entry, "rms_threshold"); rms > 0 {
			opts = append(opts, whisper.WithNativeRMSThreshold(rms))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────
	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt := entry.Option("output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := entry.Option("language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := entry.Option("api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		if d := optDuration(entry, "timeout"); d > 0 {
			opts = append(opts, coqui.WithTimeout(d))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	// ── G2P ───────────────────────────────────────────────────────────────────
	reg.RegisterG2P("remote", func(entry config.ProviderEntry) (g2p.Generator, error) {
		var opts []remote.Option
		if entry.APIKey != "" {
			opts = append(opts, remote.WithAPIKey(entry.APIKey))
		}
		if d := optDuration(entry, "timeout"); d > 0 {
			opts = append(opts, remote.WithTimeout(d))
		}
		return remote.New(entry.BaseURL, opts...)
	})

	reg.RegisterG2P("llm", func(config.ProviderEntry) (g2p.Generator, error) {
		if ps.LLM == nil {
			return nil, errors.New("the llm g2p backend needs providers.llm")
		}
		return llmg2p.New(ps.LLM)
	})

	reg.RegisterG2P("lexicon", func(config.ProviderEntry) (g2p.Generator, error) {
		return lexicon.New(dict), nil
	})

	// ── Grammar ───────────────────────────────────────────────────────────────
	reg.RegisterGrammar("languagetool", func(entry config.ProviderEntry) (grammar.Checker, error) {
		var opts []languagetool.Option
		if lang := entry.Option("language"); lang != "" {
			opts = append(opts, languagetool.WithLanguage(lang))
		}
		if user := entry.Option("username"); user != "" {
			opts = append(opts, languagetool.WithCredentials(user, entry.APIKey))
		}
		return languagetool.New(entry.BaseURL, opts...)
	})

	reg.RegisterGrammar("llm", func(entry config.ProviderEntry) (grammar.Checker, error) {
		if ps.LLM == nil {
			return nil, errors.New("the llm grammar backend needs providers.llm")
		}
		var opts []llmcheck.Option
		if temp := optFloat(entry, "temperature"); temp > 0 {
			opts = append(opts, llmcheck.WithTemperature(temp))
		}
		return llmcheck.New(ps.LLM, opts...), nil
	})

	for kind, names := range config.ValidProviderNames {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// named is one link of a provider chain.
type named[T any] struct {
	name  string
	value T
}

// createChain instantiates entry and its fallbacks. An empty or unregistered
// primary yields an empty chain; an unregistered fallback is skipped.
func createChain[T any](kind string, entry config.ProviderEntry, create func(config.ProviderEntry) (T, error)) ([]named[T], error) {
	if entry.Name == "" {
		return nil, nil
	}
	var chain []named[T]
	for i, e := range append([]config.ProviderEntry{entry}, entry.Fallbacks...) {
		p, err := create(e)
		switch {
		case errors.Is(err, config.ErrProviderNotRegistered):
			slog.Warn("provider not registered, skipping", "kind", kind, "name", e.Name)
			if i == 0 {
				return nil, nil
			}
			continue
		case err != nil:
			return nil, fmt.Errorf("create %s provider %q: %w", kind, e.Name, err)
		}
		chain = append(chain, named[T]{name: linkName(e), value: p})
		slog.Info("provider created", "kind", kind, "name", e.Name, "fallback", i > 0)
	}
	return chain, nil
}

// assemble returns the single provider of chain, or a fallback group over all
// of them built by newGroup.
func assemble[T any, W interface{ AddFallback(string, T) }](
	chain []named[T],
	cfg resilience.FallbackConfig,
	newGroup func(T, string, resilience.FallbackConfig) W,
) T {
	if len(chain) == 1 {
		return chain[0].value
	}
	g := newGroup(chain[0].value, chain[0].name, cfg)
	for _, link := range chain[1:] {
		g.AddFallback(link.name, link.value)
	}
	return any(g).(T)
}

// linkName labels a provider in breaker logs and error metrics.
func linkName(e config.ProviderEntry) string {
	if e.Model == "" {
		return e.Name
	}
	return e.Name + "/" + e.Model
}

// optFloat parses a numeric provider option. YAML numbers arrive as int or
// float64; strings are parsed. Anything else is 0.
func optFloat(e config.ProviderEntry, key string) float64 {
	switch v := e.Options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// optDuration parses a duration option such as "15s".
func optDuration(e config.ProviderEntry, key string) time.Duration {
	d, err := time.ParseDuration(e.Option(key))
	if err != nil {
		return 0
	}
	return d
}
