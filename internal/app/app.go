// Package app wires all Lingoxa subsystems into a running application.
//
// The App struct owns the full lifecycle: New loads the dictionary, builds
// the providers from the config registry and connects the practice pipeline,
// Run serves HTTP until the context ends, and Shutdown tears everything down.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithLLM, WithSTT, etc.). When an option is not provided, New
// creates the real implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lingoxa/internal/api"
	"github.com/MrWong99/lingoxa/internal/config"
	"github.com/MrWong99/lingoxa/internal/conversation"
	"github.com/MrWong99/lingoxa/internal/conversation/memstore"
	"github.com/MrWong99/lingoxa/internal/conversation/postgres"
	"github.com/MrWong99/lingoxa/internal/conversation/sqlite"
	"github.com/MrWong99/lingoxa/internal/dialogue"
	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/internal/health"
	"github.com/MrWong99/lingoxa/internal/intent"
	"github.com/MrWong99/lingoxa/internal/mcp"
	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/pattern"
	"github.com/MrWong99/lingoxa/internal/practice"
	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/internal/resilience"
	"github.com/MrWong99/lingoxa/internal/summary"
	"github.com/MrWong99/lingoxa/internal/topics"
	"github.com/MrWong99/lingoxa/pkg/dictionary"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p/lexicon"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
)

// shutdownGrace bounds how long Run waits for in-flight requests.
const shutdownGrace = 10 * time.Second

// App owns all subsystem lifetimes and serves the practice API.
type App struct {
	cfg       *config.Config
	providers Providers
	registry  *config.Registry
	metrics   *observe.Metrics
	level     *slog.LevelVar
	version   string

	// Subsystems, initialised in New.
	dict     *dictionary.Dictionary
	store    conversation.Store
	topics   *topics.Catalog
	analyzer *pronunciation.Analyzer
	practice *practice.Service
	api      *api.Server
	handler  http.Handler

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a conversation store instead of opening the configured
// backend. The caller keeps ownership and closes it.
func WithStore(s conversation.Store) Option {
	return func(a *App) { a.store = s }
}

// WithDictionary injects a pronunciation dictionary instead of loading
// dictionary.path.
func WithDictionary(d *dictionary.Dictionary) Option {
	return func(a *App) { a.dict = d }
}

// WithLLM injects the LLM provider.
func WithLLM(p llm.Provider) Option {
	return func(a *App) { a.providers.LLM = p }
}

// WithSTT injects the speech recogniser.
func WithSTT(p stt.Provider) Option {
	return func(a *App) { a.providers.STT = p }
}

// WithTTS injects the speech synthesiser.
func WithTTS(p tts.Provider) Option {
	return func(a *App) { a.providers.TTS = p }
}

// WithG2P injects the grapheme-to-phoneme backend.
func WithG2P(g g2p.Generator) Option {
	return func(a *App) { a.providers.G2P = g }
}

// WithGrammar injects the grammar checker.
func WithGrammar(c grammar.Checker) Option {
	return func(a *App) { a.providers.Grammar = c }
}

// WithRegistry adds provider factories. A name registered in r takes
// precedence over the built-in factory of the same name.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithMetrics sets the metric instruments. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel lets [App.ApplyConfig] adjust the level of the process logger.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Use Option functions
// to inject test doubles for any provider or the store.
//
// New performs all initialisation synchronously: dictionary loading, provider
// construction, store connection, and assembly of the practice pipeline and
// HTTP handler. On error every resource opened so far is released.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// ── 1. Dictionary ────────────────────────────────────────────────────
	if err := a.initDictionary(); err != nil {
		return nil, fmt.Errorf("app: init dictionary: %w", err)
	}

	// ── 2. Providers ─────────────────────────────────────────────────────
	if err := a.initProviders(); err != nil {
		return nil, fmt.Errorf("app: init providers: %w", err)
	}

	// ── 3. Conversation store ────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 4. Topics ────────────────────────────────────────────────────────
	if err := a.initTopics(); err != nil {
		return nil, fmt.Errorf("app: init topics: %w", err)
	}

	// ── 5. Practice pipeline ─────────────────────────────────────────────
	if err := a.initPractice(); err != nil {
		return nil, fmt.Errorf("app: init practice: %w", err)
	}

	// ── 6. HTTP surface ──────────────────────────────────────────────────
	if err := a.initHTTP(); err != nil {
		return nil, fmt.Errorf("app: init http: %w", err)
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initDictionary loads dictionary.path and merges the extra files.
func (a *App) initDictionary() error {
	if a.dict != nil {
		return nil
	}
	if a.cfg.Dictionary.Path == "" {
		a.dict = dictionary.New()
		return nil
	}

	d, err := dictionary.LoadFile(a.cfg.Dictionary.Path)
	if err != nil {
		return err
	}
	for _, path := range a.cfg.Dictionary.Extra {
		if err := mergeFile(d, path); err != nil {
			return err
		}
	}
	slog.Info("loaded pronunciation dictionary", "path", a.cfg.Dictionary.Path, "words", d.Len())
	a.dict = d
	return nil
}

func mergeFile(d *dictionary.Dictionary, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()
	if err := d.Load(f); err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}
	return nil
}

// initProviders fills every slot not injected by an option from the
// registry. The llm slot goes first; other backends may depend on it.
func (a *App) initProviders() error {
	if a.registry == nil {
		a.registry = config.NewRegistry()
	}
	builtin := config.NewRegistry()
	registerBuiltinProviders(builtin, a.dict, &a.providers)

	ps := &a.providers
	p := a.cfg.Providers
	fallback := func(kind string) resilience.FallbackConfig {
		return resilience.FallbackConfig{Kind: kind, Metrics: a.metrics}
	}

	if ps.LLM == nil {
		chain, err := createChain("llm", p.LLM, pick(a.registry.CreateLLM, builtin.CreateLLM))
		if err != nil {
			return err
		}
		if len(chain) > 0 {
			ps.LLM = assemble(chain, fallback("llm"), resilience.NewLLMFallback)
		}
	}
	if ps.STT == nil {
		chain, err := createChain("stt", p.STT, pick(a.registry.CreateSTT, builtin.CreateSTT))
		if err != nil {
			return err
		}
		if len(chain) > 0 {
			ps.STT = assemble(chain, fallback("stt"), resilience.NewSTTFallback)
		}
	}
	if ps.TTS == nil {
		chain, err := createChain("tts", p.TTS, pick(a.registry.CreateTTS, builtin.CreateTTS))
		if err != nil {
			return err
		}
		if len(chain) > 0 {
			ps.TTS = assemble(chain, fallback("tts"), resilience.NewTTSFallback)
		}
	}
	if ps.G2P == nil {
		chain, err := createChain("g2p", p.G2P, pick(a.registry.CreateG2P, builtin.CreateG2P))
		if err != nil {
			return err
		}
		if len(chain) > 0 {
			ps.G2P = assemble(chain, fallback("g2p"), resilience.NewG2PFallback)
		}
	}
	if ps.Grammar == nil {
		chain, err := createChain("grammar", p.Grammar, pick(a.registry.CreateGrammar, builtin.CreateGrammar))
		if err != nil {
			return err
		}
		if len(chain) > 0 {
			ps.Grammar = assemble(chain, fallback("grammar"), resilience.NewGrammarFallback)
		}
	}

	if ps.G2P == nil {
		slog.Info("no g2p backend configured, using the dictionary lexicon")
		ps.G2P = lexicon.New(a.dict)
	}
	if ps.Grammar == nil {
		slog.Warn("no grammar checker configured, grammar feedback is disabled")
		ps.Grammar = grammar.Disabled{}
	}
	return nil
}

// pick tries the caller's registry first and the built-in factories second.
func pick[T any](custom, builtin func(config.ProviderEntry) (T, error)) func(config.ProviderEntry) (T, error) {
	return func(e config.ProviderEntry) (T, error) {
		v, err := custom(e)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			return builtin(e)
		}
		return v, err
	}
}

// initStore opens the configured conversation backend.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	switch a.cfg.Store.Backend {
	case config.StoreSQLite:
		s, err := sqlite.Open(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		a.store = s
	case config.StorePostgres:
		s, err := postgres.NewStore(ctx, a.cfg.Store.DSN)
		if err != nil {
			return err
		}
		a.store = s
	default:
		a.store = memstore.New()
	}
	a.closers = append(a.closers, a.store.Close)
	slog.Info("conversation store ready", "backend", a.cfg.Store.Backend)
	return nil
}

func (a *App) initTopics() error {
	if a.cfg.Topics.File == "" {
		a.topics = topics.Builtin()
		return nil
	}
	c, err := topics.LoadFile(a.cfg.Topics.File)
	if err != nil {
		return err
	}
	a.topics = c
	return nil
}

// initPractice assembles the analyzers and the practice service.
func (a *App) initPractice() error {
	a.analyzer = pronunciation.NewAnalyzer(
		pronunciation.NewAdapter(a.providers.G2P, a.dict),
		pronunciation.WithMetrics(a.metrics),
	)

	classifier, err := a.buildIntent()
	if err != nil {
		return err
	}

	format, err := summary.ParseFormat(a.cfg.Server.SummaryFormat)
	if err != nil {
		return err
	}

	var patternOpts []pattern.Option
	if len(a.cfg.Pattern.Fillers) > 0 {
		patternOpts = append(patternOpts, pattern.WithFillers(a.cfg.Pattern.Fillers...))
	}

	svc, err := practice.New(practice.Config{
		Store:         a.store,
		Pattern:       pattern.New(patternOpts...),
		Grammar:       a.providers.Grammar,
		Pronunciation: a.analyzer,
		Intent:        classifier,
		Dialogue:      a.buildDialogue(),
		Summary:       summary.New(summary.WithFormat(format), summary.WithMetrics(a.metrics)),
		Metrics:       a.metrics,
	})
	if err != nil {
		return err
	}
	a.practice = svc
	return nil
}

func (a *App) buildIntent() (intent.Classifier, error) {
	var opts []intent.KeywordOption
	for name, phrases := range a.cfg.Intent.Phrases {
		label, err := intent.ParseLabel(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, intent.WithPhrases(label, phrases...))
	}
	if a.cfg.Intent.Threshold > 0 {
		opts = append(opts, intent.WithThreshold(a.cfg.Intent.Threshold))
	}
	keyword := intent.NewKeyword(opts...)

	if a.cfg.Intent.Mode != config.ModeLLM {
		return keyword, nil
	}
	if a.providers.LLM == nil {
		return nil, errors.New("intent.mode llm needs an llm provider")
	}
	return intent.NewLLM(a.providers.LLM, intent.WithFallback(keyword)), nil
}

func (a *App) buildDialogue() dialogue.Generator {
	dc := a.cfg.Dialogue
	if dc.Mode != config.ModeLLM || a.providers.LLM == nil {
		return dialogue.Template{}
	}
	var opts []dialogue.LLMOption
	if dc.HistoryTurns > 0 {
		opts = append(opts, dialogue.WithHistoryTurns(dc.HistoryTurns))
	}
	if dc.SystemPrompt != "" {
		opts = append(opts, dialogue.WithSystemPrompt(dc.SystemPrompt))
	}
	if dc.MaxPromptTokens > 0 {
		opts = append(opts, dialogue.WithTokenBudget(dc.MaxPromptTokens))
	}
	if dc.Temperature > 0 {
		opts = append(opts, dialogue.WithTemperature(dc.Temperature))
	}
	return dialogue.NewLLM(a.providers.LLM, opts...)
}

// initHTTP builds the API, health, metrics and MCP routes.
func (a *App) initHTTP() error {
	srv, err := api.New(api.Config{
		Practice:  a.practice,
		STT:       a.providers.STT,
		TTS:       a.providers.TTS,
		Voice:     a.cfg.Voice,
		Language:  a.cfg.Server.Language,
		Topics:    a.topics,
		Lexicon:   a.analyzer,
		Suggester: a.dict,
		Clips:     api.NewClipCache(a.cfg.Server.ClipCapacity, a.metrics),
		Metrics:   a.metrics,
	})
	if err != nil {
		return err
	}
	a.api = srv

	mux := http.NewServeMux()
	srv.Register(mux)

	checks := []health.Checker{health.NonEmpty("dictionary", a.dict.Len)}
	if p, ok := a.store.(conversation.Pinger); ok {
		checks = append(checks, health.Ping("store", p))
	}
	health.New(checks...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	if a.cfg.MCP.Enabled {
		tools, err := mcp.NewServer(mcp.Config{
			Version:  a.version,
			Analyzer: a.analyzer,
			Topics:   a.topics,
			Metrics:  a.metrics,
		})
		if err != nil {
			return err
		}
		mux.Handle(a.cfg.MCP.Path, mcp.Handler(tools))
		slog.Info("mcp tool server mounted", "path", a.cfg.MCP.Path)
	}

	a.handler = observe.Middleware(a.metrics)(mux)
	return nil
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Handler returns the instrumented HTTP handler with every route.
func (a *App) Handler() http.Handler { return a.handler }

// Practice returns the practice service.
func (a *App) Practice() *practice.Service { return a.practice }

// Analyzer returns the pronunciation analyzer.
func (a *App) Analyzer() *pronunciation.Analyzer { return a.analyzer }

// Providers returns the providers in use, including defaults.
func (a *App) Providers() Providers { return a.providers }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP on server.listen_addr and blocks until ctx is cancelled or
// the listener fails. In-flight requests get a grace period to finish.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is like Run on an existing listener. It closes ln.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("lingoxa listening", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)
	return g.Wait()
}

// ─── Config reload ───────────────────────────────────────────────────────────

// ApplyConfig applies the hot-reloadable parts of a config change: the log
// level, the synthesis voice and the grammar topics file. Sections listed in
// d.Restart are only logged.
func (a *App) ApplyConfig(d config.Diff, cfg *config.Config) {
	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.VoiceChanged {
		a.api.SetVoice(cfg.Voice)
		slog.Info("voice changed", "voice", cfg.Voice.ID)
	}
	if d.TopicsChanged && cfg.Topics.File != "" {
		if err := mergeTopics(a.topics, cfg.Topics.File); err != nil {
			slog.Warn("topics reload failed, keeping the old catalog", "err", err)
		} else {
			slog.Info("topics reloaded", "file", cfg.Topics.File)
		}
	}
	if len(d.Restart) > 0 {
		slog.Warn("config changes take effect after a restart", "sections", d.Restart)
	}
}

// mergeTopics loads path into c. Topics removed from the file stay until
// the next restart.
func mergeTopics(c *topics.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Load(f)
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// close releases resources after a failed New.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
