package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/lingoxa/internal/app"
	"github.com/MrWong99/lingoxa/internal/config"
	"github.com/MrWong99/lingoxa/internal/conversation/memstore"
	"github.com/MrWong99/lingoxa/internal/grammar"
	grammarmock "github.com/MrWong99/lingoxa/internal/grammar/mock"
	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/resilience"
	"github.com/MrWong99/lingoxa/pkg/dictionary"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p/lexicon"
	g2pmock "github.com/MrWong99/lingoxa/pkg/provider/g2p/mock"
	"github.com/MrWong99/lingoxa/pkg/provider/stt"
	sttmock "github.com/MrWong99/lingoxa/pkg/provider/stt/mock"
	"github.com/MrWong99/lingoxa/pkg/provider/tts"
	ttsmock "github.com/MrWong99/lingoxa/pkg/provider/tts/mock"
)

// testConfig returns a defaulted config listening on a loopback port.
func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{ListenAddr: "127.0.0.1:0"},
		Voice:  tts.Voice{ID: "alloy"},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func testDictionary() *dictionary.Dictionary {
	d := dictionary.New()
	d.Add("hello", "HH", "AH0", "L", "OW1")
	d.Add("think", "TH", "IH1", "NG", "K")
	return d
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader())))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// newTestApp builds an App on mocks. Extra options are applied last.
func newTestApp(t *testing.T, cfg *config.Config, opts ...app.Option) *app.App {
	t.Helper()
	base := []app.Option{
		app.WithDictionary(testDictionary()),
		app.WithStore(memstore.New()),
		app.WithG2P(&g2pmock.Generator{Phonemes: map[string][]string{"think": {"S", "IH1", "NG", "K"}}}),
		app.WithGrammar(&grammarmock.Checker{}),
		app.WithMetrics(testMetrics(t)),
	}
	a, err := app.New(context.Background(), cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNew_WithMocks(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig())
	h := a.Handler()

	for _, path := range []string{"/healthz", "/readyz", "/topics", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200: %s", path, rec.Code, rec.Body)
		}
	}

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"text":"hello I think so"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process_input", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /process_input = %d: %s", rec.Code, rec.Body)
	}
	var res struct {
		Response            string `json:"response"`
		Intent              string `json:"intent"`
		SessionID           string `json:"session_id"`
		PronunciationErrors []struct {
			Word string `json:"word"`
		} `json:"pronunciation_errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Intent != "greeting" || res.SessionID == "" {
		t.Errorf("result = %+v, want a greeting in a new session", res)
	}
	if len(res.PronunciationErrors) != 1 || res.PronunciationErrors[0].Word != "think" {
		t.Errorf("pronunciation errors = %+v, want one for think", res.PronunciationErrors)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pronunciations/helo", nil))
	var miss struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&miss); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusNotFound || len(miss.Suggestions) == 0 || miss.Suggestions[0] != "hello" {
		t.Errorf("GET /pronunciations/helo = %d %v, want 404 suggesting hello", rec.Code, miss.Suggestions)
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(),
		app.WithDictionary(testDictionary()),
		app.WithMetrics(testMetrics(t)),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown(context.Background())

	ps := a.Providers()
	if _, ok := ps.G2P.(*lexicon.Generator); !ok {
		t.Errorf("G2P = %T, want the dictionary lexicon", ps.G2P)
	}
	if _, ok := ps.Grammar.(grammar.Disabled); !ok {
		t.Errorf("Grammar = %T, want grammar.Disabled", ps.Grammar)
	}
	if ps.LLM != nil || ps.STT != nil || ps.TTS != nil {
		t.Errorf("unconfigured slots should stay nil: %+v", ps)
	}
}

func TestNew_RegistryWithFallbacks(t *testing.T) {
	t.Parallel()

	primary := &sttmock.Provider{RecognizeErr: errors.New("socket closed")}
	backup := &sttmock.Provider{Transcript: stt.Transcript{Text: "hello"}}

	reg := config.NewRegistry()
	reg.RegisterSTT("primary", func(config.ProviderEntry) (stt.Provider, error) { return primary, nil })
	reg.RegisterSTT("backup", func(config.ProviderEntry) (stt.Provider, error) { return backup, nil })
	reg.RegisterTTS("speaker", func(config.ProviderEntry) (tts.Provider, error) { return &ttsmock.Provider{}, nil })

	cfg := testConfig()
	cfg.Providers.STT = config.ProviderEntry{
		Name: "primary",
		Fallbacks: []config.ProviderEntry{
			{Name: "not-a-provider"},
			{Name: "backup"},
		},
	}
	cfg.Providers.TTS = config.ProviderEntry{Name: "speaker"}
	cfg.Providers.LLM = config.ProviderEntry{Name: "not-a-provider"}

	a := newTestApp(t, cfg, app.WithRegistry(reg))
	ps := a.Providers()

	if _, ok := ps.STT.(*resilience.STTFallback); !ok {
		t.Fatalf("STT = %T, want a fallback group", ps.STT)
	}
	if _, ok := ps.TTS.(*ttsmock.Provider); !ok {
		t.Errorf("TTS = %T, want the bare provider without fallbacks", ps.TTS)
	}
	if ps.LLM != nil {
		t.Errorf("LLM = %T, want nil for an unregistered name", ps.LLM)
	}

	tr, err := ps.STT.Recognize(context.Background(), stt.Request{})
	if err != nil || tr.Text != "hello" {
		t.Errorf("Recognize = %q, %v; want failover to the backup", tr.Text, err)
	}
}

func TestNew_BuiltinRegistry(t *testing.T) {
	t.Parallel()

	lt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer lt.Close()

	cfg := testConfig()
	cfg.Providers.G2P = config.ProviderEntry{Name: "lexicon"}
	cfg.Providers.Grammar = config.ProviderEntry{Name: "languagetool", BaseURL: lt.URL}

	a, err := app.New(context.Background(), cfg,
		app.WithDictionary(testDictionary()),
		app.WithMetrics(testMetrics(t)),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown(context.Background())

	issues, err := a.Providers().Grammar.Check(context.Background(), "hello")
	if err != nil || len(issues) != 0 {
		t.Errorf("Check = %+v, %v", issues, err)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "llm intent without llm",
			mutate: func(c *config.Config) { c.Intent.Mode = config.ModeLLM },
			want:   "init practice",
		},
		{
			name:   "missing topics file",
			mutate: func(c *config.Config) { c.Topics.File = filepath.Join("testdata", "missing.yaml") },
			want:   "init topics",
		},
		{
			name:   "llm grammar without llm",
			mutate: func(c *config.Config) { c.Providers.Grammar = config.ProviderEntry{Name: "llm"} },
			want:   "init providers",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tc.mutate(cfg)
			_, err := app.New(context.Background(), cfg,
				app.WithDictionary(testDictionary()),
				app.WithStore(memstore.New()),
				app.WithMetrics(testMetrics(t)),
			)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestNew_SQLiteStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Store = config.StoreConfig{Backend: config.StoreSQLite, Path: filepath.Join(t.TempDir(), "lingoxa.db")}

	a, err := app.New(context.Background(), cfg,
		app.WithDictionary(testDictionary()),
		app.WithMetrics(testMetrics(t)),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d: %s", rec.Code, rec.Body)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	// A second Shutdown is a no-op.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
}

func TestNew_MCPMounted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		enabled bool
		want404 bool
	}{
		{enabled: true, want404: false},
		{enabled: false, want404: true},
	}
	for _, tc := range tests {
		cfg := testConfig()
		cfg.MCP.Enabled = tc.enabled
		a := newTestApp(t, cfg)

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, config.DefaultMCPPath, nil))
		if got := rec.Code == http.StatusNotFound; got != tc.want404 {
			t.Errorf("enabled=%v: GET /mcp = %d", tc.enabled, rec.Code)
		}
	}
}

func TestApp_ApplyConfig(t *testing.T) {
	t.Parallel()

	synth := &ttsmock.Provider{}
	level := new(slog.LevelVar)
	cfg := testConfig()
	a := newTestApp(t, cfg, app.WithTTS(synth), app.WithLogLevel(level))

	topicsFile := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(topicsFile, []byte("topics:\n  - name: idioms\n    text: Idioms are fixed phrases.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	updated := testConfig()
	updated.Server.LogLevel = config.LogDebug
	updated.Voice = tts.Voice{ID: "nova"}
	updated.Topics.File = topicsFile
	updated.Store.Backend = config.StoreSQLite

	d := config.Compare(cfg, updated)
	a.ApplyConfig(d, updated)

	if level.Level() != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", level.Level())
	}

	h := a.Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics/idioms", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /topics/idioms = %d, want the reloaded topic", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/get_audio_response", strings.NewReader(`{"response_text":"hi"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /get_audio_response = %d: %s", rec.Code, rec.Body)
	}
	if calls := synth.Calls(); len(calls) != 1 || calls[0].Voice.ID != "nova" {
		t.Errorf("synthesis calls = %+v, want the new voice", calls)
	}
}

func TestApp_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Serve() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return within 5s after context cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := a.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}
