package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/lingoxa/internal/app"
	"github.com/MrWong99/lingoxa/internal/config"
	"github.com/MrWong99/lingoxa/internal/observe"
)

var watchInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the practice HTTP server",
	Long: `Serve the practice API, health probes, Prometheus metrics and, when
enabled, the MCP tool server.

The config file is watched while the server runs. Changes to the log level,
the voice and the topics file apply at once; other sections need a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&watchInterval, "watch-interval", 5*time.Second, "how often the config file is checked for changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Configuration + hot reload ────────────────────────────────────────────
	var current atomic.Pointer[app.App]
	watcher, err := config.NewWatcher(cfgFile, func(_, updated *config.Config, d config.Diff) {
		if a := current.Load(); a != nil {
			a.ApplyConfig(d, updated)
		}
	}, config.WithInterval(watchInterval))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found, copy configs/example.yaml to get started", cfgFile)
		}
		return err
	}
	defer watcher.Stop()

	cfg := watcher.Current()
	logLevel.Set(cfg.Server.LogLevel.Level())
	slog.Info("lingoxa starting",
		"version", version,
		"config", cfgFile,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return err
	}
	metrics, err := observe.NewMetrics(tel.MeterProvider)
	if err != nil {
		return err
	}

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(ctx, cfg,
		app.WithMetrics(metrics),
		app.WithLogLevel(logLevel),
		app.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("initialise application: %w", err)
	}
	current.Store(application)

	printStartupSummary(cfg, application.Providers())

	slog.Info("server ready, press Ctrl+C to shut down")
	runErr := application.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("stopping")
	watcher.Stop()
	shutdownErr := errors.Join(application.Shutdown(shutdownCtx), tel.Shutdown(shutdownCtx))
	if shutdownErr != nil {
		slog.Error("shutdown error", "err", shutdownErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if shutdownErr != nil {
		return shutdownErr
	}
	slog.Info("goodbye")
	return nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, ps app.Providers) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Lingoxa startup summary       ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM, ps.LLM != nil)
	printProvider("STT", cfg.Providers.STT, ps.STT != nil)
	printProvider("TTS", cfg.Providers.TTS, ps.TTS != nil)
	printProvider("G2P", cfg.Providers.G2P, true)
	printProvider("Grammar", cfg.Providers.Grammar, true)
	printRow("Store", string(cfg.Store.Backend))
	printRow("Dialogue", string(cfg.Dialogue.Mode))
	printRow("Intent", string(cfg.Intent.Mode))
	if cfg.MCP.Enabled {
		printRow("MCP", cfg.MCP.Path)
	} else {
		printRow("MCP", "(disabled)")
	}
	printRow("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind string, entry config.ProviderEntry, active bool) {
	value := entry.Name
	switch {
	case value == "" && active:
		value = "(default)"
	case value == "" || !active:
		value = "(not configured)"
	case entry.Model != "":
		value = entry.Name + " / " + entry.Model
	}
	if n := len(entry.Fallbacks); n > 0 && active {
		value = fmt.Sprintf("%s +%d", value, n)
	}
	printRow(kind, value)
}

func printRow(label, value string) {
	if r := []rune(value); len(r) > 19 {
		value = string(r[:18]) + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", label, value)
}
