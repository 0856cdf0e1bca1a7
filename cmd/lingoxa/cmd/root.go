// Package cmd contains the lingoxa CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/lingoxa/internal/app"
	"github.com/MrWong99/lingoxa/internal/config"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	cfgFile  string
	logLevel = new(slog.LevelVar)
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lingoxa",
	Short: "Spoken-language practice server with pronunciation feedback",
	Long: `Lingoxa listens to a learner, transcribes what they said and answers with
grammar corrections, pronunciation feedback and a conversational reply.

Pronunciation feedback compares the phonemes a learner produced with the
dictionary pronunciation and explains the first sound that went wrong.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lingoxa: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the YAML configuration file")
}

// loadConfig reads --config. A missing file yields the defaults so the
// offline commands work without any setup.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "config", cfgFile)
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	logLevel.Set(cfg.Server.LogLevel.Level())
	return cfg, nil
}

// buildApp wires the application for a one-shot command. Metrics go to the
// global no-op provider. The caller shuts the app down.
func buildApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	return app.New(ctx, cfg, app.WithVersion(version), app.WithLogLevel(logLevel))
}
