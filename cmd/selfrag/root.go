package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/selfrag/config"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/pkg/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "selfrag",
	Short: "Self-correcting question answering over a document",
	Long: `selfrag indexes one document, plans each question into retrieval steps,
answers from the retrieved chunks, critiques the answer and revises it until
the critique passes or the round limit is reached.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Global flags.
var (
	configPath string
	logLevel   string
)

// appConfig is the configuration resolved for the running command. It is not
// validated; commands that reach a backend validate it when wiring.
var appConfig *config.Config

var shutdownTelemetry func(context.Context) error

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Parse(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.Configure(cfg.Logging.Level, cfg.Logging.Format)
	appConfig = cfg

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Endpoint:       cfg.Telemetry.Endpoint,
		})
		if err != nil {
			return err
		}
		shutdownTelemetry = shutdown
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if shutdownTelemetry == nil {
		return nil
	}
	err := shutdownTelemetry(context.WithoutCancel(cmd.Context()))
	shutdownTelemetry = nil
	return err
}
