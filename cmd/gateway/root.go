package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"interviewprep/internal/gateway/config"
	"interviewprep/internal/observability"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Interview preparation API server and tools",
	Long: `gateway serves the interview-prep HTTP, websocket and Connect APIs.
It can also migrate the session schema and run a live interview rehearsal
in the terminal.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./interviewprep.yaml or ./configs/)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rehearseCmd)
}

func loadConfig() (*config.Loader, *config.Config, error) {
	loader := config.NewLoader(configFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	observability.SetLevel(cfg.LogLevel)
	return loader, cfg, nil
}
