package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interviewprep/internal/gateway/app"
	"interviewprep/internal/gateway/config"
	"interviewprep/internal/observability"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown budget")
}

func runServe(cmd *cobra.Command, _ []string) error {
	loader, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			observability.Logger().Warn("config reload failed", "error", err)
			return
		}
		if logLevel == "" && observability.SetLevel(next.LogLevel) {
			observability.Logger().Info("log level updated", "log_level", next.LogLevel)
		}
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			observability.Logger().Error("server error", "error", err)
		}
	}

	observability.Logger().Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	observability.Logger().Info("server exiting")
	return nil
}
