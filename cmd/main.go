package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shaibs3/mediavault/internal/app"
	"github.com/shaibs3/mediavault/internal/config"
	"github.com/shaibs3/mediavault/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mediavault",
	Short: "Track pages, harvest their media and keep download state reconciled",
	Long: `mediavault keeps a list of source pages, downloads the images and videos they
reference into per-link directories and reconciles the persisted counters with
what is on disk. Without a subcommand it serves the HTTP API.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, versionCmd)
	rootCmd.AddCommand(harvestCommands()...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the application logger and wires the app
func bootstrap() (*app.App, *zap.Logger, error) {
	// Initialize logger first (for configuration loading)
	initialLogger, err := logger.NewLogger("production", "info")
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer func() {
		_ = initialLogger.Sync()
	}()

	// Load configuration
	cfg := config.Load(initialLogger)

	// Create application logger with the configured environment and level
	appLogger, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create application logger: %w", err)
	}

	appLogger.Info("Build info",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	// Initialize and wire the application
	a, err := app.NewApp(cfg, appLogger)
	if err != nil {
		_ = appLogger.Sync()
		return nil, nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, appLogger, nil
}
