package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
	"github.com/tiaanhavenga/DriveCatalogue/version"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "drivecat",
	Short: "Catalogue your drives and find files on disks that are not plugged in",
	Long: `drivecat keeps a searchable catalogue of storage roots: internal drives,
external disks, network mounts. Scan a root while it is attached, then
search, report usage and browse the catalogue at any time.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level")

	rootCmd.AddCommand(rootsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dirsCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
}

// withEngine loads the config, builds the engine and runs fn with a
// context that ends on SIGINT or SIGTERM. The engine is closed before
// returning, which also flushes the catalogue.
func withEngine(fn func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := app.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine, err := app.NewEngine(*cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, cfg, engine)
}
