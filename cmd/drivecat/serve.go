package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
	webapp "github.com/tiaanhavenga/DriveCatalogue/web/run"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalogue as a local service",
	Long: `Serves the JSON API on a loopback address and keeps the scheduler
running so periodic rescans fire. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			addr := cfg.Server.Addr
			if listenAddr != "" {
				addr = listenAddr
			}

			wa := webapp.NewWebApp(engine, addr, engine.Logger())
			fmt.Printf("Serving catalogue API on http://%s\n", addr)
			return wa.Serve(ctx)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides config)")
}
