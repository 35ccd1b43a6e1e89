package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue as JSON or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			out := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			switch exportFormat {
			case "json":
				return engine.WriteSnapshot(out)
			case "csv":
				_, err := engine.ExportCSV(out, models.Query{})
				return err
			default:
				return fmt.Errorf("unknown format %q: use json or csv", exportFormat)
			}
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the catalogue with an exported JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := engine.ImportSnapshot(ctx, f); err != nil {
				return err
			}
			fmt.Printf("Imported catalogue from %s\n", args[0])
			return nil
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <dest>",
	Short: "Write a consistent copy of the catalogue database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			if err := engine.Backup(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Backup written to %s\n", args[0])
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to file instead of stdout")
}
