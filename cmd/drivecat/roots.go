package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage catalogued storage roots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			roots := engine.Roots()
			if len(roots) == 0 {
				fmt.Println("No roots catalogued. Add one with: drivecat roots add <alias> <path>")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ALIAS\tPATH\tLAST SCAN\tUSED")
			for _, root := range roots {
				lastScan := "never"
				if !root.LastScan.IsZero() {
					lastScan = humanize.Time(root.LastScan)
				}
				_, _, used, err := usageOf(engine, root.Alias)
				usedStr := "-"
				if err == nil {
					usedStr = humanize.IBytes(uint64(used))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", root.Alias, root.Path, lastScan, usedStr)
			}
			return w.Flush()
		})
	},
}

func usageOf(engine *app.Engine, alias string) (files, dirs, used int64, err error) {
	report, err := engine.Report(alias)
	if err != nil {
		return 0, 0, 0, err
	}
	return report.Files, report.Dirs, report.UsedBytes, nil
}

var rootsAddCmd = &cobra.Command{
	Use:   "add <alias> <path>",
	Short: "Register a storage root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			root, err := engine.AddRoot(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added root %s -> %s\n", root.Alias, root.Path)
			fmt.Printf("Scan it with: drivecat scan %s\n", root.Alias)
			return nil
		})
	},
}

var rootsRmCmd = &cobra.Command{
	Use:   "rm <alias>",
	Short: "Remove a root and all its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			if err := engine.RemoveRoot(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed root %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootsCmd.AddCommand(rootsAddCmd)
	rootsCmd.AddCommand(rootsRmCmd)
}
