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

var reportCmd = &cobra.Command{
	Use:   "report [alias]",
	Short: "Show space usage per root",
	Long: `Shows catalogued bytes per root. For roots whose volume is currently
mounted, live free and total capacity come from the OS; otherwise the
values captured at the last scan are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			var reports []models.UsageReport
			if len(args) == 1 {
				report, err := engine.Report(args[0])
				if err != nil {
					return err
				}
				reports = []models.UsageReport{report}
			} else {
				reports = engine.Reports()
			}
			if len(reports) == 0 {
				fmt.Println("No roots catalogued.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROOT\tFILES\tDIRS\tUSED\tFREE\tTOTAL\tLAST SCAN")
			for _, rep := range reports {
				free, total := "-", "-"
				if rep.Supported {
					free = humanize.IBytes(uint64(rep.FreeBytes))
					total = humanize.IBytes(uint64(rep.TotalBytes))
				}
				lastScan := "never"
				if !rep.LastScan.IsZero() {
					lastScan = humanize.Time(rep.LastScan)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
					rep.Root, rep.Files, rep.Dirs,
					humanize.IBytes(uint64(rep.UsedBytes)), free, total, lastScan)
			}
			return w.Flush()
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <alias>",
	Short: "Show what fills a root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			stats, err := engine.Stats(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Root %s: %d files, %d dirs, %s\n",
				stats.Root, stats.Files, stats.Dirs, humanize.IBytes(uint64(stats.Bytes)))

			if len(stats.Extensions) > 0 {
				fmt.Println("\nHeaviest extensions:")
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, es := range stats.Extensions {
					ext := es.Ext
					if ext == "" {
						ext = "(none)"
					}
					fmt.Fprintf(w, "  %s\t%d files\t%s\n", ext, es.Count, humanize.IBytes(uint64(es.Bytes)))
				}
				w.Flush()
			}

			if len(stats.Largest) > 0 {
				fmt.Println("\nLargest files:")
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for i := range stats.Largest {
					rec := &stats.Largest[i]
					fmt.Fprintf(w, "  %s\t%s\n", humanize.IBytes(uint64(rec.Size)), rec.Path)
				}
				w.Flush()
			}

			if len(stats.Recent) > 0 {
				fmt.Println("\nRecently modified:")
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for i := range stats.Recent {
					rec := &stats.Recent[i]
					fmt.Fprintf(w, "  %s\t%s\n", humanize.Time(rec.ModTime), rec.Path)
				}
				w.Flush()
			}

			if len(stats.SizeRanges) > 0 {
				fmt.Println("\nSize distribution:")
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, b := range stats.SizeRanges {
					fmt.Fprintf(w, "  %s\t%d files\t%s\n", b.Label, b.Count, humanize.IBytes(uint64(b.Bytes)))
				}
				w.Flush()
			}

			if len(stats.Years) > 0 {
				fmt.Println("\nBy modification year:")
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, ys := range stats.Years {
					fmt.Fprintf(w, "  %d\t%d files\t%s\n", ys.Year, ys.Count, humanize.IBytes(uint64(ys.Bytes)))
				}
				w.Flush()
			}
			return nil
		})
	},
}

var dirsCmd = &cobra.Command{
	Use:   "dirs <alias>",
	Short: "Show a root's heaviest directories",
	Long: `Lists the directories holding the most data, subtrees included, so a
file deep in a nested folder counts toward every folder above it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			dirs, err := engine.DirSizes(args[0])
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Println("No directories catalogued. Run a scan first.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DIRECTORY\tFILES\tSIZE")
			for _, ds := range dirs {
				fmt.Fprintf(w, "%s\t%d\t%s\n", ds.Path, ds.Files, humanize.IBytes(uint64(ds.Bytes)))
			}
			return w.Flush()
		})
	},
}
