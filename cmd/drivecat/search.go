package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var (
	searchName     string
	searchExts     []string
	searchRoots    []string
	searchMinSize  string
	searchMaxSize  string
	searchOnly     string
	searchAfter    string
	searchBefore   string
	searchLimit    int
	searchOffset   int
	searchAsCSV    bool
	searchFullPath bool
)

var searchCmd = &cobra.Command{
	Use:   "search [name]",
	Short: "Search the catalogue",
	Long: `Searches across all catalogued roots, including drives that are not
currently attached. The name matches as a case-insensitive substring, or
as a glob when it contains * or ?.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			q, err := buildQuery(args)
			if err != nil {
				return err
			}

			records, err := engine.Search(q)
			if err != nil {
				return err
			}

			if searchAsCSV {
				return app.WriteCSV(os.Stdout, records)
			}
			if len(records) == 0 {
				fmt.Println("No matches.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROOT\tPATH\tSIZE\tMODIFIED")
			for i := range records {
				rec := &records[i]
				path := rec.Path
				if searchFullPath {
					if root, err := engine.Root(rec.Root); err == nil {
						path = joinRecordPath(root.Path, rec.Path)
					}
				}
				size := "-"
				if !rec.IsDir {
					size = humanize.IBytes(uint64(rec.Size))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Root, path, size, humanize.Time(rec.ModTime))
			}
			return w.Flush()
		})
	},
}

func buildQuery(args []string) (models.Query, error) {
	q := models.Query{
		Name:   searchName,
		Exts:   searchExts,
		Roots:  searchRoots,
		Limit:  searchLimit,
		Offset: searchOffset,
	}
	if len(args) == 1 {
		q.Name = args[0]
	}

	if searchMinSize != "" {
		n, err := humanize.ParseBytes(searchMinSize)
		if err != nil {
			return q, fmt.Errorf("invalid --min-size: %w", err)
		}
		q.MinSize = int64(n)
	}
	if searchMaxSize != "" {
		n, err := humanize.ParseBytes(searchMaxSize)
		if err != nil {
			return q, fmt.Errorf("invalid --max-size: %w", err)
		}
		q.MaxSize = int64(n)
	}

	switch searchOnly {
	case "":
	case "files":
		q.OnlyFiles = true
	case "dirs":
		q.OnlyDirs = true
	default:
		return q, fmt.Errorf("invalid --only %q: must be files or dirs", searchOnly)
	}

	var err error
	if searchAfter != "" {
		if q.ModifiedAfter, err = time.Parse(time.RFC3339, searchAfter); err != nil {
			return q, fmt.Errorf("invalid --modified-after: %w", err)
		}
	}
	if searchBefore != "" {
		if q.ModifiedBefore, err = time.Parse(time.RFC3339, searchBefore); err != nil {
			return q, fmt.Errorf("invalid --modified-before: %w", err)
		}
	}
	return q, nil
}

func init() {
	searchCmd.Flags().StringVarP(&searchName, "name", "n", "", "name substring or glob")
	searchCmd.Flags().StringSliceVarP(&searchExts, "ext", "e", nil, "extensions to match (repeatable)")
	searchCmd.Flags().StringSliceVarP(&searchRoots, "root", "r", nil, "restrict to these roots (repeatable)")
	searchCmd.Flags().StringVar(&searchMinSize, "min-size", "", "minimum size, e.g. 200MB")
	searchCmd.Flags().StringVar(&searchMaxSize, "max-size", "", "maximum size, e.g. 2GB")
	searchCmd.Flags().StringVar(&searchOnly, "only", "", "restrict to files or dirs")
	searchCmd.Flags().StringVar(&searchAfter, "modified-after", "", "RFC3339 time")
	searchCmd.Flags().StringVar(&searchBefore, "modified-before", "", "RFC3339 time")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results, 0 = configured page size")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "skip this many results")
	searchCmd.Flags().BoolVar(&searchAsCSV, "csv", false, "write results as CSV")
	searchCmd.Flags().BoolVar(&searchFullPath, "full-path", false, "print absolute paths")
}
