package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var (
	scanFollowSymlinks bool
	scanSkipHidden     bool
	scanIgnore         []string
	scanMaxDepth       int
)

var scanCmd = &cobra.Command{
	Use:   "scan <alias>",
	Short: "Scan a root and update its records",
	Long: `Walks the root's directory tree and refreshes the catalogue. Files that
disappeared since the last scan are dropped when the scan completes.
Ctrl-C cancels the scan; records indexed so far are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			var opts *models.ScanOptions
			if cmd.Flags().Changed("follow-symlinks") || cmd.Flags().Changed("skip-hidden") ||
				cmd.Flags().Changed("ignore") || cmd.Flags().Changed("max-depth") {
				opts = &models.ScanOptions{
					FollowSymlinks: scanFollowSymlinks,
					SkipHidden:     scanSkipHidden,
					IgnorePatterns: scanIgnore,
					MaxDepth:       scanMaxDepth,
				}
			}

			job, err := engine.EnqueueScan(ctx, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Printf("Scanning %s ...\n", args[0])

			final, err := waitForJob(ctx, engine, job.ID)
			if err != nil {
				return err
			}

			switch final.Status {
			case models.JobDone:
				s := final.Summary
				fmt.Printf("Done: %d files, %d dirs, %s in %s\n",
					s.Files, s.Dirs, humanize.IBytes(uint64(s.Bytes)), s.Duration.Round(time.Millisecond))
				if len(final.Errors) > 0 {
					fmt.Printf("%d entries could not be read:\n", len(final.Errors))
					for _, se := range final.Errors {
						fmt.Printf("  %s: %s\n", se.Kind, se.Path)
					}
				}
				return nil
			case models.JobCancelled:
				fmt.Println("Scan cancelled; records indexed so far were kept.")
				return nil
			default:
				return errors.New(final.Err)
			}
		})
	},
}

// waitForJob polls until the job reaches a terminal state. A cancelled
// context requests job cancellation once and keeps waiting so the
// catalogue is left consistent.
func waitForJob(ctx context.Context, engine *app.Engine, id string) (*models.ScanJob, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	cancelRequested := false
	for {
		job, err := engine.Job(id)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			if !cancelRequested {
				cancelRequested = true
				engine.CancelScan(id)
			}
			<-ticker.C
		case <-ticker.C:
		}
	}
}

func init() {
	scanCmd.Flags().BoolVar(&scanFollowSymlinks, "follow-symlinks", false, "descend into symlinked directories")
	scanCmd.Flags().BoolVar(&scanSkipHidden, "skip-hidden", true, "skip dotfiles and dot directories")
	scanCmd.Flags().StringSliceVar(&scanIgnore, "ignore", nil, "glob patterns to skip (repeatable)")
	scanCmd.Flags().IntVar(&scanMaxDepth, "max-depth", 0, "directory depth limit, 0 = unlimited")
}
