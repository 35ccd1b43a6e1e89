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

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show the scan job history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			jobs := engine.Jobs()
			if len(jobs) == 0 {
				fmt.Println("No jobs.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROOT\tSTATUS\tQUEUED\tFILES\tERRORS")
			for _, job := range jobs {
				files := "-"
				if job.Summary != nil {
					files = fmt.Sprintf("%d", job.Summary.Files)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					shortID(job.ID), job.Root, job.Status,
					humanize.Time(job.EnqueuedAt), files, len(job.Errors))
			}
			return w.Flush()
		})
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a pending or running scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			id, err := resolveJobID(engine, args[0])
			if err != nil {
				return err
			}
			if err := engine.CancelScan(id); err != nil {
				return err
			}

			// Give the worker a moment to stop before the engine closes.
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				job, err := engine.Job(id)
				if err != nil {
					return err
				}
				if job.Status.Terminal() {
					fmt.Printf("Job %s is %s\n", shortID(id), job.Status)
					return nil
				}
				time.Sleep(100 * time.Millisecond)
			}
			fmt.Printf("Cancellation of %s requested\n", shortID(id))
			return nil
		})
	},
}

var jobsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop finished jobs from the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			n, err := engine.ClearFinishedJobs(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Cleared %d finished jobs\n", n)
			return nil
		})
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveJobID accepts a full job ID or an unambiguous prefix.
func resolveJobID(engine *app.Engine, arg string) (string, error) {
	if _, err := engine.Job(arg); err == nil {
		return arg, nil
	}

	var match string
	for _, job := range engine.Jobs() {
		if len(arg) > 0 && len(job.ID) >= len(arg) && job.ID[:len(arg)] == arg {
			if match != "" {
				return "", fmt.Errorf("job ID prefix %q is ambiguous", arg)
			}
			match = job.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no job matches %q", arg)
	}
	return match, nil
}

func init() {
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsClearCmd)
}
