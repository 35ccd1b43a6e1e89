package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage periodic rescans",
	Long: `Schedules only fire while a drivecat process is running, typically
"drivecat serve". Expressions use five cron fields or descriptors such
as @daily.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			infos := engine.Schedules()
			if len(infos) == 0 {
				fmt.Println("No schedules. Set one with: drivecat schedule set <alias> <expr>")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROOT\tEXPR\tNEXT RUN")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Root, info.Expr, info.Next.Format(time.RFC3339))
			}
			return w.Flush()
		})
	},
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set <alias> <expr>",
	Short: "Install or replace a root's schedule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			if err := engine.Schedule(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Scheduled %s: %s\n", args[0], args[1])
			fmt.Println("Note: add it to the config file to survive restarts.")
			return nil
		})
	},
}

var scheduleRmCmd = &cobra.Command{
	Use:   "rm <alias>",
	Short: "Remove a root's schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			if err := engine.Unschedule(args[0]); err != nil {
				return err
			}
			fmt.Printf("Unscheduled %s\n", args[0])
			return nil
		})
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleSetCmd)
	scheduleCmd.AddCommand(scheduleRmCmd)
}
