package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past provisioning runs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Configuration error: %v\n", err)
			os.Exit(1)
		}

		if !cfg.History.Enabled {
			fmt.Println("Run history is disabled in the configuration.")
			return
		}

		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			fmt.Printf("History error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background(), historyLimit)
		if err != nil {
			fmt.Printf("History error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tHOST\tTUNNEL\tOUTCOME\tDURATION\tDETAIL")
		for _, run := range runs {
			detail := ""
			if run.Outcome == history.OutcomeFailed {
				detail = fmt.Sprintf("%s: %s", run.FailedStep, run.Error)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				run.StartedAt.Local().Format(time.DateTime),
				run.Host,
				run.Tunnel,
				run.Outcome,
				run.Duration.Round(time.Millisecond),
				detail)
		}
		w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
