package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ideaforge/internal/core"
	"ideaforge/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [run-id]",
	Short: "Interactively approve or reject ideas from a run",
	Long: `Review launches an interactive terminal UI for approving or rejecting
the ideas a run produced. Without a run ID, the most recent run is reviewed.
Decisions are persisted and survive restarts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	dataStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = dataStore.Close() }()

	var record *core.RunRecord
	if len(args) == 1 {
		record, err = dataStore.GetRun(args[0])
		if err != nil {
			return err
		}
	} else {
		runs, err := dataStore.ListRuns(1)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs recorded yet; run 'ideaforge generate' first")
		}
		record = &runs[0]
	}

	if len(record.Ideas) == 0 {
		return fmt.Errorf("run %s has no ideas to review", record.ID)
	}

	fmt.Printf("Reviewing %d ideas from run %s (%s)\n", len(record.Ideas), record.ID, record.CompanyName)
	return tui.StartReview(record.ID, record.Ideas, dataStore)
}
