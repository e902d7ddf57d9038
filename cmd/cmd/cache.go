package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ideaforge/internal/config"
	"ideaforge/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local data store",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show data store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataStore, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = dataStore.Close() }()

		stats, err := dataStore.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Cached documents: %d\n", stats.DocumentCount)
		fmt.Printf("Run records:      %d\n", stats.RunCount)
		fmt.Printf("Idea reviews:     %d\n", stats.ReviewCount)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached documents, run records and reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("This deletes all cached concepts, run history and reviews. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}

		dataStore, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = dataStore.Close() }()

		if err := dataStore.Clear(); err != nil {
			return err
		}
		fmt.Println("Data store cleared.")
		return nil
	},
}

var cacheRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataStore, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = dataStore.Close() }()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := dataStore.ListRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("%-38s %-24s %-10s %-8s %s\n", "RUN ID", "COMPANY", "IDEAS", "STATUS", "WHEN")
		for _, r := range runs {
			status := "ok"
			if r.Degraded {
				status = "degraded"
			}
			fmt.Printf("%-38s %-24s %-10d %-8s %s\n",
				r.ID, truncate(r.CompanyName, 24), len(r.Ideas), status, r.FinishedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRunsCmd)

	cacheRunsCmd.Flags().Int("limit", 20, "maximum runs to list")
}

func openStore() (*store.Store, error) {
	dataStore, err := store.NewStore(config.Get().App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store: %w", err)
	}
	return dataStore, nil
}
