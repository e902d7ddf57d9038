package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ideaforge/internal/config"
	"ideaforge/internal/core"
	"ideaforge/internal/llm"
	"ideaforge/internal/store"
)

var conceptsRefresh bool

var conceptsCmd = &cobra.Command{
	Use:   "concepts",
	Short: "Show the current trend-concept pool",
	Long: `Concepts prints the trend-concept pool that the next pipeline run would
use: curated concepts blended with dynamically extracted ones from the cache.
Use --refresh to discard the cache and extract a fresh set from live signals.`,
	RunE: runConcepts,
}

func init() {
	rootCmd.AddCommand(conceptsCmd)

	conceptsCmd.Flags().BoolVar(&conceptsRefresh, "refresh", false, "invalidate the cache and extract fresh concepts")
}

func runConcepts(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	dataStore, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer func() { _ = dataStore.Close() }()

	llmClient, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return err
	}

	service := buildConceptService(cfg, dataStore, llmClient)

	if conceptsRefresh {
		if err := service.Invalidate(); err != nil {
			return err
		}
		fmt.Println("Concept cache invalidated; extracting fresh concepts...")
	}

	pool, cached, err := service.BuildPoolFromCache(context.Background(), cfg.ConceptMaxAge(), cfg.Pipeline.PoolSize)
	if err != nil {
		return err
	}

	if cached == nil {
		fmt.Println("Dynamic concepts unavailable; showing curated-only pool.")
	} else {
		freshness := "fresh"
		if cached.Stale {
			freshness = "stale"
		}
		fmt.Printf("Cache: %s (%.1fh old, %d signals from %d sources)\n",
			freshness, cached.AgeHours, cached.Set.RawSignalCount, len(cached.Set.Sources))
	}

	fmt.Printf("\nPool: %d selected of %d total\n\n", len(pool.Selected), len(pool.Full))
	fmt.Printf("%-32s %-14s %-10s %-8s %s\n", "NAME", "CATEGORY", "HYPE", "SOURCE", "SCORES (fresh/conf)")
	for _, c := range pool.Selected {
		fmt.Printf("%-32s %-14s %-10s %-8s %d/%d\n",
			truncate(c.Name, 32), c.Category, c.HypeLevel, sourceLabel(c), c.FreshnessScore, c.ConfidenceScore)
	}

	return nil
}

func sourceLabel(c core.TrendConcept) string {
	if c.SourceType == core.SourceDynamic {
		return "dynamic"
	}
	return "curated"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
