package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ideaforge/internal/concepts"
	"ideaforge/internal/config"
	"ideaforge/internal/gaps"
	"ideaforge/internal/ideas"
	"ideaforge/internal/llm"
	"ideaforge/internal/logger"
	"ideaforge/internal/match"
	"ideaforge/internal/messaging"
	"ideaforge/internal/pipeline"
	"ideaforge/internal/profile"
	"ideaforge/internal/render"
	"ideaforge/internal/signals"
	"ideaforge/internal/store"
)

var (
	generateCompany        string
	generateWebsite        string
	generateIndustry       string
	generateDescription    string
	generateTechnologies   []string
	generateContentSummary string
	generateEnrichmentFile string
	generateOutputDir      string
	generateNotify         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full idea-generation pipeline for a company",
	Long: `Generate runs the complete pipeline: builds the trend-concept pool,
profiles the company, matches concepts, analyzes content gaps, and runs the
generate/validate loop. The result is written as a markdown report.

Company details come from flags or from a JSON enrichment file via
--enrichment-file; flags override file values.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateCompany, "company", "", "company name (required unless --enrichment-file provides it)")
	generateCmd.Flags().StringVar(&generateWebsite, "website", "", "company website URL")
	generateCmd.Flags().StringVar(&generateIndustry, "industry", "", "company industry")
	generateCmd.Flags().StringVar(&generateDescription, "description", "", "short company description")
	generateCmd.Flags().StringSliceVar(&generateTechnologies, "tech", nil, "known technologies (comma-separated)")
	generateCmd.Flags().StringVar(&generateContentSummary, "content-summary", "", "summary of the company's existing published content")
	generateCmd.Flags().StringVar(&generateEnrichmentFile, "enrichment-file", "", "JSON file with company enrichment data")
	generateCmd.Flags().StringVarP(&generateOutputDir, "output", "o", "", "output directory for the markdown report")
	generateCmd.Flags().BoolVar(&generateNotify, "notify", false, "post a summary to the configured Slack webhook")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log := logger.Get()

	enrichment, err := loadEnrichment()
	if err != nil {
		return err
	}
	if enrichment.CompanyName == "" {
		return fmt.Errorf("company name is required: pass --company or provide it in --enrichment-file")
	}

	dataStore, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer func() { _ = dataStore.Close() }()

	llmClient, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return err
	}

	p := buildPipeline(cfg, dataStore, llmClient)

	log.Info("Starting idea generation", "company", enrichment.CompanyName)
	result, err := p.Run(context.Background(), pipeline.RunOptions{Enrichment: enrichment})
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	outputDir := generateOutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}
	reportPath, err := render.RenderMarkdownReport(result, outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d ideas for %s (attempt %d of %d)\n",
		len(result.Ideas), result.Profile.CompanyName, result.BestAttempt, len(result.Attempts))
	if result.Degraded {
		fmt.Println("Note: quality targets were not fully met; output is best-effort.")
	}
	fmt.Printf("Report: %s\n", reportPath)
	fmt.Printf("Estimated cost: $%.4f\n", result.TotalCost())
	fmt.Printf("Run ID: %s (use 'ideaforge review %s' to review ideas)\n", result.RunID, result.RunID)

	if generateNotify || cfg.Messaging.Enabled {
		notifySlack(cfg, result)
	}

	return nil
}

// loadEnrichment merges the enrichment file (if any) with flag values; flags win.
func loadEnrichment() (profile.EnrichmentData, error) {
	var enrichment profile.EnrichmentData

	if generateEnrichmentFile != "" {
		data, err := os.ReadFile(generateEnrichmentFile)
		if err != nil {
			return enrichment, fmt.Errorf("failed to read enrichment file: %w", err)
		}
		if err := json.Unmarshal(data, &enrichment); err != nil {
			return enrichment, fmt.Errorf("failed to parse enrichment file: %w", err)
		}
	}

	if generateCompany != "" {
		enrichment.CompanyName = generateCompany
	}
	if generateWebsite != "" {
		enrichment.Website = generateWebsite
	}
	if generateIndustry != "" {
		enrichment.Industry = generateIndustry
	}
	if generateDescription != "" {
		enrichment.Description = generateDescription
	}
	if len(generateTechnologies) > 0 {
		enrichment.Technologies = generateTechnologies
	}
	if generateContentSummary != "" {
		enrichment.ContentSummary = generateContentSummary
	}

	return enrichment, nil
}

// buildPipeline wires the stages from configuration.
func buildPipeline(cfg *config.Config, dataStore *store.Store, llmClient *llm.Client) *pipeline.Pipeline {
	conceptService := buildConceptService(cfg, dataStore, llmClient)

	profiler := profile.NewProfiler(llmClient, profile.Options{
		DifferentiatorFloor: cfg.Pipeline.DifferentiatorFloor,
	})
	matcher := match.NewMatcher(llmClient, match.Options{
		StrictThreshold: cfg.Pipeline.StrictFitThreshold,
		MaxMatches:      cfg.Pipeline.MaxMatchedConcepts,
		MinMatches:      cfg.Pipeline.MinMatchedConcepts,
		FallbackCap:     cfg.Pipeline.FallbackFitCap,
	})
	gapAnalyzer := gaps.NewAnalyzer(llmClient, gaps.Options{
		PriorityFloor: cfg.Pipeline.GapPriorityFloor,
		MaxGaps:       cfg.Pipeline.MaxGaps,
	})
	generator := ideas.NewGenerator(llmClient, ideas.GeneratorOptions{
		IdeasPerAttempt:     cfg.Pipeline.IdeasPerAttempt,
		MinConceptTutorials: cfg.Pipeline.MinConceptTutorials,
		ConfidenceFloor:     cfg.Pipeline.IdeaConfidenceFloor,
	})
	validator := ideas.NewValidator(llmClient)

	return pipeline.NewPipeline(
		conceptService,
		profiler,
		matcher,
		gapAnalyzer,
		generator,
		validator,
		dataStore,
		pipeline.Config{
			MaxAttempts:         cfg.Pipeline.MaxAttempts,
			IdeasPerAttempt:     cfg.Pipeline.IdeasPerAttempt,
			MinValidIdeas:       cfg.Pipeline.MinValidIdeas,
			MinConceptTutorials: cfg.Pipeline.MinConceptTutorials,
			PoolSize:            cfg.Pipeline.PoolSize,
			ConceptMaxAge:       cfg.ConceptMaxAge(),
			StageTimeout:        cfg.GeminiTimeout(),
			ModelName:           llmClient.GetModelName(),
		},
	)
}

// buildConceptService assembles the signal fetcher, extractor and cache.
func buildConceptService(cfg *config.Config, dataStore *store.Store, llmClient *llm.Client) *concepts.Service {
	var sources []signals.Source
	if cfg.Signals.HackerNews {
		sources = append(sources, signals.NewHackerNewsSource(cfg.Signals.UserAgent))
	}
	for i, feedURL := range cfg.Signals.RSSFeeds {
		sources = append(sources, signals.NewRSSSource(fmt.Sprintf("rss-%d", i+1), feedURL, cfg.Signals.UserAgent))
	}
	if cfg.Signals.ArxivQuery != "" {
		sources = append(sources, signals.NewArxivSource(cfg.Signals.ArxivQuery, cfg.Signals.UserAgent))
	}

	fetchOpts := signals.DefaultFetchOptions()
	if cfg.Signals.MaxPerSource > 0 {
		fetchOpts.MaxPerSource = cfg.Signals.MaxPerSource
	}
	if cfg.Signals.MaxConcurrency > 0 {
		fetchOpts.MaxConcurrency = cfg.Signals.MaxConcurrency
	}
	if d, err := time.ParseDuration(cfg.Signals.Timeout); err == nil {
		fetchOpts.Timeout = d
	}

	fetcher := signals.NewFetcher(sources)
	extractor := concepts.NewExtractor(llmClient, cfg.Pipeline.MaxSignalsForExtraction)
	cache := concepts.NewCache(dataStore)

	return concepts.NewService(fetcher, extractor, cache, fetchOpts)
}

// notifySlack posts the run summary; failure is logged, never fatal.
func notifySlack(cfg *config.Config, result *pipeline.Result) {
	if cfg.Messaging.SlackWebhookURL == "" {
		logger.Warn("Slack notification requested but messaging.slack_webhook_url is not set")
		return
	}
	client := messaging.NewClient(cfg.Messaging.SlackWebhookURL)
	if err := client.NotifyRun(result); err != nil {
		logger.Error("Failed to send Slack notification", err)
		return
	}
	fmt.Println("Slack notification sent.")
}
