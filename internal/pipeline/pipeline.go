// Package pipeline orchestrates the trend-relevance fusion run: concept pool,
// company profile, matching, gap analysis and the bounded generate/validate
// loop with best-attempt selection.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ideaforge/internal/concepts"
	"ideaforge/internal/core"
	"ideaforge/internal/cost"
	"ideaforge/internal/ideas"
	"ideaforge/internal/llm"
	"ideaforge/internal/logger"
	"ideaforge/internal/profile"
)

// ConceptProvider supplies the run's trend-concept pool.
type ConceptProvider interface {
	BuildPoolFromCache(ctx context.Context, maxAge time.Duration, poolSize int) (*concepts.Pool, *concepts.CachedResult, error)
}

// Profiler builds the company profile.
type Profiler interface {
	BuildProfile(ctx context.Context, enrichment profile.EnrichmentData) (*core.CompanyProfile, llm.Usage, error)
}

// ConceptMatcher scores pooled concepts for company fit.
type ConceptMatcher interface {
	Match(ctx context.Context, pool []core.TrendConcept, companyProfile *core.CompanyProfile) ([]core.MatchedConcept, llm.Usage, error)
}

// GapAnalyzer identifies content gaps.
type GapAnalyzer interface {
	Analyze(ctx context.Context, companyProfile *core.CompanyProfile, matched []core.MatchedConcept, contentSummary string) ([]core.ContentGap, llm.Usage, error)
}

// IdeaGenerator produces a batch of candidate ideas.
type IdeaGenerator interface {
	Generate(ctx context.Context, input ideas.GenerationInput) ([]core.GeneratedIdea, llm.Usage, error)
}

// IdeaValidator scores an idea batch.
type IdeaValidator interface {
	Validate(ctx context.Context, batch []core.GeneratedIdea, companyProfile *core.CompanyProfile) ([]core.ValidationResult, llm.Usage, error)
}

// RunStore persists run records.
type RunStore interface {
	SaveRun(record core.RunRecord) error
}

// Config holds pipeline settings.
type Config struct {
	MaxAttempts         int
	IdeasPerAttempt     int
	MinValidIdeas       int
	MinConceptTutorials int
	PoolSize            int
	ConceptMaxAge       time.Duration
	StageTimeout        time.Duration // Per-LLM-call timeout; the only cancellation primitive
	ModelName           string        // For cost accounting
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:         2,
		IdeasPerAttempt:     5,
		MinValidIdeas:       3,
		MinConceptTutorials: 3,
		PoolSize:            16,
		ConceptMaxAge:       24 * time.Hour,
		StageTimeout:        60 * time.Second,
		ModelName:           llm.DefaultModel,
	}
}

// Pipeline wires the stages together.
type Pipeline struct {
	conceptProvider ConceptProvider
	profiler        Profiler
	matcher         ConceptMatcher
	gapAnalyzer     GapAnalyzer
	generator       IdeaGenerator
	validator       IdeaValidator
	runStore        RunStore // Optional; nil disables persistence
	config          Config
	log             *slog.Logger
}

// NewPipeline creates a pipeline with all dependencies.
func NewPipeline(
	conceptProvider ConceptProvider,
	profiler Profiler,
	matcher ConceptMatcher,
	gapAnalyzer GapAnalyzer,
	generator IdeaGenerator,
	validator IdeaValidator,
	runStore RunStore,
	config Config,
) *Pipeline {
	if config.MaxAttempts <= 0 {
		config = DefaultConfig()
	}
	return &Pipeline{
		conceptProvider: conceptProvider,
		profiler:        profiler,
		matcher:         matcher,
		gapAnalyzer:     gapAnalyzer,
		generator:       generator,
		validator:       validator,
		runStore:        runStore,
		config:          config,
		log:             logger.Get(),
	}
}

// RunOptions configures a single run.
type RunOptions struct {
	Enrichment profile.EnrichmentData
	// Profile, when non-nil, skips the profiling stage and uses the supplied
	// profile as-is.
	Profile *core.CompanyProfile
}

// Result is the run outcome. The pipeline always returns a result when it
// returns nil error; Degraded marks best-effort output that did not pass the
// full quality gate.
type Result struct {
	RunID           string
	Profile         *core.CompanyProfile
	Pool            *concepts.Pool
	MatchedConcepts []core.MatchedConcept
	Gaps            []core.ContentGap
	Ideas           []core.ValidationResult
	Attempts        []Attempt
	BestAttempt     int
	Degraded        bool
	Costs           []core.StageCost
	Diagnostics     []string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// TotalCost returns the run's total estimated spend in USD.
func (r *Result) TotalCost() float64 {
	return cost.Total(r.Costs)
}

// Run executes the full pipeline for one company.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	// Stage 1: trend-concept pool. Cache/extraction failures degrade to a
	// curated-only pool inside the provider; they never abort the run.
	pool, cached, err := p.conceptProvider.BuildPoolFromCache(ctx, p.config.ConceptMaxAge, p.config.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build concept pool: %w", err)
	}
	result.Pool = pool
	if cached != nil {
		if cached.Stale {
			result.Diagnostics = append(result.Diagnostics, "concept cache served stale data")
		}
		if cached.Cost.InputTokens > 0 || cached.Cost.OutputTokens > 0 {
			result.Costs = append(result.Costs, cost.ForStage("concept_extraction", p.config.ModelName, cached.Cost))
		}
	} else {
		result.Diagnostics = append(result.Diagnostics, "dynamic concepts unavailable, curated-only pool")
	}
	p.log.Info("Concept pool built", "run_id", result.RunID, "selected", len(pool.Selected), "total", len(pool.Full))

	// Stage 2: company profile (critical unless supplied).
	companyProfile := opts.Profile
	if companyProfile == nil {
		var usage llm.Usage
		companyProfile, usage, err = p.callProfiler(ctx, opts.Enrichment)
		if err != nil {
			return nil, err
		}
		result.Costs = append(result.Costs, cost.ForStage("company_profiling", p.config.ModelName, usage))
	}
	result.Profile = companyProfile

	// Stage 3: concept matching (critical; fallback injection happens inside).
	matched, usage, err := p.callMatcher(ctx, pool.Selected, companyProfile)
	if err != nil {
		return nil, err
	}
	result.MatchedConcepts = matched
	result.Costs = append(result.Costs, cost.ForStage("concept_matching", p.config.ModelName, usage))
	for _, m := range matched {
		if m.FromFallback {
			result.Diagnostics = append(result.Diagnostics, "fallback concept injected: "+m.Concept.Name)
		}
	}

	// Stage 4: gap analysis (critical).
	contentGaps, usage, err := p.callGapAnalyzer(ctx, companyProfile, matched, opts.Enrichment.ContentSummary)
	if err != nil {
		return nil, err
	}
	result.Gaps = contentGaps
	result.Costs = append(result.Costs, cost.ForStage("gap_analysis", p.config.ModelName, usage))

	// Stage 5: the generate/validate attempt loop.
	if err := p.runAttemptLoop(ctx, result, opts.Enrichment); err != nil {
		return nil, err
	}

	result.FinishedAt = time.Now().UTC()
	p.persist(result)
	return result, nil
}

// runAttemptLoop drives the bounded generate/validate state machine,
// tracking the best attempt and feeding rejection reasons forward.
func (p *Pipeline) runAttemptLoop(ctx context.Context, result *Result, enrichment profile.EnrichmentData) error {
	var best Attempt
	haveBest := false
	var feedback []string
	generatedAnything := false

	for n := 1; n <= p.config.MaxAttempts; n++ {
		input := ideas.GenerationInput{
			Profile:         result.Profile,
			Gaps:            result.Gaps,
			MatchedConcepts: result.MatchedConcepts,
			PriorRejections: feedback,
		}

		batch, usage, err := p.callGenerator(ctx, input)
		result.Costs = append(result.Costs, cost.ForStage(fmt.Sprintf("idea_generation_%d", n), p.config.ModelName, usage))
		if err != nil {
			if generatedAnything || n < p.config.MaxAttempts {
				// A later or earlier attempt can still carry the run.
				p.log.Warn("Generation attempt failed", "attempt", n, "error", err.Error())
				result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("generation attempt %d failed", n))
				continue
			}
			return err
		}
		generatedAnything = true

		results, usage, err := p.callValidator(ctx, batch, result.Profile)
		result.Costs = append(result.Costs, cost.ForStage(fmt.Sprintf("idea_validation_%d", n), p.config.ModelName, usage))
		if err != nil {
			// Validation failure leaves the ideas usable as best-effort
			// output rather than sinking the run.
			p.log.Warn("Validation attempt failed", "attempt", n, "error", err.Error())
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("validation attempt %d failed", n))
			results = nil
		}

		attempt := NewAttempt(n, batch, results)
		result.Attempts = append(result.Attempts, attempt)
		p.log.Info("Attempt completed",
			"attempt", n,
			"valid", attempt.ValidCount,
			"concept_tutorials", attempt.ConceptTutorialCount,
			"mean_score", attempt.MeanScore,
		)

		if !haveBest || attempt.Better(best) {
			best = attempt
			haveBest = true
		}

		if attempt.MeetsTargets(p.config.MinValidIdeas, p.config.MinConceptTutorials) {
			break
		}

		feedback = attempt.TopRejectionReasons(3)
	}

	if !haveBest {
		return fmt.Errorf("%w: all generation attempts failed", core.ErrStageFailed)
	}

	selected, degraded := best.SelectFinal(p.config.MinValidIdeas, p.config.IdeasPerAttempt)
	result.Ideas = selected
	result.BestAttempt = best.Number
	result.Degraded = degraded
	if degraded {
		result.Diagnostics = append(result.Diagnostics, "quality gate not fully satisfied, best-effort output")
	}
	return nil
}

// stageCtx applies the per-call timeout.
func (p *Pipeline) stageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.config.StageTimeout)
}

func (p *Pipeline) callProfiler(ctx context.Context, enrichment profile.EnrichmentData) (*core.CompanyProfile, llm.Usage, error) {
	ctx, cancel := p.stageCtx(ctx)
	defer cancel()
	return p.profiler.BuildProfile(ctx, enrichment)
}

func (p *Pipeline) callMatcher(ctx context.Context, pool []core.TrendConcept, companyProfile *core.CompanyProfile) ([]core.MatchedConcept, llm.Usage, error) {
	ctx, cancel := p.stageCtx(ctx)
	defer cancel()
	return p.matcher.Match(ctx, pool, companyProfile)
}

func (p *Pipeline) callGapAnalyzer(ctx context.Context, companyProfile *core.CompanyProfile, matched []core.MatchedConcept, contentSummary string) ([]core.ContentGap, llm.Usage, error) {
	ctx, cancel := p.stageCtx(ctx)
	defer cancel()
	return p.gapAnalyzer.Analyze(ctx, companyProfile, matched, contentSummary)
}

func (p *Pipeline) callGenerator(ctx context.Context, input ideas.GenerationInput) ([]core.GeneratedIdea, llm.Usage, error) {
	ctx, cancel := p.stageCtx(ctx)
	defer cancel()
	return p.generator.Generate(ctx, input)
}

func (p *Pipeline) callValidator(ctx context.Context, batch []core.GeneratedIdea, companyProfile *core.CompanyProfile) ([]core.ValidationResult, llm.Usage, error) {
	ctx, cancel := p.stageCtx(ctx)
	defer cancel()
	return p.validator.Validate(ctx, batch, companyProfile)
}

// persist writes the run record; persistence failure is logged, not fatal.
func (p *Pipeline) persist(result *Result) {
	if p.runStore == nil {
		return
	}

	record := core.RunRecord{
		ID:          result.RunID,
		CompanyName: result.Profile.CompanyName,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Success:     true,
		Degraded:    result.Degraded,
		Ideas:       result.Ideas,
		Costs:       result.Costs,
		Diagnostics: result.Diagnostics,
	}
	if err := p.runStore.SaveRun(record); err != nil {
		p.log.Error("Failed to persist run record", "error", err.Error(), "run_id", result.RunID)
	}
}
