package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ideaforge/internal/concepts"
	"ideaforge/internal/core"
	"ideaforge/internal/ideas"
	"ideaforge/internal/llm"
	"ideaforge/internal/profile"
)

type fakeConceptProvider struct {
	pool   *concepts.Pool
	cached *concepts.CachedResult
	err    error
}

func (f *fakeConceptProvider) BuildPoolFromCache(ctx context.Context, maxAge time.Duration, poolSize int) (*concepts.Pool, *concepts.CachedResult, error) {
	return f.pool, f.cached, f.err
}

type fakeProfiler struct {
	profile *core.CompanyProfile
	err     error
	calls   int
}

func (f *fakeProfiler) BuildProfile(ctx context.Context, enrichment profile.EnrichmentData) (*core.CompanyProfile, llm.Usage, error) {
	f.calls++
	return f.profile, llm.Usage{InputTokens: 100, OutputTokens: 50}, f.err
}

type fakeMatcher struct {
	matched []core.MatchedConcept
	err     error
}

func (f *fakeMatcher) Match(ctx context.Context, pool []core.TrendConcept, companyProfile *core.CompanyProfile) ([]core.MatchedConcept, llm.Usage, error) {
	return f.matched, llm.Usage{InputTokens: 100, OutputTokens: 50}, f.err
}

type fakeGapAnalyzer struct {
	gaps []core.ContentGap
	err  error
}

func (f *fakeGapAnalyzer) Analyze(ctx context.Context, companyProfile *core.CompanyProfile, matched []core.MatchedConcept, contentSummary string) ([]core.ContentGap, llm.Usage, error) {
	return f.gaps, llm.Usage{InputTokens: 100, OutputTokens: 50}, f.err
}

// fakeGenerator returns one scripted batch per attempt and records the
// feedback passed in.
type fakeGenerator struct {
	batches  [][]core.GeneratedIdea
	errs     []error
	call     int
	feedback [][]string
}

func (f *fakeGenerator) Generate(ctx context.Context, input ideas.GenerationInput) ([]core.GeneratedIdea, llm.Usage, error) {
	i := f.call
	f.call++
	f.feedback = append(f.feedback, input.PriorRejections)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var batch []core.GeneratedIdea
	if i < len(f.batches) {
		batch = f.batches[i]
	}
	return batch, llm.Usage{InputTokens: 200, OutputTokens: 100}, err
}

type fakeValidator struct {
	results [][]core.ValidationResult
	errs    []error
	call    int
}

func (f *fakeValidator) Validate(ctx context.Context, batch []core.GeneratedIdea, companyProfile *core.CompanyProfile) ([]core.ValidationResult, llm.Usage, error) {
	i := f.call
	f.call++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var results []core.ValidationResult
	if i < len(f.results) {
		results = f.results[i]
	}
	return results, llm.Usage{InputTokens: 200, OutputTokens: 100}, err
}

type fakeRunStore struct {
	saved []core.RunRecord
	err   error
}

func (f *fakeRunStore) SaveRun(record core.RunRecord) error {
	f.saved = append(f.saved, record)
	return f.err
}

func testPool() *concepts.Pool {
	pool := []core.TrendConcept{
		{ID: "c-1", Name: "RAG Pipelines", SourceType: core.SourceCurated},
		{ID: "c-2", Name: "Agentic Workflows", SourceType: core.SourceDynamic},
	}
	return &concepts.Pool{Selected: pool, Full: pool}
}

func ideaBatch(titles ...string) []core.GeneratedIdea {
	batch := make([]core.GeneratedIdea, len(titles))
	for i, title := range titles {
		batch[i] = core.GeneratedIdea{Title: title, IsConceptTutorial: true}
	}
	return batch
}

func validResults(batch []core.GeneratedIdea, validCount int) []core.ValidationResult {
	results := make([]core.ValidationResult, len(batch))
	for i, idea := range batch {
		results[i] = core.ValidationResult{
			Idea:    idea,
			IsValid: i < validCount,
			Scores:  core.IdeaScores{OverallScore: 80 - float64(i)},
		}
		if !results[i].IsValid {
			results[i].RejectionReason = "too generic"
		}
	}
	return results
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StageTimeout = time.Second
	return cfg
}

func newTestPipeline(gen *fakeGenerator, val *fakeValidator, store *fakeRunStore) (*Pipeline, *fakeProfiler) {
	profiler := &fakeProfiler{profile: &core.CompanyProfile{CompanyName: "Vectorly"}}
	p := NewPipeline(
		&fakeConceptProvider{pool: testPool(), cached: &concepts.CachedResult{Cached: true}},
		profiler,
		&fakeMatcher{matched: []core.MatchedConcept{{Concept: core.TrendConcept{Name: "RAG Pipelines"}, FitScore: 84}}},
		&fakeGapAnalyzer{gaps: []core.ContentGap{{Topic: "RAG evaluation", PriorityScore: 70}}},
		gen,
		val,
		store,
		testConfig(),
	)
	return p, profiler
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	batch := ideaBatch("A", "B", "C", "D", "E")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{batch}}
	val := &fakeValidator{results: [][]core.ValidationResult{validResults(batch, 4)}}
	store := &fakeRunStore{}
	p, _ := newTestPipeline(gen, val, store)

	result, err := p.Run(context.Background(), RunOptions{Enrichment: profile.EnrichmentData{CompanyName: "Vectorly"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if gen.call != 1 {
		t.Errorf("Expected early exit after 1 attempt, generator called %d times", gen.call)
	}
	if result.Degraded {
		t.Error("Expected non-degraded run")
	}
	if result.BestAttempt != 1 {
		t.Errorf("BestAttempt = %d, expected 1", result.BestAttempt)
	}
	if len(result.Ideas) != 5 {
		t.Errorf("Expected 5 selected ideas, got %d", len(result.Ideas))
	}
	if result.RunID == "" {
		t.Error("Expected a run ID")
	}
	if len(store.saved) != 1 {
		t.Fatalf("Expected run persisted once, got %d", len(store.saved))
	}
	if store.saved[0].ID != result.RunID || !store.saved[0].Success {
		t.Errorf("Persisted record mismatch: %+v", store.saved[0])
	}
}

func TestRunRetriesWithFeedbackAndPicksBestAttempt(t *testing.T) {
	first := ideaBatch("A", "B", "C")
	second := ideaBatch("D", "E", "F", "G")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{first, second}}
	val := &fakeValidator{results: [][]core.ValidationResult{
		validResults(first, 1),  // below target, forces retry
		validResults(second, 3), // meets target
	}}
	p, _ := newTestPipeline(gen, val, &fakeRunStore{})

	result, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if gen.call != 2 {
		t.Fatalf("Expected 2 attempts, got %d", gen.call)
	}
	if len(gen.feedback[0]) != 0 {
		t.Errorf("First attempt should carry no feedback, got %v", gen.feedback[0])
	}
	if len(gen.feedback[1]) == 0 || gen.feedback[1][0] != "too generic" {
		t.Errorf("Second attempt should carry rejection feedback, got %v", gen.feedback[1])
	}
	if result.BestAttempt != 2 {
		t.Errorf("BestAttempt = %d, expected 2", result.BestAttempt)
	}
	if result.Degraded {
		t.Error("Expected non-degraded result after the second attempt met targets")
	}
}

func TestRunKeepsBetterEarlierAttempt(t *testing.T) {
	first := ideaBatch("A", "B", "C", "D")
	second := ideaBatch("E", "F")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{first, second}}
	val := &fakeValidator{results: [][]core.ValidationResult{
		validResults(first, 2),
		validResults(second, 1),
	}}
	p, _ := newTestPipeline(gen, val, &fakeRunStore{})

	result, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.BestAttempt != 1 {
		t.Errorf("BestAttempt = %d, expected earlier attempt with more valid ideas", result.BestAttempt)
	}
	if !result.Degraded {
		t.Error("Expected degraded flag when no attempt met the quality gate")
	}
}

func TestRunValidationFailureDegradesToRawIdeas(t *testing.T) {
	batch := ideaBatch("A", "B", "C")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{batch, batch}}
	val := &fakeValidator{errs: []error{errors.New("llm down"), errors.New("llm down")}}
	p, _ := newTestPipeline(gen, val, &fakeRunStore{})

	result, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Degraded {
		t.Error("Expected degraded run when validation never succeeded")
	}
	if len(result.Ideas) != 3 {
		t.Fatalf("Expected raw ideas wrapped, got %d", len(result.Ideas))
	}
	if result.Ideas[0].RejectionReason != "Validation unavailable" {
		t.Errorf("Unexpected wrap reason: %q", result.Ideas[0].RejectionReason)
	}
	found := false
	for _, d := range result.Diagnostics {
		if strings.Contains(d, "validation attempt 1 failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected validation diagnostic, got %v", result.Diagnostics)
	}
}

func TestRunFirstGenerationFailureRecovers(t *testing.T) {
	batch := ideaBatch("A", "B", "C")
	gen := &fakeGenerator{
		batches: [][]core.GeneratedIdea{nil, batch},
		errs:    []error{errors.New("quota"), nil},
	}
	val := &fakeValidator{results: [][]core.ValidationResult{validResults(batch, 3)}}
	p, _ := newTestPipeline(gen, val, &fakeRunStore{})

	result, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.BestAttempt != 2 {
		t.Errorf("BestAttempt = %d, expected 2", result.BestAttempt)
	}
}

func TestRunAllGenerationFailures(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("quota"), errors.New("quota")}}
	val := &fakeValidator{}
	store := &fakeRunStore{}
	p, _ := newTestPipeline(gen, val, store)

	if _, err := p.Run(context.Background(), RunOptions{}); err == nil {
		t.Fatal("Expected error when every generation attempt fails")
	}
	if len(store.saved) != 0 {
		t.Error("Failed run should not be persisted")
	}
}

func TestRunProfileErrorIsFatal(t *testing.T) {
	p, profiler := newTestPipeline(&fakeGenerator{}, &fakeValidator{}, &fakeRunStore{})
	profiler.err = errors.New("profiling failed")

	if _, err := p.Run(context.Background(), RunOptions{}); err == nil {
		t.Fatal("Expected profiling error to abort the run")
	}
}

func TestRunSuppliedProfileSkipsProfiler(t *testing.T) {
	batch := ideaBatch("A", "B", "C")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{batch}}
	val := &fakeValidator{results: [][]core.ValidationResult{validResults(batch, 3)}}
	p, profiler := newTestPipeline(gen, val, &fakeRunStore{})

	supplied := &core.CompanyProfile{CompanyName: "Prebuilt Co"}
	result, err := p.Run(context.Background(), RunOptions{Profile: supplied})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if profiler.calls != 0 {
		t.Errorf("Expected profiler skipped, called %d times", profiler.calls)
	}
	if result.Profile.CompanyName != "Prebuilt Co" {
		t.Errorf("Expected supplied profile used, got %q", result.Profile.CompanyName)
	}
}

func TestRunCuratedOnlyPoolDiagnostic(t *testing.T) {
	batch := ideaBatch("A", "B", "C")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{batch}}
	val := &fakeValidator{results: [][]core.ValidationResult{validResults(batch, 3)}}
	profiler := &fakeProfiler{profile: &core.CompanyProfile{CompanyName: "Vectorly"}}
	p := NewPipeline(
		&fakeConceptProvider{pool: testPool(), cached: nil}, // dynamic side unavailable
		profiler,
		&fakeMatcher{matched: []core.MatchedConcept{{Concept: core.TrendConcept{Name: "RAG Pipelines"}}}},
		&fakeGapAnalyzer{},
		gen,
		val,
		&fakeRunStore{},
		testConfig(),
	)

	result, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	found := false
	for _, d := range result.Diagnostics {
		if strings.Contains(d, "curated-only") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected curated-only diagnostic, got %v", result.Diagnostics)
	}
}

func TestRunStaleCacheDiagnosticAndExtractionCost(t *testing.T) {
	batch := ideaBatch("A", "B", "C")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{batch}}
	val := &fakeValidator{results: [][]core.ValidationResult{validResults(batch, 3)}}
	profiler := &fakeProfiler{profile: &core.CompanyProfile{CompanyName: "Vectorly"}}
	p := NewPipeline(
		&fakeConceptProvider{
			pool:   testPool(),
			cached: &concepts.CachedResult{Stale: true, Cost: llm.Usage{InputTokens: 1000, OutputTokens: 500}},
		},
		profiler,
		&fakeMatcher{matched: []core.MatchedConcept{{Concept: core.TrendConcept{Name: "RAG Pipelines"}}}},
		&fakeGapAnalyzer{},
		gen,
		val,
		&fakeRunStore{},
		testConfig(),
	)

	result, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	staleSeen := false
	for _, d := range result.Diagnostics {
		if strings.Contains(d, "stale") {
			staleSeen = true
		}
	}
	if !staleSeen {
		t.Errorf("Expected stale-cache diagnostic, got %v", result.Diagnostics)
	}

	extractionSeen := false
	for _, c := range result.Costs {
		if c.Stage == "concept_extraction" {
			extractionSeen = true
		}
	}
	if !extractionSeen {
		t.Error("Expected concept_extraction stage cost recorded")
	}
	if result.TotalCost() <= 0 {
		t.Error("Expected positive total cost")
	}
}

func TestRunPersistFailureIsNotFatal(t *testing.T) {
	batch := ideaBatch("A", "B", "C")
	gen := &fakeGenerator{batches: [][]core.GeneratedIdea{batch}}
	val := &fakeValidator{results: [][]core.ValidationResult{validResults(batch, 3)}}
	store := &fakeRunStore{err: errors.New("disk full")}
	p, _ := newTestPipeline(gen, val, store)

	if _, err := p.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run should tolerate persistence failure, got %v", err)
	}
}
