// Package match scores trend concepts against a company profile and
// guarantees a minimum matched set via keyword-overlap fallback injection.
package match

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
	"ideaforge/internal/logger"
)

// LLMClient is the slice of the generative client the matcher needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, llm.Usage, error)
}

// Options tune the matcher. Zero values fall back to the standard thresholds.
type Options struct {
	StrictThreshold int // Minimum model fit score to accept (default 70)
	MaxMatches      int // Cap on the returned set (default 5)
	MinMatches      int // Floor below which fallback injection kicks in (default 3)
	FallbackCap     int // Ceiling for synthetic fallback fit scores (default 79)
}

func (o Options) withDefaults() Options {
	if o.StrictThreshold <= 0 {
		o.StrictThreshold = 70
	}
	if o.MaxMatches <= 0 {
		o.MaxMatches = 5
	}
	if o.MinMatches <= 0 {
		o.MinMatches = 3
	}
	if o.FallbackCap <= 0 {
		o.FallbackCap = 79
	}
	return o
}

// Matcher scores pooled concepts for company fit.
type Matcher struct {
	llmClient LLMClient
	opts      Options
	log       *slog.Logger
}

// NewMatcher creates a matcher.
func NewMatcher(llmClient LLMClient, opts Options) *Matcher {
	return &Matcher{
		llmClient: llmClient,
		opts:      opts.withDefaults(),
		log:       logger.Get(),
	}
}

// Match scores each pooled concept against the profile in one call, keeps
// strict matches at or above the threshold, and injects keyword-overlap
// fallback concepts when the strict pass under-produces. The returned set is
// sorted by fit score descending.
func (m *Matcher) Match(ctx context.Context, pool []core.TrendConcept, profile *core.CompanyProfile) ([]core.MatchedConcept, llm.Usage, error) {
	if len(pool) == 0 {
		return nil, llm.Usage{}, fmt.Errorf("concept pool is empty")
	}

	prompt := m.buildMatchPrompt(pool, profile)

	response, usage, err := m.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:  0.3,
		MaxTokens:    4000,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, usage, fmt.Errorf("%w: concept matching: %v", core.ErrStageFailed, err)
	}

	strict, err := m.parseMatchResponse(response, pool)
	if err != nil {
		return nil, usage, fmt.Errorf("%w: concept matching: %v", core.ErrStageFailed, err)
	}

	sort.SliceStable(strict, func(i, j int) bool {
		return strict[i].FitScore > strict[j].FitScore
	})
	if len(strict) > m.opts.MaxMatches {
		strict = strict[:m.opts.MaxMatches]
	}

	matched := strict
	if len(matched) < m.opts.MinMatches {
		injected := InjectFallbacks(pool, matched, profile, m.opts.MinMatches, m.opts.FallbackCap)
		if len(injected) > 0 {
			m.log.Info("Injected fallback concepts",
				"strict", len(matched),
				"injected", len(injected),
			)
			matched = append(matched, injected...)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].FitScore > matched[j].FitScore
	})

	return matched, usage, nil
}

func (m *Matcher) buildMatchPrompt(pool []core.TrendConcept, profile *core.CompanyProfile) string {
	var sb strings.Builder

	sb.WriteString("You are matching technology trend concepts to a specific company for tutorial content.\n\n")

	sb.WriteString("COMPANY PROFILE:\n")
	sb.WriteString("Name: " + profile.CompanyName + "\n")
	sb.WriteString("What they do: " + profile.OneLinerDescription + "\n")
	sb.WriteString("Type: " + profile.CompanyType + "\n")
	if len(profile.TechStack) > 0 {
		sb.WriteString("Tech stack: " + strings.Join(profile.TechStack, ", ") + "\n")
	}
	for _, d := range profile.UniqueDifferentiators {
		sb.WriteString("Differentiator: " + d.Claim + "\n")
	}
	sb.WriteString("Audience: " + profile.TargetAudience.Primary + "\n\n")

	sb.WriteString("TREND CONCEPTS:\n")
	for i, concept := range pool {
		sb.WriteString(fmt.Sprintf("%d. %s — %s (hype: %s)\n", i+1, concept.Name, concept.Description, concept.HypeLevel))
	}

	sb.WriteString("\nFor each concept, score 0-100 how well a tutorial about it would fit this company:\n")
	sb.WriteString("- 80+: natural fit, the company's product strengthens the tutorial\n")
	sb.WriteString("- 60-79: plausible fit with a clear angle\n")
	sb.WriteString("- below 60: forced\n")
	sb.WriteString("Be strict. Most concepts should score below 70 for most companies.\n\n")

	sb.WriteString("Respond with a JSON array, one object per concept, using the concept's number as index:\n")
	sb.WriteString(`[{"index": 1, "fit_score": 0, "fit_reason": "...", "product_integration": "...", "tutorial_angle": "..."}]`)
	sb.WriteString("\n")

	return sb.String()
}

// parseMatchResponse keeps only entries at or above the strict threshold.
func (m *Matcher) parseMatchResponse(response string, pool []core.TrendConcept) ([]core.MatchedConcept, error) {
	cleaned := llm.ExtractJSONArray(response)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var parsed []struct {
		Index              int    `json:"index"`
		FitScore           int    `json:"fit_score"`
		FitReason          string `json:"fit_reason"`
		ProductIntegration string `json:"product_integration"`
		TutorialAngle      string `json:"tutorial_angle"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var matched []core.MatchedConcept
	for _, entry := range parsed {
		if entry.Index < 1 || entry.Index > len(pool) {
			continue
		}
		if entry.FitScore < m.opts.StrictThreshold {
			continue
		}
		matched = append(matched, core.MatchedConcept{
			Concept:            pool[entry.Index-1],
			FitScore:           clampScore(entry.FitScore),
			FitReason:          entry.FitReason,
			ProductIntegration: entry.ProductIntegration,
			TutorialAngle:      entry.TutorialAngle,
			FromFallback:       false,
		})
	}

	return matched, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
