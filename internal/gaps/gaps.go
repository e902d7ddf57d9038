// Package gaps identifies content gaps the company should address.
package gaps

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

// LLMClient is the slice of the generative client the analyzer needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, llm.Usage, error)
}

// Options tune the analyzer.
type Options struct {
	PriorityFloor int // Minimum priority score to keep a gap (default 55)
	MaxGaps       int // Cap on the returned set (default 8)
}

// Analyzer proposes and filters content gaps.
type Analyzer struct {
	llmClient LLMClient
	opts      Options
	log       *slog.Logger
}

// NewAnalyzer creates a gap analyzer.
func NewAnalyzer(llmClient LLMClient, opts Options) *Analyzer {
	if opts.PriorityFloor <= 0 {
		opts.PriorityFloor = 55
	}
	if opts.MaxGaps <= 0 {
		opts.MaxGaps = 8
	}
	return &Analyzer{
		llmClient: llmClient,
		opts:      opts,
		log:       logger.Get(),
	}
}

// Analyze proposes 5-8 gaps from the profile and matched concepts, filters
// them to the priority floor and caps the result.
func (a *Analyzer) Analyze(ctx context.Context, profile *core.CompanyProfile, matched []core.MatchedConcept, contentSummary string) ([]core.ContentGap, llm.Usage, error) {
	prompt := a.buildGapPrompt(profile, matched, contentSummary)

	response, usage, err := a.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:  0.5,
		MaxTokens:    3000,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, usage, fmt.Errorf("%w: gap analysis: %v", core.ErrStageFailed, err)
	}

	gaps, err := a.parseGapResponse(response)
	if err != nil {
		return nil, usage, fmt.Errorf("%w: gap analysis: %v", core.ErrStageFailed, err)
	}

	var filtered []core.ContentGap
	for _, gap := range gaps {
		if gap.PriorityScore >= a.opts.PriorityFloor {
			filtered = append(filtered, gap)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PriorityScore > filtered[j].PriorityScore
	})
	if len(filtered) > a.opts.MaxGaps {
		filtered = filtered[:a.opts.MaxGaps]
	}

	a.log.Info("Content gaps identified", "proposed", len(gaps), "kept", len(filtered))
	return filtered, usage, nil
}

func (a *Analyzer) buildGapPrompt(profile *core.CompanyProfile, matched []core.MatchedConcept, contentSummary string) string {
	var sb strings.Builder

	sb.WriteString("You are auditing a company's developer content for coverage gaps.\n\n")

	sb.WriteString("COMPANY: " + profile.CompanyName + " — " + profile.OneLinerDescription + "\n")
	if len(profile.TechStack) > 0 {
		sb.WriteString("Tech stack: " + strings.Join(profile.TechStack, ", ") + "\n")
	}
	for _, d := range profile.UniqueDifferentiators {
		sb.WriteString("Differentiator: " + d.Claim + "\n")
	}
	sb.WriteString("Audience: " + profile.TargetAudience.Primary + "\n")

	if len(matched) > 0 {
		names := make([]string, 0, len(matched))
		for _, m := range matched {
			names = append(names, m.Concept.Name)
		}
		sb.WriteString("Relevant trend concepts: " + strings.Join(names, ", ") + "\n")
	}

	if contentSummary != "" {
		sb.WriteString("\nEXISTING CONTENT:\n" + contentSummary + "\n")
	}

	sb.WriteString("\nPropose 5-8 content gaps: topics this company should cover but does not.\n")
	sb.WriteString("gap_type is one of: tech_stack, audience, differentiation, funnel, trending.\n")
	sb.WriteString("priority_score is 0-100; reserve 80+ for gaps a competitor could exploit.\n\n")

	sb.WriteString("Respond with a JSON array:\n")
	sb.WriteString(`[{"topic": "...", "gap_type": "...", "why_it_matters": "...", "suggested_angle": "...", "priority_score": 0}]`)
	sb.WriteString("\n")

	return sb.String()
}

func (a *Analyzer) parseGapResponse(response string) ([]core.ContentGap, error) {
	cleaned := llm.ExtractJSONArray(response)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var parsed []struct {
		Topic          string `json:"topic"`
		GapType        string `json:"gap_type"`
		WhyItMatters   string `json:"why_it_matters"`
		SuggestedAngle string `json:"suggested_angle"`
		PriorityScore  int    `json:"priority_score"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var gaps []core.ContentGap
	for _, entry := range parsed {
		if strings.TrimSpace(entry.Topic) == "" {
			continue
		}
		gaps = append(gaps, core.ContentGap{
			Topic:          entry.Topic,
			GapType:        normalizeGapType(entry.GapType),
			WhyItMatters:   entry.WhyItMatters,
			SuggestedAngle: entry.SuggestedAngle,
			PriorityScore:  entry.PriorityScore,
		})
	}
	return gaps, nil
}

func normalizeGapType(raw string) core.GapType {
	switch core.GapType(strings.ToLower(strings.TrimSpace(raw))) {
	case core.GapTechStack, core.GapAudience, core.GapDifferentiation, core.GapFunnel, core.GapTrending:
		return core.GapType(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return core.GapTrending
	}
}
