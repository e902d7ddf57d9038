// Package ideas generates candidate content ideas and gates them through a
// multi-dimension quality validator.
package ideas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
	"ideaforge/internal/logger"
)

// LLMClient is the slice of the generative client this package needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, llm.Usage, error)
}

// buzzwordBlacklist lists marketing filler the generator is told to avoid.
var buzzwordBlacklist = []string{
	"game-changing", "revolutionary", "cutting-edge", "next-generation",
	"unlock", "supercharge", "leverage synergies", "seamless", "world-class",
}

// GeneratorOptions tune idea generation.
type GeneratorOptions struct {
	IdeasPerAttempt     int     // Ideas requested per call (default 5)
	MinConceptTutorials int     // Minimum concept-tutorial ideas per batch (default 3)
	ConfidenceFloor     float64 // Ideas below this model confidence are dropped (default 0.4)
}

func (o GeneratorOptions) withDefaults() GeneratorOptions {
	if o.IdeasPerAttempt <= 0 {
		o.IdeasPerAttempt = 5
	}
	if o.MinConceptTutorials <= 0 {
		o.MinConceptTutorials = 3
	}
	if o.ConfidenceFloor <= 0 {
		o.ConfidenceFloor = 0.4
	}
	return o
}

// GenerationInput is everything one generation attempt needs.
type GenerationInput struct {
	Profile         *core.CompanyProfile
	Gaps            []core.ContentGap
	MatchedConcepts []core.MatchedConcept
	PriorRejections []string // Top rejection reasons from the previous attempt
}

// Generator produces a batch of candidate ideas per attempt.
type Generator struct {
	llmClient LLMClient
	opts      GeneratorOptions
	log       *slog.Logger
}

// NewGenerator creates a generator.
func NewGenerator(llmClient LLMClient, opts GeneratorOptions) *Generator {
	return &Generator{
		llmClient: llmClient,
		opts:      opts.withDefaults(),
		log:       logger.Get(),
	}
}

// Generate runs one attempt. Output is sanitized field-by-field and ideas
// below the confidence floor are dropped before returning.
func (g *Generator) Generate(ctx context.Context, input GenerationInput) ([]core.GeneratedIdea, llm.Usage, error) {
	prompt := g.buildGenerationPrompt(input)

	response, usage, err := g.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:  0.8,
		MaxTokens:    6000,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, usage, fmt.Errorf("%w: idea generation: %v", core.ErrStageFailed, err)
	}

	ideas, err := g.parseGenerationResponse(response, input)
	if err != nil {
		return nil, usage, fmt.Errorf("%w: idea generation: %v", core.ErrStageFailed, err)
	}

	kept := make([]core.GeneratedIdea, 0, len(ideas))
	dropped := 0
	for _, idea := range ideas {
		if idea.Confidence < g.opts.ConfidenceFloor {
			dropped++
			continue
		}
		kept = append(kept, idea)
	}
	if dropped > 0 {
		g.log.Debug("Dropped low-confidence ideas", "dropped", dropped)
	}
	if len(kept) == 0 {
		return nil, usage, fmt.Errorf("%w: idea generation produced no usable ideas", core.ErrStageFailed)
	}

	return kept, usage, nil
}

func (g *Generator) buildGenerationPrompt(input GenerationInput) string {
	profile := input.Profile
	var sb strings.Builder

	sb.WriteString("You are a senior developer-content strategist. Generate exactly ")
	sb.WriteString(fmt.Sprintf("%d", g.opts.IdeasPerAttempt))
	sb.WriteString(" tutorial/content ideas for the company below.\n\n")

	sb.WriteString("COMPANY: " + profile.CompanyName + " — " + profile.OneLinerDescription + "\n")
	sb.WriteString("Type: " + profile.CompanyType + "\n")
	if len(profile.TechStack) > 0 {
		sb.WriteString("Tech stack: " + strings.Join(profile.TechStack, ", ") + "\n")
	}
	sb.WriteString("Audience: " + profile.TargetAudience.Primary +
		" (" + profile.TargetAudience.SophisticationLevel + ")\n")
	sb.WriteString("Tone: " + profile.ContentStyle.Tone + "\n")
	if len(profile.ContentStyle.TopicsToAvoid) > 0 {
		sb.WriteString("Topics to avoid: " + strings.Join(profile.ContentStyle.TopicsToAvoid, ", ") + "\n")
	}

	sb.WriteString("\nDIFFERENTIATORS:\n")
	for _, d := range profile.UniqueDifferentiators {
		sb.WriteString("- " + d.Claim + " (" + d.Evidence + ")\n")
	}

	sb.WriteString("\nCONTENT GAPS:\n")
	for _, gap := range input.Gaps {
		sb.WriteString(fmt.Sprintf("- %s [%s]: %s\n", gap.Topic, gap.GapType, gap.SuggestedAngle))
	}

	sb.WriteString("\nMATCHED TREND CONCEPTS:\n")
	for _, m := range input.MatchedConcepts {
		sb.WriteString(fmt.Sprintf("- %s (fit %d): %s | angle: %s\n",
			m.Concept.Name, m.FitScore, m.Concept.Description, m.TutorialAngle))
	}

	if len(input.PriorRejections) > 0 {
		sb.WriteString("\nPREVIOUS ATTEMPT FEEDBACK — the last batch was rejected for these reasons; correct them:\n")
		for _, reason := range input.PriorRejections {
			sb.WriteString("- " + reason + "\n")
		}
	}

	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Every idea must tie to a differentiator or a content gap\n")
	sb.WriteString(fmt.Sprintf("- At least %d ideas must be concept tutorials built on the matched trend concepts above\n", g.opts.MinConceptTutorials))
	sb.WriteString("- Titles must be specific and hands-on, not thought-leadership\n")
	sb.WriteString("- Never use these words: " + strings.Join(buzzwordBlacklist, ", ") + "\n")
	sb.WriteString("- confidence is your own 0-1 estimate that the idea survives strict editorial review\n\n")

	sb.WriteString("Respond with a JSON array:\n")
	sb.WriteString(`[{"title": "...", "why_this_company": "...", "why_now": "...", "what_reader_learns": ["..."], "tools": ["..."], "ai_concept": "...", "is_concept_tutorial": false, "trend_evidence": "...", "product_trend_integration": "...", "confidence": 0.0}]`)
	sb.WriteString("\n")

	return sb.String()
}

// parseGenerationResponse sanitizes each idea field-by-field; the model
// cannot be assumed to return well-formed output.
func (g *Generator) parseGenerationResponse(response string, input GenerationInput) ([]core.GeneratedIdea, error) {
	cleaned := llm.ExtractJSONArray(response)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var parsed []struct {
		Title                   string   `json:"title"`
		WhyThisCompany          string   `json:"why_this_company"`
		WhyNow                  string   `json:"why_now"`
		WhatReaderLearns        []string `json:"what_reader_learns"`
		Tools                   []string `json:"tools"`
		AIConcept               string   `json:"ai_concept"`
		IsConceptTutorial       bool     `json:"is_concept_tutorial"`
		TrendEvidence           string   `json:"trend_evidence"`
		ProductTrendIntegration string   `json:"product_trend_integration"`
		Confidence              float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	conceptsByName := make(map[string]core.MatchedConcept, len(input.MatchedConcepts))
	for _, m := range input.MatchedConcepts {
		conceptsByName[core.NormalizeName(m.Concept.Name)] = m
	}

	var ideas []core.GeneratedIdea
	for _, entry := range parsed {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}

		idea := core.GeneratedIdea{
			Title:                   title,
			WhyThisCompany:          defaultString(entry.WhyThisCompany, "Ties to the company's differentiation"),
			WhyNow:                  defaultString(entry.WhyNow, "Current audience interest"),
			WhatReaderLearns:        entry.WhatReaderLearns,
			Tools:                   entry.Tools,
			AIConcept:               strings.TrimSpace(entry.AIConcept),
			IsConceptTutorial:       entry.IsConceptTutorial,
			TrendEvidence:           entry.TrendEvidence,
			ProductTrendIntegration: entry.ProductTrendIntegration,
			Confidence:              clampConfidence(entry.Confidence),
		}
		if idea.WhatReaderLearns == nil {
			idea.WhatReaderLearns = []string{}
		}
		if idea.Tools == nil {
			idea.Tools = []string{}
		}

		// Backfill trend fields from the matched concept when the model
		// names one we know.
		if matched, ok := conceptsByName[core.NormalizeName(idea.AIConcept)]; ok {
			idea.IsConceptTutorial = true
			idea.ConceptFitScore = matched.FitScore
			idea.TrendFreshnessScore = matched.Concept.FreshnessScore
			idea.SourceConceptType = string(matched.Concept.SourceType)
			if idea.TrendEvidence == "" {
				idea.TrendEvidence = matched.Concept.WhyHot
			}
			if idea.ProductTrendIntegration == "" {
				idea.ProductTrendIntegration = matched.ProductIntegration
			}
		}

		ideas = append(ideas, idea)
	}

	return ideas, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
