// Package profile turns company enrichment data into a structured
// differentiation profile via one generative-service call.
package profile

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

// LLMClient is the slice of the generative client the profiler needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, llm.Usage, error)
}

// EnrichmentData is the read-only company-data input. Every field is
// optional; absence must never crash the profiler.
type EnrichmentData struct {
	CompanyName    string   `json:"company_name"`
	Website        string   `json:"website"`
	Industry       string   `json:"industry"`
	Technologies   []string `json:"technologies"`
	FundingStage   string   `json:"funding_stage"`
	EmployeeCount  int      `json:"employee_count"`
	Description    string   `json:"description"`
	ContentSummary string   `json:"content_summary"` // Summary of existing published content
}

// Options tune the profiler.
type Options struct {
	DifferentiatorFloor int // Minimum uniqueness score to retain (default 60)
}

// Profiler builds company profiles.
type Profiler struct {
	llmClient LLMClient
	opts      Options
	log       *slog.Logger
}

// NewProfiler creates a profiler.
func NewProfiler(llmClient LLMClient, opts Options) *Profiler {
	if opts.DifferentiatorFloor <= 0 {
		opts.DifferentiatorFloor = 60
	}
	return &Profiler{
		llmClient: llmClient,
		opts:      opts,
		log:       logger.Get(),
	}
}

// BuildProfile produces a fully-populated profile. The raw model response is
// never trusted directly: every field goes through sanitize, which supplies
// named defaults so downstream stages can assume a complete shape.
func (p *Profiler) BuildProfile(ctx context.Context, enrichment EnrichmentData) (*core.CompanyProfile, llm.Usage, error) {
	prompt := p.buildProfilePrompt(enrichment)

	response, usage, err := p.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:  0.5,
		MaxTokens:    3000,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, usage, fmt.Errorf("%w: company profiling: %v", core.ErrStageFailed, err)
	}

	raw, err := p.parseProfileResponse(response)
	if err != nil {
		return nil, usage, fmt.Errorf("%w: company profiling: %v", core.ErrStageFailed, err)
	}

	profile := p.sanitize(raw, enrichment)
	p.log.Info("Company profile built",
		"company", profile.CompanyName,
		"differentiators", len(profile.UniqueDifferentiators),
		"tech_stack", len(profile.TechStack),
	)
	return profile, usage, nil
}

func (p *Profiler) buildProfilePrompt(enrichment EnrichmentData) string {
	var sb strings.Builder

	sb.WriteString("You are a technical content strategist analyzing a company for tutorial-content planning.\n")
	sb.WriteString("Build a differentiation profile from the data below.\n\n")

	sb.WriteString("COMPANY DATA:\n")
	sb.WriteString("Name: " + orUnknown(enrichment.CompanyName) + "\n")
	if enrichment.Website != "" {
		sb.WriteString("Website: " + enrichment.Website + "\n")
	}
	sb.WriteString("Industry: " + orUnknown(enrichment.Industry) + "\n")
	if len(enrichment.Technologies) > 0 {
		sb.WriteString("Technologies: " + strings.Join(enrichment.Technologies, ", ") + "\n")
	}
	if enrichment.FundingStage != "" {
		sb.WriteString("Funding stage: " + enrichment.FundingStage + "\n")
	}
	if enrichment.EmployeeCount > 0 {
		sb.WriteString(fmt.Sprintf("Employees: %d\n", enrichment.EmployeeCount))
	}
	if enrichment.Description != "" {
		sb.WriteString("Description: " + enrichment.Description + "\n")
	}
	if enrichment.ContentSummary != "" {
		sb.WriteString("\nEXISTING CONTENT SUMMARY:\n" + enrichment.ContentSummary + "\n")
	}

	sb.WriteString("\nGuidelines:\n")
	sb.WriteString("- unique_differentiators: concrete claims with evidence, scored 0-100 for uniqueness; be conservative\n")
	sb.WriteString("- target_audience.sophistication_level: beginner, intermediate or advanced\n")
	sb.WriteString("- content_style should reflect how this company's audience expects to be addressed\n\n")

	sb.WriteString("Respond with JSON:\n")
	sb.WriteString(`{"company_name": "...", "one_liner_description": "...", "company_type": "...", "tech_stack": ["..."], "unique_differentiators": [{"claim": "...", "evidence": "...", "category": "...", "uniqueness_score": 0}], "target_audience": {"primary": "...", "secondary": "...", "sophistication_level": "...", "job_titles": ["..."], "industries": ["..."]}, "content_style": {"tone": "...", "technical_depth": "...", "format_preferences": ["..."], "topics_they_like": ["..."], "topics_to_avoid": ["..."]}}`)
	sb.WriteString("\n")

	return sb.String()
}

// rawProfile mirrors the response shape with everything optional.
type rawProfile struct {
	CompanyName           string                `json:"company_name"`
	OneLinerDescription   string                `json:"one_liner_description"`
	CompanyType           string                `json:"company_type"`
	TechStack             []string              `json:"tech_stack"`
	UniqueDifferentiators []core.Differentiator `json:"unique_differentiators"`
	TargetAudience        *core.TargetAudience  `json:"target_audience"`
	ContentStyle          *core.ContentStyle    `json:"content_style"`
}

func (p *Profiler) parseProfileResponse(response string) (*rawProfile, error) {
	cleaned := llm.ExtractJSON(response)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var raw rawProfile
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &raw, nil
}

// sanitize fills every field the model left out with a named default, so the
// returned profile is always fully populated.
func (p *Profiler) sanitize(raw *rawProfile, enrichment EnrichmentData) *core.CompanyProfile {
	profile := &core.CompanyProfile{
		CompanyName:         firstNonEmpty(raw.CompanyName, enrichment.CompanyName, "Unknown Company"),
		OneLinerDescription: firstNonEmpty(raw.OneLinerDescription, enrichment.Description, "A technology company"),
		CompanyType:         firstNonEmpty(raw.CompanyType, enrichment.Industry, "technology"),
		TechStack:           raw.TechStack,
	}

	// Missing tech stack falls back to enrichment-provided technologies.
	if len(profile.TechStack) == 0 {
		profile.TechStack = enrichment.Technologies
	}
	if profile.TechStack == nil {
		profile.TechStack = []string{}
	}

	// Only differentiators above the floor survive.
	profile.UniqueDifferentiators = []core.Differentiator{}
	for _, d := range raw.UniqueDifferentiators {
		if strings.TrimSpace(d.Claim) == "" {
			continue
		}
		if d.UniquenessScore >= p.opts.DifferentiatorFloor {
			profile.UniqueDifferentiators = append(profile.UniqueDifferentiators, d)
		}
	}

	audience := core.TargetAudience{}
	if raw.TargetAudience != nil {
		audience = *raw.TargetAudience
	}
	audience.Primary = firstNonEmpty(audience.Primary, "software developers")
	audience.Secondary = firstNonEmpty(audience.Secondary, "engineering leaders")
	audience.SophisticationLevel = normalizeSophistication(audience.SophisticationLevel)
	if audience.JobTitles == nil {
		audience.JobTitles = []string{}
	}
	if audience.Industries == nil {
		audience.Industries = []string{}
	}
	profile.TargetAudience = audience

	style := core.ContentStyle{}
	if raw.ContentStyle != nil {
		style = *raw.ContentStyle
	}
	style.Tone = firstNonEmpty(style.Tone, "technical but approachable")
	style.TechnicalDepth = firstNonEmpty(style.TechnicalDepth, "medium")
	if style.FormatPreferences == nil {
		style.FormatPreferences = []string{"tutorial"}
	}
	if style.TopicsTheyLike == nil {
		style.TopicsTheyLike = []string{}
	}
	if style.TopicsToAvoid == nil {
		style.TopicsToAvoid = []string{}
	}
	profile.ContentStyle = style

	return profile
}

func normalizeSophistication(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "beginner", "intermediate", "advanced":
		return strings.ToLower(strings.TrimSpace(level))
	default:
		return "intermediate"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
