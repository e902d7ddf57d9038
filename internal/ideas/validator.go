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

// Composite weights and acceptance floors. All empirically chosen; preserved
// as named constants rather than re-derived.
const (
	weightCompanyRelevance        = 0.30
	weightTrendFreshness          = 0.25
	weightProductTrendIntegration = 0.20
	weightAudienceRelevance       = 0.15
	weightDeveloperActionability  = 0.10

	compositeFloor               = 70
	companyRelevanceFloor        = 70
	trendFreshnessFloor          = 65
	productTrendIntegrationFloor = 65
	developerActionabilityFloor  = 60

	// Conservative defaults for ideas the model's response omits.
	omittedScoreDefault = 45
)

// Composite computes the weighted overall score from the five dimensions.
func Composite(s core.IdeaScores) float64 {
	return float64(s.CompanyRelevance)*weightCompanyRelevance +
		float64(s.TrendFreshness)*weightTrendFreshness +
		float64(s.ProductTrendIntegration)*weightProductTrendIntegration +
		float64(s.AudienceRelevance)*weightAudienceRelevance +
		float64(s.DeveloperActionability)*weightDeveloperActionability
}

// Validator scores idea batches against the company profile.
type Validator struct {
	llmClient LLMClient
	log       *slog.Logger
}

// NewValidator creates a validator.
func NewValidator(llmClient LLMClient) *Validator {
	return &Validator{
		llmClient: llmClient,
		log:       logger.Get(),
	}
}

// Validate scores the whole batch in one call. Ideas the response omits get
// conservative defaults and a generic rejection instead of failing the batch.
func (v *Validator) Validate(ctx context.Context, batch []core.GeneratedIdea, profile *core.CompanyProfile) ([]core.ValidationResult, llm.Usage, error) {
	if len(batch) == 0 {
		return nil, llm.Usage{}, fmt.Errorf("no ideas to validate")
	}

	prompt := v.buildValidationPrompt(batch, profile)

	response, usage, err := v.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:  0.2,
		MaxTokens:    4000,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, usage, fmt.Errorf("%w: idea validation: %v", core.ErrStageFailed, err)
	}

	results, err := v.parseValidationResponse(response, batch)
	if err != nil {
		return nil, usage, fmt.Errorf("%w: idea validation: %v", core.ErrStageFailed, err)
	}

	return results, usage, nil
}

func (v *Validator) buildValidationPrompt(batch []core.GeneratedIdea, profile *core.CompanyProfile) string {
	var sb strings.Builder

	sb.WriteString("You are a strict editorial reviewer for developer content.\n")
	sb.WriteString("Score every idea below on five dimensions, 0-100 each.\n\n")

	sb.WriteString("COMPANY: " + profile.CompanyName + " — " + profile.OneLinerDescription + "\n")
	sb.WriteString("Audience: " + profile.TargetAudience.Primary +
		" (" + profile.TargetAudience.SophisticationLevel + ")\n\n")

	sb.WriteString("IDEAS:\n")
	for i, idea := range batch {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, idea.Title))
		sb.WriteString("   Why this company: " + idea.WhyThisCompany + "\n")
		if idea.AIConcept != "" {
			sb.WriteString("   Trend concept: " + idea.AIConcept + "\n")
		}
	}

	sb.WriteString("\nDimensions:\n")
	sb.WriteString("- company_relevance: does the idea genuinely need THIS company to tell it?\n")
	sb.WriteString("- trend_freshness: is the underlying trend current rather than stale?\n")
	sb.WriteString("- product_trend_integration: do product and trend combine naturally?\n")
	sb.WriteString("- audience_relevance: does the target audience care?\n")
	sb.WriteString("- developer_actionability: can a reader build something from it?\n\n")

	sb.WriteString("verdict is \"accept\" or \"reject\". Reject freely; most first drafts deserve it.\n")
	sb.WriteString("For rejects, give a specific rejection_reason and an improvement_suggestion.\n\n")

	sb.WriteString("Respond with a JSON array, one object per idea, using the idea's number as index:\n")
	sb.WriteString(`[{"index": 1, "verdict": "accept", "company_relevance": 0, "trend_freshness": 0, "product_trend_integration": 0, "audience_relevance": 0, "developer_actionability": 0, "rejection_reason": "", "improvement_suggestion": ""}]`)
	sb.WriteString("\n")

	return sb.String()
}

func (v *Validator) parseValidationResponse(response string, batch []core.GeneratedIdea) ([]core.ValidationResult, error) {
	cleaned := llm.ExtractJSONArray(response)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var parsed []struct {
		Index                   int    `json:"index"`
		Verdict                 string `json:"verdict"`
		CompanyRelevance        int    `json:"company_relevance"`
		TrendFreshness          int    `json:"trend_freshness"`
		ProductTrendIntegration int    `json:"product_trend_integration"`
		AudienceRelevance       int    `json:"audience_relevance"`
		DeveloperActionability  int    `json:"developer_actionability"`
		RejectionReason         string `json:"rejection_reason"`
		ImprovementSuggestion   string `json:"improvement_suggestion"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	byIndex := make(map[int]int, len(parsed)) // idea index -> parsed position
	for pos, entry := range parsed {
		if entry.Index >= 1 && entry.Index <= len(batch) {
			byIndex[entry.Index-1] = pos
		}
	}

	results := make([]core.ValidationResult, len(batch))
	omitted := 0
	for i, idea := range batch {
		pos, ok := byIndex[i]
		if !ok {
			// Partial-response tolerance: score conservatively, reject,
			// keep the batch.
			results[i] = omittedResult(idea)
			omitted++
			continue
		}
		entry := parsed[pos]

		scores := core.IdeaScores{
			CompanyRelevance:        entry.CompanyRelevance,
			TrendFreshness:          entry.TrendFreshness,
			ProductTrendIntegration: entry.ProductTrendIntegration,
			AudienceRelevance:       entry.AudienceRelevance,
			DeveloperActionability:  entry.DeveloperActionability,
		}
		scores.OverallScore = Composite(scores)

		accepted := strings.EqualFold(strings.TrimSpace(entry.Verdict), "accept")
		isValid := accepted &&
			scores.OverallScore >= compositeFloor &&
			scores.CompanyRelevance >= companyRelevanceFloor &&
			scores.TrendFreshness >= trendFreshnessFloor &&
			scores.ProductTrendIntegration >= productTrendIntegrationFloor &&
			scores.DeveloperActionability >= developerActionabilityFloor

		result := core.ValidationResult{
			Idea:    idea,
			IsValid: isValid,
			Scores:  scores,
		}
		if !isValid {
			result.RejectionReason = defaultString(entry.RejectionReason, "Did not meet quality thresholds")
			result.ImprovementSuggestion = entry.ImprovementSuggestion
		}
		results[i] = result
	}

	if omitted > 0 {
		v.log.Warn("Validator response omitted ideas", "omitted", omitted, "batch", len(batch))
	}

	return results, nil
}

// omittedResult is the conservative default for an idea the model skipped.
func omittedResult(idea core.GeneratedIdea) core.ValidationResult {
	scores := core.IdeaScores{
		CompanyRelevance:        omittedScoreDefault,
		TrendFreshness:          omittedScoreDefault,
		ProductTrendIntegration: omittedScoreDefault,
		AudienceRelevance:       omittedScoreDefault,
		DeveloperActionability:  omittedScoreDefault,
	}
	scores.OverallScore = Composite(scores)

	return core.ValidationResult{
		Idea:            idea,
		IsValid:         false,
		Scores:          scores,
		RejectionReason: "Idea was not scored by the validator",
	}
}
