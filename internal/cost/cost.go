// Package cost tracks token usage and estimated spend per pipeline stage.
package cost

import (
	"math"
	"strings"
	"unicode/utf8"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
)

// GeminiPricing represents per-model token pricing.
type GeminiPricing struct {
	Model                 string
	InputCostPer1MTokens  float64 // USD per 1M input tokens
	OutputCostPer1MTokens float64 // USD per 1M output tokens
}

// PricingTable contains Gemini pricing as of 2025.
var PricingTable = map[string]GeminiPricing{
	"gemini-2.5-flash": {
		Model:                 "gemini-2.5-flash",
		InputCostPer1MTokens:  0.30,
		OutputCostPer1MTokens: 2.50,
	},
	"gemini-2.5-flash-lite": {
		Model:                 "gemini-2.5-flash-lite",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
	},
	"gemini-2.5-pro": {
		Model:                 "gemini-2.5-pro",
		InputCostPer1MTokens:  1.25,
		OutputCostPer1MTokens: 10.00,
	},
}

// defaultPricing is used for models missing from the table.
var defaultPricing = GeminiPricing{
	Model:                 "unknown",
	InputCostPer1MTokens:  0.30,
	OutputCostPer1MTokens: 2.50,
}

// EstimateTokenCount provides a rough token estimate for text.
// Roughly 1 token per 3.5 characters for English prose.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	charCount := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(charCount) / 3.5))
}

// ForStage converts a stage's token usage into a StageCost record.
func ForStage(stage, model string, usage llm.Usage) core.StageCost {
	pricing, ok := PricingTable[model]
	if !ok {
		pricing = defaultPricing
	}

	usd := float64(usage.InputTokens)/1_000_000*pricing.InputCostPer1MTokens +
		float64(usage.OutputTokens)/1_000_000*pricing.OutputCostPer1MTokens

	return core.StageCost{
		Stage:        stage,
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		USD:          usd,
	}
}

// Total sums the USD spend across stage costs.
func Total(costs []core.StageCost) float64 {
	total := 0.0
	for _, c := range costs {
		total += c.USD
	}
	return total
}
