package cost

import (
	"math"
	"testing"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
)

func TestEstimateTokenCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n  ", 0},
		{"seven chars", "abcdefg", 2},
		{"newlines count as spaces", "one\ntwo", 2},
		{"exact multiple", "abcdefghijklmn", 4}, // 14 / 3.5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokenCount(tt.text); got != tt.want {
				t.Errorf("EstimateTokenCount(%q) = %d, expected %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestForStageKnownModel(t *testing.T) {
	usage := llm.Usage{InputTokens: 1_000_000, OutputTokens: 100_000}
	stageCost := ForStage("concept_extraction", "gemini-2.5-flash", usage)

	if stageCost.Stage != "concept_extraction" {
		t.Errorf("Stage = %q", stageCost.Stage)
	}
	if stageCost.Model != "gemini-2.5-flash" {
		t.Errorf("Model = %q", stageCost.Model)
	}
	// 1M input at $0.30/1M + 100K output at $2.50/1M = 0.30 + 0.25
	want := 0.55
	if math.Abs(stageCost.USD-want) > 1e-9 {
		t.Errorf("USD = %.6f, expected %.6f", stageCost.USD, want)
	}
}

func TestForStageUnknownModelUsesDefaultPricing(t *testing.T) {
	usage := llm.Usage{InputTokens: 1_000_000, OutputTokens: 0}
	stageCost := ForStage("gap_analysis", "gemini-9.9-experimental", usage)

	if math.Abs(stageCost.USD-0.30) > 1e-9 {
		t.Errorf("USD = %.6f, expected default input rate 0.30", stageCost.USD)
	}
}

func TestForStageProPricing(t *testing.T) {
	usage := llm.Usage{InputTokens: 2_000_000, OutputTokens: 500_000}
	stageCost := ForStage("idea_generation_1", "gemini-2.5-pro", usage)

	// 2M at $1.25/1M + 0.5M at $10.00/1M = 2.50 + 5.00
	want := 7.50
	if math.Abs(stageCost.USD-want) > 1e-9 {
		t.Errorf("USD = %.6f, expected %.6f", stageCost.USD, want)
	}
}

func TestTotal(t *testing.T) {
	costs := []core.StageCost{
		{Stage: "a", USD: 0.10},
		{Stage: "b", USD: 0.25},
		{Stage: "c", USD: 0.05},
	}
	if got := Total(costs); math.Abs(got-0.40) > 1e-9 {
		t.Errorf("Total = %.6f, expected 0.40", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("Total(nil) = %.6f, expected 0", got)
	}
}
