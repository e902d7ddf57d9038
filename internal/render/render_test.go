package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ideaforge/internal/core"
	"ideaforge/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID: "run-123",
		Profile: &core.CompanyProfile{
			CompanyName: "Vectorly Labs",
		},
		Ideas: []core.ValidationResult{
			{
				Idea: core.GeneratedIdea{
					Title:                   "Build a RAG service with Vectorly",
					WhyThisCompany:          "Retrieval is the core product",
					WhyNow:                  "RAG adoption is surging",
					AIConcept:               "RAG Pipelines",
					ConceptFitScore:         84,
					SourceConceptType:       "curated",
					ProductTrendIntegration: "The retrieval API is the backbone",
					Tools:                   []string{"Go", "Vectorly SDK"},
					WhatReaderLearns:        []string{"Index documents", "Tune retrieval"},
				},
				IsValid: true,
				Scores:  core.IdeaScores{OverallScore: 82.5},
			},
			{
				Idea:            core.GeneratedIdea{Title: "Rejected idea"},
				IsValid:         false,
				Scores:          core.IdeaScores{OverallScore: 55},
				RejectionReason: "Too generic",
			},
		},
		MatchedConcepts: []core.MatchedConcept{
			{
				Concept:   core.TrendConcept{Name: "RAG Pipelines", HypeLevel: core.HypePeak},
				FitScore:  84,
				FitReason: "Direct product overlap",
			},
			{
				Concept:      core.TrendConcept{Name: "Semantic Caching"},
				FitScore:     68,
				FromFallback: true,
			},
		},
		Gaps: []core.ContentGap{
			{Topic: "RAG evaluation", GapType: core.GapTrending, PriorityScore: 75, WhyItMatters: "Competitors own this topic", SuggestedAngle: "Benchmark retrieval quality"},
		},
		Attempts:    []pipeline.Attempt{{Number: 1}},
		BestAttempt: 1,
		FinishedAt:  time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderMarkdownSections(t *testing.T) {
	content := RenderMarkdown(sampleResult())

	for _, want := range []string{
		"# Content Ideas: Vectorly Labs",
		"run-123",
		"### 1. Build a RAG service with Vectorly",
		"**Why this company:** Retrieval is the core product",
		"**Trend concept:** RAG Pipelines (fit 84, curated)",
		"**Tools:** Go, Vectorly SDK",
		"- Index documents",
		"*Validator note: Too generic*",
		"(below threshold)",
		"## Matched Trend Concepts",
		"| RAG Pipelines | 84 | peak | matched |",
		"| Semantic Caching | 68 |  | fallback |",
		"- **RAG Pipelines**: Direct product overlap",
		"## Content Gaps",
		"**RAG evaluation** (trending, priority 75)",
		"Angle: Benchmark retrieval quality",
		"## Run Details",
		"Attempts: 1 (best: attempt 1)",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestRenderMarkdownDegradedNote(t *testing.T) {
	result := sampleResult()
	result.Degraded = true
	result.Diagnostics = []string{"quality gate not fully satisfied, best-effort output"}

	content := RenderMarkdown(result)
	if !strings.Contains(content, "best-effort") {
		t.Error("Expected degraded note in report")
	}
	if !strings.Contains(content, "quality gate not fully satisfied") {
		t.Error("Expected diagnostics in run details")
	}
}

func TestRenderMarkdownNoIdeas(t *testing.T) {
	result := sampleResult()
	result.Ideas = nil

	content := RenderMarkdown(result)
	if !strings.Contains(content, "No ideas survived validation.") {
		t.Error("Expected empty-ideas message")
	}
}

func TestRenderMarkdownReportWritesFile(t *testing.T) {
	dir := t.TempDir()

	path, err := RenderMarkdownReport(sampleResult(), dir)
	if err != nil {
		t.Fatalf("RenderMarkdownReport failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "ideas_vectorly-labs_") || !strings.HasSuffix(base, ".md") {
		t.Errorf("Unexpected report filename: %s", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "# Content Ideas: Vectorly Labs") {
		t.Error("Report file missing header")
	}
}

func TestCompanySlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to dashes", "Vectorly Labs", "vectorly-labs"},
		{"punctuation dropped", "Acme, Inc.", "acme-inc"},
		{"empty falls back", "  ", "company"},
		{"long name truncated", strings.Repeat("a", 50), strings.Repeat("a", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := companySlug(tt.input); got != tt.want {
				t.Errorf("companySlug(%q) = %q, expected %q", tt.input, got, tt.want)
			}
		})
	}
}
