// Package render writes run results as markdown reports.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ideaforge/internal/core"
	"ideaforge/internal/pipeline"
)

// RenderMarkdownReport writes the run result as a markdown file and returns
// the path. The filename embeds a company slug plus date so runs for different
// companies on the same day land in separate files.
func RenderMarkdownReport(result *pipeline.Result, outputDir string) (string, error) {
	dateStr := time.Now().UTC().Format("2006-01-02")
	slug := companySlug(result.Profile.CompanyName)
	filename := fmt.Sprintf("ideas_%s_%s.md", slug, dateStr)

	if outputDir == "" {
		outputDir = "reports"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)

	content := RenderMarkdown(result)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file %s: %w", filePath, err)
	}

	return filePath, nil
}

// RenderMarkdown builds the report body.
func RenderMarkdown(result *pipeline.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Content Ideas: %s\n\n", result.Profile.CompanyName))
	b.WriteString(fmt.Sprintf("Generated %s | Run `%s`\n\n", result.FinishedAt.Format("2006-01-02 15:04 UTC"), result.RunID))

	if result.Degraded {
		b.WriteString("> **Note:** quality targets were not fully met; results below are best-effort.\n\n")
	}

	writeIdeas(&b, result.Ideas)
	writeMatchedConcepts(&b, result.MatchedConcepts)
	writeGaps(&b, result.Gaps)
	writeRunDetails(&b, result)

	return b.String()
}

func writeIdeas(b *strings.Builder, results []core.ValidationResult) {
	b.WriteString("## Ideas\n\n")
	if len(results) == 0 {
		b.WriteString("No ideas survived validation.\n\n")
		return
	}

	for i, r := range results {
		idea := r.Idea
		b.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, idea.Title))

		if idea.WhyThisCompany != "" {
			b.WriteString(fmt.Sprintf("**Why this company:** %s\n\n", idea.WhyThisCompany))
		}
		if idea.WhyNow != "" {
			b.WriteString(fmt.Sprintf("**Why now:** %s\n\n", idea.WhyNow))
		}

		if idea.AIConcept != "" {
			b.WriteString(fmt.Sprintf("- **Trend concept:** %s (fit %d, %s)\n", idea.AIConcept, idea.ConceptFitScore, conceptTag(idea)))
		}
		if idea.ProductTrendIntegration != "" {
			b.WriteString(fmt.Sprintf("- **Product angle:** %s\n", idea.ProductTrendIntegration))
		}
		if len(idea.Tools) > 0 {
			b.WriteString(fmt.Sprintf("- **Tools:** %s\n", strings.Join(idea.Tools, ", ")))
		}
		b.WriteString(fmt.Sprintf("- **Composite score:** %.1f%s\n\n", r.Scores.OverallScore, validityTag(r)))

		if len(idea.WhatReaderLearns) > 0 {
			b.WriteString("What the reader learns:\n\n")
			for _, point := range idea.WhatReaderLearns {
				b.WriteString(fmt.Sprintf("- %s\n", point))
			}
			b.WriteString("\n")
		}

		if !r.IsValid && r.RejectionReason != "" {
			b.WriteString(fmt.Sprintf("*Validator note: %s*\n\n", r.RejectionReason))
		}
	}
}

func writeMatchedConcepts(b *strings.Builder, matched []core.MatchedConcept) {
	if len(matched) == 0 {
		return
	}
	b.WriteString("## Matched Trend Concepts\n\n")
	b.WriteString("| Concept | Fit | Hype | Source |\n")
	b.WriteString("|---------|-----|------|--------|\n")
	for _, m := range matched {
		source := "matched"
		if m.FromFallback {
			source = "fallback"
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n", m.Concept.Name, m.FitScore, m.Concept.HypeLevel, source))
	}
	b.WriteString("\n")
	for _, m := range matched {
		if m.FitReason != "" {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", m.Concept.Name, m.FitReason))
		}
	}
	b.WriteString("\n")
}

func writeGaps(b *strings.Builder, gaps []core.ContentGap) {
	if len(gaps) == 0 {
		return
	}
	b.WriteString("## Content Gaps\n\n")
	for _, g := range gaps {
		b.WriteString(fmt.Sprintf("- **%s** (%s, priority %d): %s\n", g.Topic, g.GapType, g.PriorityScore, g.WhyItMatters))
		if g.SuggestedAngle != "" {
			b.WriteString(fmt.Sprintf("  - Angle: %s\n", g.SuggestedAngle))
		}
	}
	b.WriteString("\n")
}

func writeRunDetails(b *strings.Builder, result *pipeline.Result) {
	b.WriteString("## Run Details\n\n")
	b.WriteString(fmt.Sprintf("- Attempts: %d (best: attempt %d)\n", len(result.Attempts), result.BestAttempt))
	b.WriteString(fmt.Sprintf("- Estimated cost: $%.4f\n", result.TotalCost()))
	for _, d := range result.Diagnostics {
		b.WriteString(fmt.Sprintf("- %s\n", d))
	}
	b.WriteString("\n")
}

func conceptTag(idea core.GeneratedIdea) string {
	if idea.SourceConceptType != "" {
		return idea.SourceConceptType
	}
	return "unknown"
}

func validityTag(r core.ValidationResult) string {
	if r.IsValid {
		return ""
	}
	return " (below threshold)"
}

func companySlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	out := b.String()
	if out == "" {
		out = "company"
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}
