package concepts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
)

// LLMClient is the slice of the generative client the extractor needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, llm.Usage, error)
}

// Extractor mines named trend concepts from raw signals with one
// generative-service call.
type Extractor struct {
	llmClient  LLMClient
	maxSignals int
}

// NewExtractor creates an extractor. maxSignals caps how many signals go
// into the prompt (<=0 uses 40).
func NewExtractor(llmClient LLMClient, maxSignals int) *Extractor {
	if maxSignals <= 0 {
		maxSignals = 40
	}
	return &Extractor{
		llmClient:  llmClient,
		maxSignals: maxSignals,
	}
}

// Extract derives 8-10 named concepts from the signals. A malformed or empty
// response fails outward; the caller decides the fallback.
func (e *Extractor) Extract(ctx context.Context, signals []core.RawSignal) ([]core.TrendConcept, llm.Usage, error) {
	if len(signals) == 0 {
		return nil, llm.Usage{}, fmt.Errorf("no signals to extract concepts from")
	}
	if len(signals) > e.maxSignals {
		signals = signals[:e.maxSignals]
	}

	prompt := e.buildExtractionPrompt(signals)

	response, usage, err := e.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:  0.4,
		MaxTokens:    4000,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, usage, fmt.Errorf("concept extraction call failed: %w", err)
	}

	concepts, err := e.parseExtractionResponse(response)
	if err != nil {
		return nil, usage, fmt.Errorf("failed to parse concept extraction response: %w", err)
	}
	if len(concepts) == 0 {
		return nil, usage, fmt.Errorf("concept extraction returned no usable concepts")
	}

	return concepts, usage, nil
}

func (e *Extractor) buildExtractionPrompt(signals []core.RawSignal) string {
	var sb strings.Builder

	sb.WriteString("You are a technology trend analyst for developer-focused content teams.\n")
	sb.WriteString("From the news and paper signals below, identify 8-10 distinct emerging trend concepts\n")
	sb.WriteString("that would make strong developer tutorial subjects.\n\n")

	sb.WriteString("SIGNALS:\n")
	for i, signal := range signals {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s", i+1, signal.Source, signal.Title))
		if signal.Summary != "" {
			summary := signal.Summary
			if len(summary) > 200 {
				summary = summary[:200] + "..."
			}
			sb.WriteString(" — " + summary)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nGuidelines:\n")
	sb.WriteString("- Name concepts as technologies or practices, not headlines\n")
	sb.WriteString("- Prefer concepts backed by multiple signals\n")
	sb.WriteString("- category is one of: paradigm, technique, protocol, architecture, tool\n")
	sb.WriteString("- hype_level is one of: emerging, peak, maturing, declining\n")
	sb.WriteString("- keywords: 4-8 lowercase search terms a developer would use\n\n")

	sb.WriteString("Respond with a JSON array of objects:\n")
	sb.WriteString(`[{"name": "...", "description": "...", "why_hot": "...", "use_cases": ["..."], "keywords": ["..."], "category": "...", "hype_level": "..."}]`)
	sb.WriteString("\n")

	return sb.String()
}

func (e *Extractor) parseExtractionResponse(response string) ([]core.TrendConcept, error) {
	cleaned := llm.ExtractJSONArray(response)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var parsed []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		WhyHot      string   `json:"why_hot"`
		UseCases    []string `json:"use_cases"`
		Keywords    []string `json:"keywords"`
		Category    string   `json:"category"`
		HypeLevel   string   `json:"hype_level"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	now := time.Now().UTC()
	var concepts []core.TrendConcept
	for _, entry := range parsed {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		concepts = append(concepts, core.TrendConcept{
			ID:          "dynamic-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(core.NormalizeName(name))).String(),
			Name:        name,
			Description: entry.Description,
			WhyHot:      entry.WhyHot,
			UseCases:    entry.UseCases,
			Keywords:    entry.Keywords,
			Category:    normalizeCategory(entry.Category),
			HypeLevel:   normalizeHype(entry.HypeLevel),
			SourceType:  core.SourceDynamic,
			LastUpdated: now,
		})
	}

	return concepts, nil
}

func normalizeCategory(raw string) core.ConceptCategory {
	switch core.ConceptCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case core.CategoryParadigm, core.CategoryTechnique, core.CategoryProtocol, core.CategoryArchitecture, core.CategoryTool:
		return core.ConceptCategory(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return core.CategoryTechnique
	}
}

func normalizeHype(raw string) core.HypeLevel {
	switch core.HypeLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case core.HypeEmerging, core.HypePeak, core.HypeMaturing, core.HypeDeclining:
		return core.HypeLevel(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return core.HypeEmerging
	}
}
