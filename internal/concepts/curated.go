package concepts

import (
	"time"

	"ideaforge/internal/core"
)

// CuratedConcepts returns the compiled-in trend-concept list. These are the
// evergreen-ish AI engineering themes the pool always carries, independent of
// what the signal feeds surface on a given day.
func CuratedConcepts() []core.TrendConcept {
	now := time.Now().UTC()

	concepts := []core.TrendConcept{
		{
			ID:          "curated-agentic-workflows",
			Name:        "Agentic Workflows",
			Description: "Multi-step LLM systems that plan, call tools and iterate toward a goal",
			WhyHot:      "Teams are moving from single prompts to autonomous task loops in production",
			UseCases:    []string{"automated research", "code migration", "support triage"},
			Keywords:    []string{"agent", "agentic", "tool calling", "planning", "autonomous", "orchestration"},
			Category:    core.CategoryParadigm,
			HypeLevel:   core.HypePeak,
		},
		{
			ID:          "curated-rag-pipelines",
			Name:        "Retrieval-Augmented Generation",
			Description: "Grounding LLM output in retrieved enterprise or domain data",
			WhyHot:      "Still the default answer to hallucination and stale model knowledge",
			UseCases:    []string{"internal knowledge assistants", "doc search", "customer support"},
			Keywords:    []string{"rag", "retrieval", "embeddings", "vector database", "chunking", "grounding"},
			Category:    core.CategoryArchitecture,
			HypeLevel:   core.HypeMaturing,
		},
		{
			ID:          "curated-mcp",
			Name:        "Model Context Protocol",
			Description: "Open protocol for connecting LLM applications to tools and data sources",
			WhyHot:      "Rapid ecosystem adoption as the standard tool-integration layer",
			UseCases:    []string{"IDE integrations", "internal tool servers", "agent plumbing"},
			Keywords:    []string{"mcp", "model context protocol", "tools", "server", "integration"},
			Category:    core.CategoryProtocol,
			HypeLevel:   core.HypePeak,
		},
		{
			ID:          "curated-llm-evals",
			Name:        "LLM Evaluation and Observability",
			Description: "Systematic quality measurement, tracing and regression testing of LLM features",
			WhyHot:      "Production incidents are forcing teams to treat prompts like tested code",
			UseCases:    []string{"regression suites", "prompt CI", "trace analysis"},
			Keywords:    []string{"evals", "evaluation", "observability", "tracing", "benchmarks", "testing"},
			Category:    core.CategoryTechnique,
			HypeLevel:   core.HypeEmerging,
		},
		{
			ID:          "curated-structured-output",
			Name:        "Structured Output Generation",
			Description: "Constraining model output to schemas instead of parsing free text",
			WhyHot:      "Schema-constrained decoding has made JSON-reliable pipelines practical",
			UseCases:    []string{"data extraction", "API backends", "form filling"},
			Keywords:    []string{"structured output", "json schema", "function calling", "constrained decoding"},
			Category:    core.CategoryTechnique,
			HypeLevel:   core.HypeMaturing,
		},
		{
			ID:          "curated-small-models",
			Name:        "Small Language Models",
			Description: "Sub-10B parameter models fine-tuned for narrow production tasks",
			WhyHot:      "Cost and latency pressure is pushing workloads off frontier models",
			UseCases:    []string{"edge inference", "classification", "cheap routing tiers"},
			Keywords:    []string{"slm", "small model", "fine-tuning", "distillation", "quantization", "local inference"},
			Category:    core.CategoryTool,
			HypeLevel:   core.HypeEmerging,
		},
		{
			ID:          "curated-semantic-caching",
			Name:        "Semantic Caching",
			Description: "Caching LLM responses keyed on meaning rather than exact strings",
			WhyHot:      "One of the few levers that cuts both cost and latency without quality loss",
			UseCases:    []string{"chatbot dedup", "API cost control", "batch pipelines"},
			Keywords:    []string{"cache", "semantic cache", "embeddings", "similarity", "latency", "cost"},
			Category:    core.CategoryTechnique,
			HypeLevel:   core.HypeEmerging,
		},
		{
			ID:          "curated-multimodal",
			Name:        "Multimodal Pipelines",
			Description: "Combining text, image, audio and video understanding in one workflow",
			WhyHot:      "Frontier models now handle mixed media well enough for real products",
			UseCases:    []string{"document understanding", "video search", "visual QA"},
			Keywords:    []string{"multimodal", "vision", "audio", "video", "ocr", "document understanding"},
			Category:    core.CategoryParadigm,
			HypeLevel:   core.HypeMaturing,
		},
	}

	for i := range concepts {
		concepts[i].SourceType = core.SourceCurated
		concepts[i].LastUpdated = now
	}
	return concepts
}
