package concepts

import (
	"sort"

	"ideaforge/internal/core"
)

// Scoring constants for pool assembly. Empirically chosen; the blend favors
// freshness slightly over confidence.
const (
	curatedConfidence = 88
	dynamicConfidence = 72

	freshnessWeight  = 0.55
	confidenceWeight = 0.45
)

// freshnessForHype maps a hype level to a freshness score.
func freshnessForHype(hype core.HypeLevel) int {
	switch hype {
	case core.HypePeak:
		return 90
	case core.HypeEmerging:
		return 85
	case core.HypeMaturing:
		return 70
	case core.HypeDeclining:
		return 45
	default:
		return 60
	}
}

// Pool is the assembled trend-concept pool for one pipeline run.
type Pool struct {
	Selected []core.TrendConcept // Top-ranked concepts handed to the matcher
	Full     []core.TrendConcept // Entire merged list, kept for diagnostics
}

// BuildPool merges the curated list with dynamically extracted concepts,
// deduplicates by normalized name, ranks by blended freshness/confidence and
// selects the top poolSize concepts.
//
// On a name collision the dynamic variant wins; between same-type duplicates
// the higher freshness+confidence sum wins.
func BuildPool(curated, dynamic []core.TrendConcept, poolSize int) *Pool {
	curated = prepare(curated, core.SourceCurated, curatedConfidence)
	dynamic = prepare(dynamic, core.SourceDynamic, dynamicConfidence)

	byName := make(map[string]core.TrendConcept)
	var order []string

	for _, concept := range append(curated, dynamic...) {
		key := core.NormalizeName(concept.Name)
		if key == "" {
			continue
		}
		existing, ok := byName[key]
		if !ok {
			byName[key] = concept
			order = append(order, key)
			continue
		}
		if prefer(concept, existing) {
			byName[key] = concept
		}
	}

	merged := make([]core.TrendConcept, 0, len(order))
	for _, key := range order {
		merged = append(merged, byName[key])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return blendedScore(merged[i]) > blendedScore(merged[j])
	})

	selected := merged
	if poolSize > 0 && len(selected) > poolSize {
		selected = selected[:poolSize]
	}

	return &Pool{
		Selected: selected,
		Full:     merged,
	}
}

// prepare stamps source type, confidence and hype-derived freshness.
func prepare(concepts []core.TrendConcept, sourceType core.ConceptSourceType, confidence int) []core.TrendConcept {
	out := make([]core.TrendConcept, len(concepts))
	for i, concept := range concepts {
		concept.SourceType = sourceType
		concept.ConfidenceScore = confidence
		concept.FreshnessScore = freshnessForHype(concept.HypeLevel)
		out[i] = concept
	}
	return out
}

// prefer reports whether candidate should replace existing on collision.
func prefer(candidate, existing core.TrendConcept) bool {
	if candidate.SourceType != existing.SourceType {
		return candidate.SourceType == core.SourceDynamic
	}
	return candidate.FreshnessScore+candidate.ConfidenceScore >
		existing.FreshnessScore+existing.ConfidenceScore
}

func blendedScore(concept core.TrendConcept) float64 {
	return freshnessWeight*float64(concept.FreshnessScore) +
		confidenceWeight*float64(concept.ConfidenceScore)
}
