package pipeline

import (
	"sort"

	"ideaforge/internal/core"
)

// Attempt captures one generate/validate round.
type Attempt struct {
	Number               int
	Ideas                []core.GeneratedIdea
	Results              []core.ValidationResult // nil when validation itself failed
	ValidCount           int
	ConceptTutorialCount int
	MeanScore            float64
}

// NewAttempt computes the attempt's aggregate counters from its results.
func NewAttempt(number int, ideas []core.GeneratedIdea, results []core.ValidationResult) Attempt {
	attempt := Attempt{
		Number:  number,
		Ideas:   ideas,
		Results: results,
	}

	total := 0.0
	for _, result := range results {
		if result.IsValid {
			attempt.ValidCount++
		}
		if result.Idea.IsConceptTutorial {
			attempt.ConceptTutorialCount++
		}
		total += result.Scores.OverallScore
	}
	if len(results) > 0 {
		attempt.MeanScore = total / float64(len(results))
	}

	return attempt
}

// CombinedScore is the tie-break metric across attempts.
func (a Attempt) CombinedScore() float64 {
	return float64(a.ValidCount)*100 + float64(a.ConceptTutorialCount)*10 + a.MeanScore
}

// Better reports whether a strictly beats b: higher valid count first, then
// higher concept-tutorial count, then higher combined score.
func (a Attempt) Better(b Attempt) bool {
	if a.ValidCount != b.ValidCount {
		return a.ValidCount > b.ValidCount
	}
	if a.ConceptTutorialCount != b.ConceptTutorialCount {
		return a.ConceptTutorialCount > b.ConceptTutorialCount
	}
	return a.CombinedScore() > b.CombinedScore()
}

// MeetsTargets reports whether the attempt satisfies the early-exit predicate.
func (a Attempt) MeetsTargets(minValid, minConceptTutorials int) bool {
	return a.ValidCount >= minValid && a.ConceptTutorialCount >= minConceptTutorials
}

// TopRejectionReasons collects the most frequent distinct rejection reasons
// from an attempt, for feeding back into the next generation prompt.
func (a Attempt) TopRejectionReasons(limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, result := range a.Results {
		if result.IsValid || result.RejectionReason == "" {
			continue
		}
		if counts[result.RejectionReason] == 0 {
			order = append(order, result.RejectionReason)
		}
		counts[result.RejectionReason]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

// SelectFinal picks the ideas the run ultimately returns from the best
// attempt, always returning something:
//   - >= minValid valid ideas: the top limit results by composite,
//     valid entries first;
//   - some results but too few valid: best-effort top limit regardless of
//     validity (degraded);
//   - no validation results at all: the raw generated ideas wrapped in
//     unscored results (degraded).
func (a Attempt) SelectFinal(minValid, limit int) (selected []core.ValidationResult, degraded bool) {
	if len(a.Results) == 0 {
		for _, idea := range a.Ideas {
			selected = append(selected, core.ValidationResult{
				Idea:            idea,
				IsValid:         false,
				RejectionReason: "Validation unavailable",
			})
		}
		if limit > 0 && len(selected) > limit {
			selected = selected[:limit]
		}
		return selected, true
	}

	ranked := make([]core.ValidationResult, len(a.Results))
	copy(ranked, a.Results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].IsValid != ranked[j].IsValid {
			return ranked[i].IsValid
		}
		return ranked[i].Scores.OverallScore > ranked[j].Scores.OverallScore
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, a.ValidCount < minValid
}
