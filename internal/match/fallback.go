package match

import (
	"sort"
	"strings"

	"ideaforge/internal/core"
)

// Fallback scoring constants. The blend rewards keyword overlap heavily so a
// concept that shares vocabulary with the company's stack outranks a merely
// fresh one; the synthetic fit score stays below the strict band so fallback
// entries remain distinguishable.
const (
	overlapWeight     = 12.0
	freshnessBlend    = 0.5
	confidenceBlend   = 0.2
	syntheticFitBase  = 62
	syntheticFitSlope = 6
)

// fallbackCandidate pairs a concept with its blended ranking score.
type fallbackCandidate struct {
	concept core.TrendConcept
	overlap int
	blended float64
}

// InjectFallbacks ranks the concepts not already matched by keyword overlap
// with a profile-derived term set and returns enough of them, flagged as
// fallback entries, to bring the matched set up to minMatches. Candidates
// are exhausted before the minimum when the pool is small.
func InjectFallbacks(pool []core.TrendConcept, matched []core.MatchedConcept, profile *core.CompanyProfile, minMatches, fitCap int) []core.MatchedConcept {
	deficit := minMatches - len(matched)
	if deficit <= 0 {
		return nil
	}

	used := make(map[string]bool, len(matched))
	for _, m := range matched {
		used[core.NormalizeName(m.Concept.Name)] = true
	}

	terms := ProfileTerms(profile)

	var candidates []fallbackCandidate
	for _, concept := range pool {
		if used[core.NormalizeName(concept.Name)] {
			continue
		}
		overlap := KeywordOverlap(concept.Keywords, terms)
		blended := float64(overlap)*overlapWeight +
			float64(concept.FreshnessScore)*freshnessBlend +
			float64(concept.ConfidenceScore)*confidenceBlend
		candidates = append(candidates, fallbackCandidate{
			concept: concept,
			overlap: overlap,
			blended: blended,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].blended > candidates[j].blended
	})

	if deficit > len(candidates) {
		deficit = len(candidates)
	}

	injected := make([]core.MatchedConcept, 0, deficit)
	for _, candidate := range candidates[:deficit] {
		fitScore := syntheticFitBase + candidate.overlap*syntheticFitSlope
		if fitScore > fitCap {
			fitScore = fitCap
		}
		injected = append(injected, core.MatchedConcept{
			Concept:            candidate.concept,
			FitScore:           fitScore,
			FitReason:          "Keyword overlap with company profile",
			ProductIntegration: "Tie the tutorial to " + profile.CompanyName + "'s stack where the shared tooling appears",
			TutorialAngle:      "Practical walkthrough of " + candidate.concept.Name + " for " + profile.TargetAudience.Primary,
			FromFallback:       true,
		})
	}

	return injected
}

// ProfileTerms derives the overlap term set from a profile: tech stack,
// differentiator claim words and company type.
func ProfileTerms(profile *core.CompanyProfile) map[string]bool {
	claims := make([]string, 0, len(profile.UniqueDifferentiators))
	for _, d := range profile.UniqueDifferentiators {
		claims = append(claims, d.Claim)
	}
	return core.TermSet(profile.TechStack, claims, []string{profile.CompanyType})
}

// KeywordOverlap counts how many of the concept's keywords contain or equal
// a profile term.
func KeywordOverlap(keywords []string, terms map[string]bool) int {
	overlap := 0
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if terms[keyword] {
			overlap++
			continue
		}
		for _, word := range strings.Fields(keyword) {
			if terms[word] {
				overlap++
				break
			}
		}
	}
	return overlap
}
