package pipeline

import (
	"testing"

	"ideaforge/internal/core"
)

func resultWith(title string, valid bool, score float64, conceptTutorial bool, reason string) core.ValidationResult {
	result := core.ValidationResult{
		Idea:    core.GeneratedIdea{Title: title, IsConceptTutorial: conceptTutorial},
		IsValid: valid,
		Scores:  core.IdeaScores{OverallScore: score},
	}
	if !valid {
		result.RejectionReason = reason
	}
	return result
}

func TestNewAttemptCounters(t *testing.T) {
	results := []core.ValidationResult{
		resultWith("A", true, 80, true, ""),
		resultWith("B", true, 70, false, ""),
		resultWith("C", false, 50, true, "weak"),
	}
	attempt := NewAttempt(1, nil, results)

	if attempt.ValidCount != 2 {
		t.Errorf("ValidCount = %d, expected 2", attempt.ValidCount)
	}
	if attempt.ConceptTutorialCount != 2 {
		t.Errorf("ConceptTutorialCount = %d, expected 2", attempt.ConceptTutorialCount)
	}
	want := (80.0 + 70.0 + 50.0) / 3
	if attempt.MeanScore != want {
		t.Errorf("MeanScore = %.2f, expected %.2f", attempt.MeanScore, want)
	}
}

func TestBetterOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b Attempt
		want bool
	}{
		{
			name: "more valid wins regardless of tutorials",
			a:    Attempt{ValidCount: 3, ConceptTutorialCount: 0, MeanScore: 50},
			b:    Attempt{ValidCount: 2, ConceptTutorialCount: 5, MeanScore: 90},
			want: true,
		},
		{
			name: "equal valid falls to tutorial count",
			a:    Attempt{ValidCount: 2, ConceptTutorialCount: 3, MeanScore: 50},
			b:    Attempt{ValidCount: 2, ConceptTutorialCount: 2, MeanScore: 90},
			want: true,
		},
		{
			name: "equal valid and tutorials falls to combined score",
			a:    Attempt{ValidCount: 2, ConceptTutorialCount: 2, MeanScore: 75},
			b:    Attempt{ValidCount: 2, ConceptTutorialCount: 2, MeanScore: 70},
			want: true,
		},
		{
			name: "equal attempts are not strictly better",
			a:    Attempt{ValidCount: 2, ConceptTutorialCount: 2, MeanScore: 70},
			b:    Attempt{ValidCount: 2, ConceptTutorialCount: 2, MeanScore: 70},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Better(tt.b); got != tt.want {
				t.Errorf("Better = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestMeetsTargets(t *testing.T) {
	attempt := Attempt{ValidCount: 3, ConceptTutorialCount: 3}
	if !attempt.MeetsTargets(3, 3) {
		t.Error("Expected targets met at exact thresholds")
	}
	if attempt.MeetsTargets(4, 3) {
		t.Error("Expected valid-count shortfall to fail targets")
	}
	if attempt.MeetsTargets(3, 4) {
		t.Error("Expected tutorial-count shortfall to fail targets")
	}
}

func TestTopRejectionReasons(t *testing.T) {
	attempt := NewAttempt(1, nil, []core.ValidationResult{
		resultWith("A", false, 40, false, "too generic"),
		resultWith("B", false, 40, false, "stale trend"),
		resultWith("C", false, 40, false, "too generic"),
		resultWith("D", true, 80, false, ""),
		resultWith("E", false, 40, false, "no product tie-in"),
	})

	reasons := attempt.TopRejectionReasons(2)
	if len(reasons) != 2 {
		t.Fatalf("Expected 2 reasons, got %d", len(reasons))
	}
	if reasons[0] != "too generic" {
		t.Errorf("Expected most frequent reason first, got %q", reasons[0])
	}
}

func TestTopRejectionReasonsSkipsValidAndEmpty(t *testing.T) {
	attempt := NewAttempt(1, nil, []core.ValidationResult{
		resultWith("A", true, 80, false, ""),
		{Idea: core.GeneratedIdea{Title: "B"}, IsValid: false},
	})
	if reasons := attempt.TopRejectionReasons(3); len(reasons) != 0 {
		t.Errorf("Expected no reasons, got %v", reasons)
	}
}

func TestSelectFinalRanksValidFirst(t *testing.T) {
	attempt := NewAttempt(1, nil, []core.ValidationResult{
		resultWith("low valid", true, 72, false, ""),
		resultWith("rejected high", false, 90, false, "weak"),
		resultWith("high valid", true, 85, false, ""),
		resultWith("mid valid", true, 78, false, ""),
	})

	selected, degraded := attempt.SelectFinal(3, 3)
	if degraded {
		t.Error("Expected non-degraded selection with 3 valid ideas")
	}
	if len(selected) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(selected))
	}
	titles := []string{selected[0].Idea.Title, selected[1].Idea.Title, selected[2].Idea.Title}
	want := []string{"high valid", "mid valid", "low valid"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("Position %d: got %q, expected %q", i, titles[i], want[i])
		}
	}
}

func TestSelectFinalDegradedWhenTooFewValid(t *testing.T) {
	attempt := NewAttempt(1, nil, []core.ValidationResult{
		resultWith("only valid", true, 80, false, ""),
		resultWith("rejected", false, 60, false, "weak"),
	})

	selected, degraded := attempt.SelectFinal(3, 5)
	if !degraded {
		t.Error("Expected degraded flag when valid count is below minimum")
	}
	if len(selected) != 2 {
		t.Fatalf("Expected best-effort 2 results, got %d", len(selected))
	}
	if selected[0].Idea.Title != "only valid" {
		t.Errorf("Expected valid idea first, got %q", selected[0].Idea.Title)
	}
}

func TestSelectFinalWrapsRawIdeasWithoutResults(t *testing.T) {
	attempt := NewAttempt(1, []core.GeneratedIdea{
		{Title: "raw one"},
		{Title: "raw two"},
	}, nil)

	selected, degraded := attempt.SelectFinal(3, 5)
	if !degraded {
		t.Error("Expected degraded flag when validation never ran")
	}
	if len(selected) != 2 {
		t.Fatalf("Expected 2 wrapped ideas, got %d", len(selected))
	}
	if selected[0].IsValid {
		t.Error("Expected wrapped ideas marked invalid")
	}
	if selected[0].RejectionReason != "Validation unavailable" {
		t.Errorf("Unexpected wrap reason: %q", selected[0].RejectionReason)
	}
}
