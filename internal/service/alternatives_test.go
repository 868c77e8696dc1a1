package service

import (
	"errors"
	"testing"

	"pathforge/internal/domain"
)

func TestExploreAlternativesFromResearch(t *testing.T) {
	a := NewAlternativesExplorer(defaultCatalog(t))
	rep, err := a.Explore("research", scenarioProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rep.Analysis.UserTopSkills) != 5 || rep.Analysis.UserTopSkills[0].Trait != domain.TraitAnalytical {
		t.Fatalf("unexpected top skills: %+v", rep.Analysis.UserTopSkills)
	}
	if rep.Analysis.TotalAlternativesFound != 9 || rep.Analysis.StrongAlternatives != 7 {
		t.Fatalf("unexpected counts: found=%d strong=%d", rep.Analysis.TotalAlternativesFound, rep.Analysis.StrongAlternatives)
	}
	best := rep.Analysis.Alternatives[0]
	if best.Domain != "finance" || best.SkillOverlap.OverlapPercentage != 75 {
		t.Fatalf("expected finance at 75%%, got %+v", best.SkillOverlap)
	}
	if best.Difficulty.Level != "easy" || best.RiskLevel.Level != "low" || best.TimeToTransition.Months != "3-6" {
		t.Fatalf("unexpected tiers for finance: %+v", best)
	}
	for _, alt := range rep.Analysis.Alternatives {
		if alt.Domain == "research" {
			t.Fatalf("target domain must be excluded")
		}
	}
	if len(rep.RiskCategories.SafeChoices) == 0 || rep.RiskCategories.SafeChoices[0].Domain != "finance" {
		t.Fatalf("finance should be a safe choice: %+v", rep.RiskCategories)
	}
	if rep.LateralMoves.TotalOptions != 3 {
		t.Fatalf("expected three research careers, got %+v", rep.LateralMoves)
	}
	if len(rep.PivotRecommendations) != len(rep.Analysis.Alternatives) {
		t.Fatalf("one pivot recommendation per alternative")
	}
	if rep.Summary.BestAlternative == nil || rep.Summary.BestAlternative.Domain != "finance" {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
}

func TestExploreWithoutSkills(t *testing.T) {
	_, err := NewAlternativesExplorer(defaultCatalog(t)).Explore("research", domain.Profile{})
	if !errors.Is(err, errNoSkills) {
		t.Fatalf("expected errNoSkills, got %v", err)
	}
}

func TestTransitionTiers(t *testing.T) {
	cases := []struct {
		overlap              float64
		difficulty, risk, tt string
	}{
		{80, "easy", "low", "3-6"},
		{65, "moderate", "medium", "6-12"},
		{50, "challenging", "high", "12-18"},
		{20, "difficult", "very_high", "18-24+"},
	}
	for _, tc := range cases {
		if got := AssessDifficulty(tc.overlap).Level; got != tc.difficulty {
			t.Fatalf("difficulty(%v): expected %s, got %s", tc.overlap, tc.difficulty, got)
		}
		if got := AssessRisk(tc.overlap).Level; got != tc.risk {
			t.Fatalf("risk(%v): expected %s, got %s", tc.overlap, tc.risk, got)
		}
		if got := EstimateTransitionTime(tc.overlap).Months; got != tc.tt {
			t.Fatalf("transition(%v): expected %s, got %s", tc.overlap, tc.tt, got)
		}
	}
}
