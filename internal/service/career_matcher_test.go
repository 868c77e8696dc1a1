package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pathforge/internal/domain"
)

func TestCareerTitles(t *testing.T) {
	got := CareerTitles("research", scenarioProfile())
	if diff := cmp.Diff([]string{"Research Analyst", "Research Entrepreneur"}, got); diff != "" {
		t.Fatalf("unexpected titles (-want +got):\n%s", diff)
	}
	if got := CareerTitles("data_science", domain.Profile{}); got[0] != "General Data Science Professional" {
		t.Fatalf("unexpected fallback title: %v", got)
	}
}

func TestMatchCareersTopN(t *testing.T) {
	ranked := []domain.DomainScore{{Domain: "design", Score: 8.123}, {Domain: "law", Score: 6}}
	got := MatchCareers(ranked, domain.Profile{domain.TraitCreative: 8}, 5)
	if len(got) != 2 || got[0].Score != 8.12 || got[0].Careers[0] != "Creative Design Specialist" {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestRoadmapTemplatesAndFallback(t *testing.T) {
	g := NewRoadmapGenerator(defaultCatalog(t))
	steps := g.Generate("Technology")
	if len(steps) != 5 || steps[0].Title != "Learn programming fundamentals" || steps[0].EstimatedTime != "3 months" {
		t.Fatalf("unexpected technology roadmap: %+v", steps)
	}
	fallback := g.Generate("astrology")
	if len(fallback) != 5 || fallback[4].Step != 5 {
		t.Fatalf("unexpected fallback roadmap: %+v", fallback)
	}
}
