package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

func scenarioProfile() domain.Profile {
	return domain.Profile{
		domain.TraitAnalytical: 9,
		domain.TraitCreative:   6,
		domain.TraitSocial:     5,
		domain.TraitLeadership: 8,
		domain.TraitPractical:  6,
		domain.TraitEmpathy:    5,
		domain.TraitRisk:       7,
		domain.TraitFocus:      9,
		domain.TraitCuriosity:  8,
	}
}

func domainNames(ranked []domain.DomainScore) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Domain
	}
	return out
}

func TestRankScenarioProfile(t *testing.T) {
	r := NewDomainRanker(defaultCatalog(t).DomainVectors, 1.0)
	ranked := r.Rank(scenarioProfile())

	want := []domain.DomainScore{
		{Domain: "research", Score: 25.1 / 2.9},
		{Domain: "engineering", Score: 21.3 / 2.8},
		{Domain: "law", Score: 22.0 / 2.9},
		{Domain: "technology", Score: 25.0 / 3.3},
	}
	if diff := cmp.Diff(want, ranked[:4], cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("unexpected top ranking (-want +got):\n%s", diff)
	}
	if r.NeedDomainVerification(ranked) {
		t.Fatalf("gap %.3f should not need verification", Gap(ranked))
	}
}

func TestRankIsDeterministicAndScaleInvariant(t *testing.T) {
	r := NewDomainRanker(defaultCatalog(t).DomainVectors, 1.0)
	p := scenarioProfile()

	first := r.Rank(p)
	if diff := cmp.Diff(first, r.Rank(p)); diff != "" {
		t.Fatalf("rank not deterministic:\n%s", diff)
	}
	if diff := cmp.Diff(domainNames(first), domainNames(r.Rank(p.Scale(0.5)))); diff != "" {
		t.Fatalf("ordering changed under scaling:\n%s", diff)
	}
}

func TestRankTiesKeepCatalogOrder(t *testing.T) {
	vectors := []catalog.DomainVector{
		{Name: "zeta", Weights: map[domain.Trait]float64{domain.TraitFocus: 1}},
		{Name: "alpha", Weights: map[domain.Trait]float64{domain.TraitCreative: 1}},
		{Name: "empty", Weights: map[domain.Trait]float64{}},
	}
	r := NewDomainRanker(vectors, 1.0)
	ranked := r.Rank(domain.Profile{domain.TraitFocus: 4, domain.TraitCreative: 4})

	want := []domain.DomainScore{{Domain: "zeta", Score: 4}, {Domain: "alpha", Score: 4}, {Domain: "empty", Score: 0}}
	if diff := cmp.Diff(want, ranked); diff != "" {
		t.Fatalf("unexpected ranking (-want +got):\n%s", diff)
	}
}

func TestRankSubsetSkipsUnknownNames(t *testing.T) {
	r := NewDomainRanker(defaultCatalog(t).DomainVectors, 1.0)
	ranked := r.RankSubset(scenarioProfile(), []string{"law", "astrology", "research"})
	if diff := cmp.Diff([]string{"research", "law"}, domainNames(ranked)); diff != "" {
		t.Fatalf("unexpected subset (-want +got):\n%s", diff)
	}
}

func TestNeedDomainVerification(t *testing.T) {
	r := NewDomainRanker(nil, 1.0)
	cases := []struct {
		name   string
		ranked []domain.DomainScore
		want   bool
	}{
		{"single domain", []domain.DomainScore{{Domain: "a", Score: 9}}, false},
		{"close scores", []domain.DomainScore{{Domain: "a", Score: 7.5}, {Domain: "b", Score: 7.0}}, true},
		{"exact threshold", []domain.DomainScore{{Domain: "a", Score: 8}, {Domain: "b", Score: 7}}, false},
		{"wide gap", []domain.DomainScore{{Domain: "a", Score: 9}, {Domain: "b", Score: 5}}, false},
	}
	for _, tc := range cases {
		if got := r.NeedDomainVerification(tc.ranked); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
