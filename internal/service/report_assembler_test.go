package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pathforge/internal/domain"
	"pathforge/internal/llm"
	"pathforge/internal/market"
	"pathforge/internal/metrics"
)

type failingSource struct{}

func (failingSource) Fetch(context.Context, string, string) (market.Snapshot, error) {
	return market.Snapshot{}, errors.New("job api down")
}

func researchBest(t *testing.T) ([]domain.DomainScore, domain.DomainScore) {
	t.Helper()
	ranked := NewDomainRanker(defaultCatalog(t).DomainVectors, 1.0).Rank(scenarioProfile())
	return ranked, ranked[0]
}

func TestAssembleFullReport(t *testing.T) {
	mock := &llm.MockClient{Response: "A narrative."}
	a := NewReportAssembler(defaultCatalog(t), AssemblerOptions{LLM: mock, Now: fixedNow})
	ranked, best := researchBest(t)

	rep := a.Assemble(context.Background(), best, ranked, scenarioProfile(), domain.DefaultPreferences())

	if rep.BestDomain.Fit == nil || rep.BestDomain.Fit.Domain != "research" {
		t.Fatalf("expected fit evaluation for research, got %+v", rep.BestDomain.Fit)
	}
	exp, ok := rep.Explanation.(Explanation)
	if !ok {
		t.Fatalf("explanation unavailable: %+v", rep.Explanation)
	}
	if exp.Narrative != "A narrative." || len(exp.StrongestTraits) != 3 || exp.StrongestTraits[0] != domain.TraitAnalytical {
		t.Fatalf("unexpected explanation: %+v", exp)
	}
	if _, ok := rep.SkillGap.(SkillGapReport); !ok {
		t.Fatalf("skill gap unavailable: %+v", rep.SkillGap)
	}
	steps, ok := rep.Roadmap.([]RoadmapStep)
	if !ok || len(steps) != 5 {
		t.Fatalf("unexpected roadmap: %+v", rep.Roadmap)
	}
	pace, ok := rep.PaceCustomization.(PaceReport)
	if !ok || pace.CustomizedRoadmap == nil || len(pace.CustomizedRoadmap.Roadmap) != len(steps) {
		t.Fatalf("pace must customize the roadmap: %+v", rep.PaceCustomization)
	}
	tl, ok := rep.Timeline.(TimelineReport)
	if !ok || tl.TotalEvents == 0 {
		t.Fatalf("expected upcoming research events: %+v", rep.Timeline)
	}
	if _, ok := rep.AlternativePaths.(AlternativesReport); !ok {
		t.Fatalf("alternatives unavailable: %+v", rep.AlternativePaths)
	}
	if _, ok := rep.ResourceRecommendations.(ResourceReport); !ok {
		t.Fatalf("resources unavailable: %+v", rep.ResourceRecommendations)
	}
	mkt, ok := rep.MarketIntelligence.(MarketReport)
	if !ok || mkt.MarketOverview.TotalJobOpenings == 0 {
		t.Fatalf("expected catalog market data: %+v", rep.MarketIntelligence)
	}
}

func TestAssemblePanicBecomesPlaceholder(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	a := NewReportAssembler(defaultCatalog(t), AssemblerOptions{Metrics: m, Now: fixedNow})
	a.alternatives = nil
	ranked, best := researchBest(t)

	rep := a.Assemble(context.Background(), best, ranked, scenarioProfile(), domain.LearnerPreferences{})

	u, ok := rep.AlternativePaths.(*Unavailable)
	if !ok {
		t.Fatalf("expected placeholder, got %T", rep.AlternativePaths)
	}
	if u.Status != SectionStatusMissing || u.Section != SectionAlternatives || u.Reason == "" {
		t.Fatalf("unexpected placeholder: %+v", u)
	}
	if _, ok := rep.MarketIntelligence.(MarketReport); !ok {
		t.Fatalf("assembly must continue after a failing section")
	}
	if got := testutil.ToFloat64(m.SectionFailures.WithLabelValues(SectionAlternatives)); got != 1 {
		t.Fatalf("expected one section failure, got %v", got)
	}
}

func TestAssembleFitAndCareerPanicsKeepReport(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	a := NewReportAssembler(defaultCatalog(t), AssemblerOptions{Metrics: m, Now: fixedNow})
	a.fit = nil
	a.matchCareers = func([]domain.DomainScore, domain.Profile, int) []CareerMatch {
		panic("career table corrupted")
	}
	ranked, best := researchBest(t)

	rep := a.Assemble(context.Background(), best, ranked, scenarioProfile(), domain.LearnerPreferences{})

	if rep.BestDomain.Fit == nil || rep.BestDomain.Fit.Error == "" || rep.BestDomain.Fit.Domain != "research" {
		t.Fatalf("expected fit error record, got %+v", rep.BestDomain.Fit)
	}
	if len(rep.Top5) != 5 || rep.Top5[0].Domain != "research" || len(rep.Top5[0].Careers) != 0 {
		t.Fatalf("expected plain ranking in top 5, got %+v", rep.Top5)
	}
	if _, ok := rep.Roadmap.([]RoadmapStep); !ok {
		t.Fatalf("assembly must continue after fit and career failures")
	}
	for _, section := range []string{SectionFit, SectionTop5} {
		if got := testutil.ToFloat64(m.SectionFailures.WithLabelValues(section)); got != 1 {
			t.Fatalf("expected one %s failure, got %v", section, got)
		}
	}
}

func TestAssembleSkillGapFailureFeedsEmptyGaps(t *testing.T) {
	a := NewReportAssembler(defaultCatalog(t), AssemblerOptions{Now: fixedNow})
	best := domain.DomainScore{Domain: "astrology", Score: 7}

	rep := a.Assemble(context.Background(), best, []domain.DomainScore{best}, scenarioProfile(), domain.LearnerPreferences{})

	if u, ok := rep.SkillGap.(*Unavailable); !ok || u.Section != SectionSkillGap {
		t.Fatalf("expected skill gap placeholder, got %+v", rep.SkillGap)
	}
	res, ok := rep.ResourceRecommendations.(ResourceReport)
	if !ok || res.Status != "no_gaps" {
		t.Fatalf("resources should see no gaps, got %+v", rep.ResourceRecommendations)
	}
	steps, ok := rep.Roadmap.([]RoadmapStep)
	if !ok || len(steps) != 5 || steps[0].Title != "Learn Fundamentals" {
		t.Fatalf("unknown domain should use the fallback roadmap, got %+v", rep.Roadmap)
	}
	if rep.BestDomain.Fit == nil || rep.BestDomain.Fit.Error != "astrology not found" {
		t.Fatalf("expected fit error record, got %+v", rep.BestDomain.Fit)
	}
}

func TestAssembleMarketFailureUsesNeutralData(t *testing.T) {
	a := NewReportAssembler(defaultCatalog(t), AssemblerOptions{Market: failingSource{}, Now: fixedNow})
	ranked, best := researchBest(t)

	rep := a.Assemble(context.Background(), best, ranked, scenarioProfile(), domain.LearnerPreferences{})

	mkt, ok := rep.MarketIntelligence.(MarketReport)
	if !ok {
		t.Fatalf("market must degrade to neutral data, got %+v", rep.MarketIntelligence)
	}
	if mkt.MarketOverview.TotalJobOpenings != 0 || mkt.MarketOverview.HiringTrend != market.TrendUnknown {
		t.Fatalf("expected placeholder snapshot, got %+v", mkt.MarketOverview)
	}
}

func TestExplanationSurvivesLLMFailure(t *testing.T) {
	e := NewExplainer(&llm.MockClient{Err: errors.New("timeout")}, nil)
	exp, err := e.Explain(context.Background(), domain.DomainScore{Domain: "law", Score: 7.5}, scenarioProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.Narrative != "" || exp.Summary == "" {
		t.Fatalf("expected template summary without narrative, got %+v", exp)
	}
}
