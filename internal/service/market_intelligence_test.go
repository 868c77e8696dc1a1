package service

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
	"pathforge/internal/market"
)

func researchSnapshot(t *testing.T) market.Snapshot {
	t.Helper()
	snap, err := market.NewCatalogSource(defaultCatalog(t).Market).Fetch(context.Background(), "research", "US")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	return snap
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestDemandScoreComponentsAndClamp(t *testing.T) {
	d := DemandScore(market.Snapshot{TotalJobs: 4, HiringTrend: "growing", AverageSalary: 118000})
	if !approx(d.Score, 24+10+8.85) {
		t.Fatalf("unexpected demand score %v", d.Score)
	}

	high := DemandScore(market.Snapshot{TotalJobs: 500, HiringTrend: "booming", AverageSalary: 400000})
	if high.Score != 95 {
		t.Fatalf("expected capped components to sum 95, got %v", high.Score)
	}
	low := DemandScore(market.Snapshot{HiringTrend: "declining"})
	if low.Score != 0 {
		t.Fatalf("expected clamp to 0, got %v", low.Score)
	}
}

func TestCompetitionScoreClampsAndLevels(t *testing.T) {
	veteran := market.Snapshot{Jobs: []catalog.JobListing{
		{RequiredSkills: []string{"cobol"}, ExperienceYears: 10},
		{RequiredSkills: []string{"cobol"}, ExperienceYears: 10},
	}}
	c := CompetitionScore(veteran, nil)
	if c.Score != 0 || c.Level != "easy" {
		t.Fatalf("expected clamp to 0, got %+v", c)
	}

	var jobs []catalog.JobListing
	for i := 0; i < 25; i++ {
		jobs = append(jobs, catalog.JobListing{RequiredSkills: []string{string(rune('a' + i))}, ExperienceYears: 0})
	}
	crowded := CompetitionScore(market.Snapshot{Jobs: jobs}, nil)
	if crowded.Score != 90 || crowded.Level != "hard" {
		t.Fatalf("expected 40+30+20=90 hard, got %+v", crowded)
	}
}

func TestOpportunityScoreTiers(t *testing.T) {
	cases := []struct {
		demand, competition, want float64
		level                     string
	}{
		{80, 20, 80, "excellent"},
		{60, 40, 60, "good"},
		{40, 50, 45, "moderate"},
		{0, 100, 0, "challenging"},
	}
	for _, tc := range cases {
		got := OpportunityScore(tc.demand, tc.competition)
		if got.Score != tc.want || got.Level != tc.level {
			t.Fatalf("opportunity(%v,%v): expected %v/%s, got %+v", tc.demand, tc.competition, tc.want, tc.level, got)
		}
	}
}

func TestSuccessProbabilityWithoutGapsUsesHalfSkillMatch(t *testing.T) {
	sp := SuccessProbabilityFor(domain.DefaultPreferences(), nil, 50, 50)
	want := 15 + 10 + 20.0/3 + 7.5 + 7.5
	if !approx(sp.Probability, want) || sp.Confidence != "moderate" {
		t.Fatalf("expected %.3f moderate, got %+v", want, sp)
	}

	perfect := SuccessProbabilityFor(domain.LearnerPreferences{HoursPerWeek: 60, LearningCapacity: 10}, []SkillGapItem{{Gap: 0}}, 100, 0)
	if perfect.Probability != 100 || perfect.Confidence != "high" {
		t.Fatalf("expected 100 high, got %+v", perfect)
	}
}

func TestInDemandSkillsAndJobAlerts(t *testing.T) {
	snap := researchSnapshot(t)

	skills := InDemandSkills(snap, 3)
	if len(skills) != 3 || skills[0].Skill != "Python" || skills[1].Skill != "Statistics" || skills[2].Skill != "Writing" {
		t.Fatalf("unexpected in-demand skills: %+v", skills)
	}
	if skills[0].PercentageOfJobs != 75 {
		t.Fatalf("expected python in 75%% of jobs, got %v", skills[0].PercentageOfJobs)
	}

	alerts := JobAlerts(snap, []string{"Python", "SQL"}, 3)
	if len(alerts) != 3 || alerts[0].Title != "Data Scientist" || alerts[0].MatchScore != 66.7 {
		t.Fatalf("unexpected job alerts: %+v", alerts)
	}

	salary := SalaryRangeOf(snap)
	if salary.Minimum != 48000 || salary.Maximum != 210000 {
		t.Fatalf("unexpected salary range: %+v", salary)
	}
}

func TestMarketAnalyzerScoresStayInRange(t *testing.T) {
	a := NewMarketAnalyzer(market.NewCatalogSource(defaultCatalog(t).Market), zap.NewNop())
	for _, name := range defaultCatalog(t).DomainNames() {
		rep := a.Analyze(context.Background(), name, domain.LearnerPreferences{CurrentSkills: []string{"python"}}, nil)
		for label, v := range map[string]float64{
			"demand":      rep.Scores.Demand.Score,
			"competition": rep.Scores.Competition.Score,
			"opportunity": rep.Scores.Opportunity.Score,
			"success":     rep.Scores.SuccessProbability.Probability,
		} {
			if v < 0 || v > 100 {
				t.Fatalf("%s %s score out of range: %v", name, label, v)
			}
		}
		if rep.Location != domain.DefaultLocation || len(rep.NextSteps) != 5 {
			t.Fatalf("unexpected report for %s: %+v", name, rep)
		}
	}
}

func TestMarketAnalyzerFallsBackOnSourceError(t *testing.T) {
	rep := NewMarketAnalyzer(failingSource{}, nil).Analyze(context.Background(), "research", domain.LearnerPreferences{}, nil)
	if rep.MarketOverview.DataSource != "placeholder" || rep.MarketOverview.TotalJobOpenings != 0 {
		t.Fatalf("expected placeholder data, got %+v", rep.MarketOverview)
	}
	if rep.NextSteps[0] != "1. Learn key skills for research" || rep.NextSteps[2] != "3. Target companies with openings: Various" {
		t.Fatalf("unexpected next steps: %v", rep.NextSteps)
	}
}
