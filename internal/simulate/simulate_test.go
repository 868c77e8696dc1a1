package simulate

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
	"pathforge/internal/repository"
	"pathforge/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T, repo repository.ReportRepository) *service.AssessmentService {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	orch := service.NewOrchestrator(
		service.NewTraitTracker(cat.Questions, service.NewRandomSelector(7)),
		service.NewDomainRanker(cat.DomainVectors, 1.0),
		service.NewReportAssembler(cat, service.AssemblerOptions{}),
		service.DefaultOrchestratorConfig(),
		nil,
		zap.NewNop(),
	)
	return service.NewAssessmentService(orch, service.NewSessionRegistry(time.Minute, nil), repo, nil, zap.NewNop())
}

func TestRunAllSessionsTerminate(t *testing.T) {
	repo := repository.NewMemoryReportRepository()
	r := NewRunner(newTestService(t, repo), 8, nil)

	sum, err := r.Run(context.Background(), 24, 42, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Sessions != 24 || len(sum.Results) != 24 {
		t.Fatalf("expected 24 sessions, got %+v", sum)
	}
	total := 0
	for _, n := range sum.ByDomain {
		total += n
	}
	if total != 24 {
		t.Fatalf("domain counts must add up to sessions, got %d", total)
	}
	cfg := service.DefaultOrchestratorConfig()
	for _, res := range sum.Results {
		if res.Domain == "" {
			t.Fatalf("session %s finished without domain", res.SessionID)
		}
		if res.Questions < 18 || res.Questions > cfg.MaxQuestions {
			t.Fatalf("questions out of bounds: %d", res.Questions)
		}
		if _, err := repo.GetBySession(context.Background(), res.SessionID); err != nil {
			t.Fatalf("report for %s not archived: %v", res.SessionID, err)
		}
	}
	if sum.MaxQuestions > cfg.MaxQuestions || sum.AvgQuestions < 18 {
		t.Fatalf("unexpected question stats: avg=%v max=%d", sum.AvgQuestions, sum.MaxQuestions)
	}
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	a := rand.New(rand.NewPCG(5, 6))
	b := rand.New(rand.NewPCG(5, 6))
	pa, pb := RandomProfile(a), RandomProfile(b)
	for _, tr := range domain.AllTraits() {
		if pa[tr] != pb[tr] || pa[tr] < 0 || pa[tr] > domain.ProfileMax {
			t.Fatalf("profiles diverge or out of range at %s: %v vs %v", tr, pa[tr], pb[tr])
		}
	}
}

func TestRunOneScenarioProfile(t *testing.T) {
	r := NewRunner(newTestService(t, nil), 1, nil)
	profile := domain.Profile{
		domain.TraitAnalytical: 9, domain.TraitCreative: 6, domain.TraitSocial: 5,
		domain.TraitLeadership: 8, domain.TraitPractical: 6, domain.TraitEmpathy: 5,
		domain.TraitRisk: 7, domain.TraitFocus: 9, domain.TraitCuriosity: 8,
	}
	res, err := r.RunOne(context.Background(), profile, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("run one: %v", err)
	}
	if res.Domain != "research" || res.Questions != 18 || res.Note != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	r := NewRunner(newTestService(t, nil), 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, 10, 1, domain.LearnerPreferences{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSummaryTopDomains(t *testing.T) {
	s := summarize([]Result{
		{Domain: "law", Questions: 18},
		{Domain: "research", Questions: 20, Note: service.NoteClarifyDone},
		{Domain: "research", Questions: 30, Note: service.NoteBudgetExhausted},
		{Domain: "arts", Questions: 22},
	})
	got := s.TopDomains()
	want := []string{"research", "arts", "law"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if s.ByNote["early_stop"] != 2 || s.MaxQuestions != 30 || s.AvgQuestions != 22.5 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
