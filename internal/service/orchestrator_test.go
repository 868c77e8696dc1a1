package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
	"pathforge/internal/metrics"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }

// tieVectors produce un empate exacto cuando analytical == creative.
var tieVectors = []catalog.DomainVector{
	{Name: "alpha", Weights: map[domain.Trait]float64{domain.TraitAnalytical: 1}},
	{Name: "beta", Weights: map[domain.Trait]float64{domain.TraitCreative: 1}},
}

func newTestOrchestrator(t *testing.T, vectors []catalog.DomainVector, m *metrics.Metrics) *Orchestrator {
	t.Helper()
	cat := defaultCatalog(t)
	if vectors == nil {
		vectors = cat.DomainVectors
	}
	asm := NewReportAssembler(cat, AssemblerOptions{Metrics: m, Now: fixedNow})
	return NewOrchestrator(
		NewTraitTracker(cat.Questions, FirstSelector{}),
		NewDomainRanker(vectors, 1.0),
		asm,
		DefaultOrchestratorConfig(),
		m,
		zap.NewNop(),
	)
}

// answeredState simula n respuestas por rasgo con el valor del perfil.
func answeredState(o *Orchestrator, p domain.Profile, n int) *domain.AssessmentState {
	st := o.Tracker().Initialize()
	for _, tr := range domain.AllTraits() {
		st.Scores[tr] = p.Get(tr) * float64(n)
		st.Confidence[tr] = n
	}
	return st
}

func uniformProfile(v float64) domain.Profile {
	p := domain.Profile{}
	for _, tr := range domain.AllTraits() {
		p[tr] = v
	}
	return p
}

func TestOrchestrateAsksWhileConfidenceLow(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	st := answeredState(o, scenarioProfile(), 1)

	step, err := o.Orchestrate(context.Background(), st, nil, domain.DefaultPreferences())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Action != ActionAskQuestion || step.Data == nil || step.Data.Question == "" {
		t.Fatalf("expected ask_question, got %+v", step)
	}
	if step.Report != nil || step.Note != "" {
		t.Fatalf("ask step must not carry a report or note: %+v", step)
	}
	if len(st.Asked) != 1 || st.Asked[0] != step.Data.Question {
		t.Fatalf("asked not recorded: %v", st.Asked)
	}
}

func TestOrchestrateAsksWithAtMostOneAnswerPerTrait(t *testing.T) {
	cases := map[string][]domain.Trait{
		"none answered": nil,
		"one answered":  {domain.TraitAnalytical},
		"some answered": {domain.TraitSocial, domain.TraitRisk, domain.TraitCuriosity},
		"all answered":  domain.AllTraits(),
	}
	for name, answered := range cases {
		t.Run(name, func(t *testing.T) {
			o := newTestOrchestrator(t, nil, nil)
			st := o.Tracker().Initialize()
			for _, tr := range answered {
				if err := o.Tracker().Update(st, tr, 7); err != nil {
					t.Fatalf("update %s: %v", tr, err)
				}
			}

			step, err := o.Orchestrate(context.Background(), st, nil, domain.DefaultPreferences())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if step.Action != ActionAskQuestion || step.Data == nil {
				t.Fatalf("expected ask_question, got %+v", step)
			}
		})
	}
}

func TestOrchestrateRejectsInvalidState(t *testing.T) {
	cases := map[string]func(st *domain.AssessmentState){
		"negative clarify count": func(st *domain.AssessmentState) { st.ClarifyCount = -20 },
		"clarify above limit":    func(st *domain.AssessmentState) { st.ClarifyCount = DefaultOrchestratorConfig().MaxClarify + 1 },
		"negative confidence":    func(st *domain.AssessmentState) { st.Confidence[domain.TraitFocus] = -3 },
		"unknown confidence key": func(st *domain.AssessmentState) { st.Confidence["charisma"] = 2 },
		"unknown score key":      func(st *domain.AssessmentState) { st.Scores["charisma"] = 4 },
		"duplicate asked":        func(st *domain.AssessmentState) { st.Asked = []string{"same", "same"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := newTestOrchestrator(t, tieVectors, nil)
			st := answeredState(o, uniformProfile(7), 2)
			mutate(st)
			before := st.Clone()

			_, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
			if !errors.Is(err, domain.ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState, got %v", err)
			}
			if st.ClarifyCount != before.ClarifyCount || len(st.Asked) != len(before.Asked) {
				t.Fatalf("rejected state must not change: %+v", st)
			}
		})
	}
}

func TestOrchestrateAcceptsClarifyCountAtLimit(t *testing.T) {
	o := newTestOrchestrator(t, tieVectors, nil)
	st := answeredState(o, uniformProfile(7), 2)
	st.ClarifyCount = DefaultOrchestratorConfig().MaxClarify

	step, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.Final() || step.Note != NoteClarifyDone {
		t.Fatalf("expected commit after clarification, got action=%s note=%q", step.Action, step.Note)
	}
}

func TestOrchestrateScenarioCommitsToResearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	o := newTestOrchestrator(t, nil, m)
	st := answeredState(o, scenarioProfile(), 2)

	step, err := o.Orchestrate(context.Background(), st, nil, domain.DefaultPreferences())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.Final() {
		t.Fatalf("expected final_result, got %+v", step)
	}
	if step.BestDomain.Domain != "research" || step.BestDomain.Score != 8.66 {
		t.Fatalf("unexpected best domain: %+v", step.BestDomain)
	}
	if step.Note != "" {
		t.Fatalf("early stop carries no note, got %q", step.Note)
	}
	if len(step.Top5) != 5 || step.Top5[1].Domain != "engineering" {
		t.Fatalf("unexpected top 5: %+v", step.Top5)
	}
	if got := testutil.ToFloat64(m.Commits.WithLabelValues(commitStop)); got != 1 {
		t.Fatalf("expected one early_stop commit, got %v", got)
	}
	if st.ClarifyCount != 0 || len(st.Asked) != 0 {
		t.Fatalf("commit must not mutate state: %+v", st)
	}
}

func TestOrchestrateClarifiesThenCommits(t *testing.T) {
	o := newTestOrchestrator(t, tieVectors, nil)
	st := answeredState(o, uniformProfile(7), 2)
	cfg := DefaultOrchestratorConfig()

	for i := 1; i <= cfg.MaxClarify; i++ {
		step, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		if step.Action != ActionAskQuestion {
			t.Fatalf("round %d: expected ask_question, got %s", i, step.Action)
		}
		if step.Note != "clarifying between alpha and beta" {
			t.Fatalf("round %d: unexpected note %q", i, step.Note)
		}
		if st.ClarifyCount != i {
			t.Fatalf("round %d: clarify count %d", i, st.ClarifyCount)
		}
	}

	step, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.Final() || step.Note != NoteClarifyDone {
		t.Fatalf("expected final after clarification, got action=%s note=%q", step.Action, step.Note)
	}
	if step.BestDomain.Domain != "alpha" {
		t.Fatalf("tie must resolve to catalog order, got %s", step.BestDomain.Domain)
	}
	if st.ClarifyCount != cfg.MaxClarify {
		t.Fatalf("clarify count must stay at max, got %d", st.ClarifyCount)
	}
}

func TestOrchestrateFallsBackToAsking(t *testing.T) {
	o := newTestOrchestrator(t, tieVectors, nil)
	st := answeredState(o, domain.Profile{domain.TraitAnalytical: 5, domain.TraitCreative: 2}, 2)

	step, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Action != ActionAskQuestion || step.Note != "" {
		t.Fatalf("expected plain ask_question below stop threshold, got %+v", step)
	}
}

func TestOrchestrateQuestionBudget(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	st := o.Tracker().Initialize()
	for i := 0; i < DefaultOrchestratorConfig().MaxQuestions; i++ {
		st.Asked = append(st.Asked, "q"+strconv.Itoa(i))
	}

	step, err := o.Orchestrate(context.Background(), st, scenarioProfile(), domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.Final() || step.Note != NoteBudgetExhausted {
		t.Fatalf("expected budget commit, got action=%s note=%q", step.Action, step.Note)
	}
	if step.BestDomain.Domain != "research" {
		t.Fatalf("explicit profile must drive the commit, got %s", step.BestDomain.Domain)
	}
}

func TestOrchestrateBankExhausted(t *testing.T) {
	cat := defaultCatalog(t)
	var all []string
	for _, tr := range domain.AllTraits() {
		all = append(all, cat.Questions[tr]...)
	}

	t.Run("asking", func(t *testing.T) {
		o := newTestOrchestrator(t, nil, nil)
		st := o.Tracker().Initialize()
		st.Asked = append(st.Asked, all...)

		step, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !step.Final() || step.Note != NoteBankExhausted {
			t.Fatalf("expected bank exhausted commit, got action=%s note=%q", step.Action, step.Note)
		}
	})

	t.Run("clarifying", func(t *testing.T) {
		o := newTestOrchestrator(t, tieVectors, nil)
		st := answeredState(o, uniformProfile(7), 2)
		st.Asked = append(st.Asked, all...)

		step, err := o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !step.Final() || step.Note != NoteBankExhausted {
			t.Fatalf("expected bank exhausted commit, got action=%s note=%q", step.Action, step.Note)
		}
		if st.ClarifyCount != 0 {
			t.Fatalf("clarify count must not grow without a question, got %d", st.ClarifyCount)
		}
	})
}

func TestOrchestrateRejectsBadInput(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	if _, err := o.Orchestrate(context.Background(), nil, nil, domain.LearnerPreferences{}); err != ErrNilState {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Orchestrate(ctx, o.Tracker().Initialize(), nil, domain.LearnerPreferences{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestFullSessionConvergesWithoutRepeats(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	st := o.Tracker().Initialize()
	profile := scenarioProfile()

	var step *Step
	for round := 0; round < 40; round++ {
		var err error
		step, err = o.Orchestrate(context.Background(), st, nil, domain.LearnerPreferences{})
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if step.Final() {
			break
		}
		if err := o.Tracker().Update(st, step.Data.Trait, profile.Get(step.Data.Trait)); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if !step.Final() || step.BestDomain.Domain != "research" {
		t.Fatalf("expected research commit, got %+v", step)
	}
	if len(st.Asked) != 18 {
		t.Fatalf("expected 18 questions (two per trait), got %d", len(st.Asked))
	}
	seen := map[string]bool{}
	for _, q := range st.Asked {
		if seen[q] {
			t.Fatalf("question asked twice: %q", q)
		}
		seen[q] = true
	}
}

func TestStepJSONShape(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)

	ask, err := o.Orchestrate(context.Background(), o.Tracker().Initialize(), nil, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, _ := json.Marshal(ask)
	if !strings.Contains(string(raw), `"action":"ask_question"`) || !strings.Contains(string(raw), `"question":`) {
		t.Fatalf("unexpected ask json: %s", raw)
	}
	if strings.Contains(string(raw), "best_domain") {
		t.Fatalf("ask json must not carry report fields: %s", raw)
	}

	final, err := o.Orchestrate(context.Background(), answeredState(o, scenarioProfile(), 2), nil, domain.LearnerPreferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	raw, _ = json.Marshal(final)
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"action", "best_domain", "top_5", "explanation", "skill_gap", "roadmap", "timeline", "pace_customization", "alternative_paths", "resource_recommendations", "market_intelligence"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("final json missing %q: %s", key, raw)
		}
	}
}
