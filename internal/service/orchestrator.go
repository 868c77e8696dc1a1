package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pathforge/internal/domain"
	"pathforge/internal/metrics"
)

const (
	ActionAskQuestion = "ask_question"
	ActionFinalResult = "final_result"

	NoteBudgetExhausted = "decided after question budget exhausted"
	NoteBankExhausted   = "decided after question bank exhausted"
	NoteClarifyDone     = "decided after clarification phase"

	commitBudget  = "question_budget"
	commitBank    = "bank_exhausted"
	commitClarify = "clarification"
	commitStop    = "early_stop"
)

var ErrNoDomains = errors.New("no domains to rank")

// OrchestratorConfig son los umbrales de convergencia.
type OrchestratorConfig struct {
	ConfidenceThreshold int     `json:"confidence_threshold"`
	StopThreshold       float64 `json:"stop_threshold"`
	DomainGapThreshold  float64 `json:"domain_gap_threshold"`
	MaxClarify          int     `json:"max_clarify"`
	MaxQuestions        int     `json:"max_questions"`
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		ConfidenceThreshold: 2,
		StopThreshold:       6.5,
		DomainGapThreshold:  1.0,
		MaxClarify:          5,
		MaxQuestions:        30,
	}
}

// Step es la salida de una ronda: ask_question con Data, o final_result con el reporte embebido.
type Step struct {
	Action string          `json:"action"`
	Data   *QuestionResult `json:"data,omitempty"`
	Note   string          `json:"note,omitempty"`
	*Report
}

// Final indica que la evaluacion termino.
func (s *Step) Final() bool {
	return s != nil && s.Action == ActionFinalResult
}

// Orchestrator decide en cada ronda si preguntar, aclarar o cerrar.
// Solo modifica ClarifyCount y, via el tracker, Asked. Los puntajes los aplica quien llama con Update.
type Orchestrator struct {
	tracker   *TraitTracker
	ranker    *DomainRanker
	assembler *ReportAssembler
	cfg       OrchestratorConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewOrchestrator(tracker *TraitTracker, ranker *DomainRanker, assembler *ReportAssembler, cfg OrchestratorConfig, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		tracker:   tracker,
		ranker:    ranker,
		assembler: assembler,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

func (o *Orchestrator) Tracker() *TraitTracker { return o.tracker }

func (o *Orchestrator) Ranker() *DomainRanker { return o.ranker }

func (o *Orchestrator) Config() OrchestratorConfig { return o.cfg }

// Orchestrate ejecuta una ronda. Con profile nil usa el promedio de respuestas del estado.
func (o *Orchestrator) Orchestrate(ctx context.Context, state *domain.AssessmentState, profile domain.Profile, prefs domain.LearnerPreferences) (*Step, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(o.cfg.MaxClarify); err != nil {
		return nil, err
	}
	if profile == nil {
		profile = state.Profile()
	} else {
		profile = profile.Sanitize()
	}

	if o.cfg.MaxQuestions > 0 && len(state.Asked) >= o.cfg.MaxQuestions {
		return o.commit(ctx, profile, prefs, commitBudget, NoteBudgetExhausted)
	}

	if state.MinConfidence() < o.cfg.ConfidenceThreshold {
		return o.ask(ctx, state, profile, prefs, "")
	}

	ranked := o.ranker.Rank(profile)
	if len(ranked) == 0 {
		return nil, ErrNoDomains
	}

	if o.ranker.NeedDomainVerification(ranked) {
		if state.ClarifyCount < o.cfg.MaxClarify {
			q := o.tracker.NextOpenQuestion(state)
			if q.Complete() {
				return o.commitRanked(ctx, ranked, profile, prefs, commitBank, NoteBankExhausted)
			}
			state.ClarifyCount++
			o.metrics.IncClarify()
			note := fmt.Sprintf("clarifying between %s and %s", ranked[0].Domain, ranked[1].Domain)
			o.logger.Debug("clarifying", zap.String("top1", ranked[0].Domain), zap.String("top2", ranked[1].Domain), zap.Int("clarify_count", state.ClarifyCount))
			return o.asked(q, note), nil
		}
		return o.commitRanked(ctx, ranked, profile, prefs, commitClarify, NoteClarifyDone)
	}

	if ranked[0].Score >= o.cfg.StopThreshold {
		return o.commitRanked(ctx, ranked, profile, prefs, commitStop, "")
	}
	return o.ask(ctx, state, profile, prefs, "")
}

func (o *Orchestrator) ask(ctx context.Context, state *domain.AssessmentState, profile domain.Profile, prefs domain.LearnerPreferences, note string) (*Step, error) {
	q := o.tracker.NextOpenQuestion(state)
	if q.Complete() {
		return o.commit(ctx, profile, prefs, commitBank, NoteBankExhausted)
	}
	return o.asked(q, note), nil
}

func (o *Orchestrator) asked(q QuestionResult, note string) *Step {
	o.metrics.IncRound(ActionAskQuestion)
	return &Step{Action: ActionAskQuestion, Data: &q, Note: note}
}

func (o *Orchestrator) commit(ctx context.Context, profile domain.Profile, prefs domain.LearnerPreferences, reason, note string) (*Step, error) {
	ranked := o.ranker.Rank(profile)
	if len(ranked) == 0 {
		return nil, ErrNoDomains
	}
	return o.commitRanked(ctx, ranked, profile, prefs, reason, note)
}

func (o *Orchestrator) commitRanked(ctx context.Context, ranked []domain.DomainScore, profile domain.Profile, prefs domain.LearnerPreferences, reason, note string) (*Step, error) {
	best := ranked[0]
	o.metrics.IncRound(ActionFinalResult)
	o.metrics.IncCommit(reason)
	o.logger.Info("assessment committed",
		zap.String("domain", best.Domain),
		zap.Float64("score", best.Score),
		zap.String("reason", reason),
	)
	return &Step{
		Action: ActionFinalResult,
		Note:   note,
		Report: o.assembler.Assemble(ctx, best, ranked, profile, prefs),
	}, nil
}
