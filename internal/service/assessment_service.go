package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pathforge/internal/domain"
	"pathforge/internal/email"
	"pathforge/internal/repository"
)

var (
	ErrSessionFinished    = errors.New("session already finished")
	ErrSessionNotFinished = errors.New("session has no final result yet")
	ErrNoPendingQuestion  = errors.New("no pending question")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrRateLimited        = errors.New("too many report emails")
)

// SessionView es la foto de una sesion que ven los front ends.
type SessionView struct {
	ID         string               `json:"session_id"`
	Step       *Step                `json:"step"`
	Answers    int                  `json:"answers"`
	Profile    domain.Profile       `json:"profile"`
	Confidence map[domain.Trait]int `json:"confidence"`
}

// AssessmentService une registro de sesiones, orquestador y archivo de reportes.
type AssessmentService struct {
	orch     *Orchestrator
	registry *SessionRegistry
	reports  repository.ReportRepository
	mailer   email.Sender
	limiter  EmailRateLimiter
	logger   *zap.Logger
	now      func() time.Time
}

func NewAssessmentService(orch *Orchestrator, registry *SessionRegistry, reports repository.ReportRepository, mailer email.Sender, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = email.NewDisabledSender("")
	}
	return &AssessmentService{
		orch:     orch,
		registry: registry,
		reports:  reports,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

// Start abre una sesion y devuelve la primera pregunta.
func (s *AssessmentService) Start(ctx context.Context, prefs domain.LearnerPreferences) (SessionView, error) {
	sess := s.registry.Create(s.orch.Tracker().Initialize(), prefs.WithDefaults())
	var view SessionView
	err := s.registry.With(sess.ID, func(sess *Session) error {
		if err := s.advance(ctx, sess); err != nil {
			return err
		}
		view = viewOf(sess)
		return nil
	})
	if err != nil {
		_ = s.registry.Delete(sess.ID)
		return SessionView{}, err
	}
	s.logger.Info("assessment started", zap.String("session_id", sess.ID))
	return view, nil
}

// Answer aplica el puntaje (0 a 10) al rasgo de la pregunta pendiente y avanza una ronda.
func (s *AssessmentService) Answer(ctx context.Context, id string, score float64) (SessionView, error) {
	if score < 0 || score > domain.ProfileMax {
		return SessionView{}, fmt.Errorf("answer %v: %w", score, ErrInvalidScore)
	}
	var view SessionView
	err := s.registry.With(id, func(sess *Session) error {
		if sess.Finished() {
			return ErrSessionFinished
		}
		if sess.Pending == nil {
			return ErrNoPendingQuestion
		}
		// la ronda trabaja sobre una copia; si falla, la pregunta pendiente queda intacta para reintentar
		next := sess.State.Clone()
		if err := s.orch.Tracker().Update(next, sess.Pending.Trait, score); err != nil {
			return err
		}
		step, err := s.orch.Orchestrate(ctx, next, nil, sess.Prefs)
		if err != nil {
			return err
		}
		sess.State = next
		sess.Answers++
		s.apply(ctx, sess, step)
		view = viewOf(sess)
		return nil
	})
	return view, err
}

func (s *AssessmentService) Get(id string) (SessionView, error) {
	var view SessionView
	err := s.registry.With(id, func(sess *Session) error {
		view = viewOf(sess)
		return nil
	})
	return view, err
}

// SetEmailRateLimiter activa el limite de envios por destinatario. nil lo desactiva.
func (s *AssessmentService) SetEmailRateLimiter(l EmailRateLimiter) {
	s.limiter = l
}

func (s *AssessmentService) Delete(id string) error {
	return s.registry.Delete(id)
}

// Orchestrate es la variante sin sesion: el estado viaja con el pedido.
func (s *AssessmentService) Orchestrate(ctx context.Context, state *domain.AssessmentState, profile domain.Profile, prefs domain.LearnerPreferences) (*Step, error) {
	return s.orch.Orchestrate(ctx, state, profile, prefs)
}

func (s *AssessmentService) Rank(profile domain.Profile) []domain.DomainScore {
	return s.orch.Ranker().Rank(profile.Sanitize())
}

func (s *AssessmentService) EvaluateFit(name string, profile domain.Profile) FitResult {
	return s.orch.assembler.EvaluateFit(name, profile.Sanitize())
}

// EmailReport envia el resumen del resultado final a la direccion indicada.
func (s *AssessmentService) EmailReport(ctx context.Context, id, to string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(to))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	var step *Step
	err = s.registry.With(id, func(sess *Session) error {
		if !sess.Finished() {
			return ErrSessionNotFinished
		}
		step = sess.Last
		return nil
	})
	if err != nil {
		return err
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, addr.Address) {
		return ErrRateLimited
	}
	return s.mailer.SendReport(ctx, email.Message{
		To:      addr.Address,
		Subject: fmt.Sprintf("Your career assessment: %s", titleCase(step.BestDomain.Domain)),
		Body:    ReportSummary(step),
	})
}

// Similar busca reportes archivados con perfiles cercanos al de la sesion, excluyendo la propia.
func (s *AssessmentService) Similar(ctx context.Context, id string, k int) ([]domain.ArchivedReport, error) {
	if s.reports == nil {
		return []domain.ArchivedReport{}, nil
	}
	var profile domain.Profile
	err := s.registry.With(id, func(sess *Session) error {
		if !sess.Finished() {
			return ErrSessionNotFinished
		}
		profile = sess.State.Profile()
		return nil
	})
	if err != nil {
		return nil, err
	}
	found, err := s.reports.FindSimilar(ctx, profile, k+1)
	if err != nil {
		return nil, fmt.Errorf("find similar reports: %w", err)
	}
	out := make([]domain.ArchivedReport, 0, len(found))
	for _, r := range found {
		if r.SessionID != id && len(out) < k {
			out = append(out, r)
		}
	}
	return out, nil
}

// SweepSessions expira sesiones inactivas.
func (s *AssessmentService) SweepSessions() int {
	return s.registry.Sweep()
}

func (s *AssessmentService) advance(ctx context.Context, sess *Session) error {
	step, err := s.orch.Orchestrate(ctx, sess.State, nil, sess.Prefs)
	if err != nil {
		return err
	}
	s.apply(ctx, sess, step)
	return nil
}

func (s *AssessmentService) apply(ctx context.Context, sess *Session, step *Step) {
	sess.Last = step
	if !step.Final() {
		sess.Pending = step.Data
		return
	}
	sess.Pending = nil
	s.archive(ctx, sess.ID, sess.State.Profile(), step)
}

// archive no falla la ronda: un reporte que no se pudo guardar solo se loguea.
func (s *AssessmentService) archive(ctx context.Context, sessionID string, profile domain.Profile, step *Step) {
	if s.reports == nil {
		return
	}
	payload, err := json.Marshal(step)
	if err != nil {
		s.logger.Warn("report encode failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	rep := domain.ArchivedReport{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Domain:    step.BestDomain.Domain,
		Score:     step.BestDomain.Score,
		Profile:   profile,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	if err := s.reports.Save(ctx, rep); err != nil {
		s.logger.Warn("report archive failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func viewOf(sess *Session) SessionView {
	conf := make(map[domain.Trait]int, len(sess.State.Confidence))
	for k, v := range sess.State.Confidence {
		conf[k] = v
	}
	return SessionView{
		ID:         sess.ID,
		Step:       sess.Last,
		Answers:    sess.Answers,
		Profile:    sess.State.Profile(),
		Confidence: conf,
	}
}

// ReportSummary es el texto plano que acompana al correo y a la salida de CLI.
func ReportSummary(step *Step) string {
	if !step.Final() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Best domain: %s (%.2f / 10)\n", titleCase(step.BestDomain.Domain), step.BestDomain.Score)
	if step.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", step.Note)
	}
	if fit := step.BestDomain.Fit; fit != nil && fit.Error == "" {
		fmt.Fprintf(&b, "Fit: %s (%.2f)\n", fit.Verdict, fit.Score)
	}
	b.WriteString("\nTop domains:\n")
	for i, m := range step.Top5 {
		fmt.Fprintf(&b, "  %d. %s %.2f - %s\n", i+1, titleCase(m.Domain), m.Score, strings.Join(m.Careers, ", "))
	}
	if exp, ok := step.Explanation.(Explanation); ok {
		fmt.Fprintf(&b, "\n%s\n", exp.Summary)
	}
	if steps, ok := step.Roadmap.([]RoadmapStep); ok {
		b.WriteString("\nRoadmap:\n")
		for _, st := range steps {
			fmt.Fprintf(&b, "  %d. %s (%s)\n", st.Step, st.Title, st.EstimatedTime)
		}
	}
	return b.String()
}
