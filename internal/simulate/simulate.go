// Package simulate corre sesiones de evaluacion sinteticas en paralelo.
// Cada sesion responde con un perfil fijo generado a partir de la semilla.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pathforge/internal/domain"
	"pathforge/internal/service"
)

// maxRounds corta sesiones que no convergen; el orquestador cierra mucho antes.
const maxRounds = 200

var ErrNoConvergence = errors.New("session did not converge")

// Result es el desenlace de una sesion simulada.
type Result struct {
	SessionID string         `json:"session_id"`
	Profile   domain.Profile `json:"profile"`
	Domain    string         `json:"domain"`
	Score     float64        `json:"score"`
	Questions int            `json:"questions"`
	Note      string         `json:"note,omitempty"`
}

// Summary agrega los resultados de una corrida.
type Summary struct {
	Sessions     int            `json:"sessions"`
	ByDomain     map[string]int `json:"by_domain"`
	ByNote       map[string]int `json:"by_note"`
	AvgQuestions float64        `json:"avg_questions"`
	MaxQuestions int            `json:"max_questions"`
	Results      []Result       `json:"results"`
}

type Runner struct {
	svc         *service.AssessmentService
	concurrency int
	logger      *zap.Logger
}

func NewRunner(svc *service.AssessmentService, concurrency int, logger *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{svc: svc, concurrency: concurrency, logger: logger}
}

// RandomProfile genera rasgos enteros en [0,10].
func RandomProfile(rng *rand.Rand) domain.Profile {
	p := make(domain.Profile, len(domain.AllTraits()))
	for _, t := range domain.AllTraits() {
		p[t] = float64(rng.IntN(int(domain.ProfileMax) + 1))
	}
	return p
}

// Run corre n sesiones. El primer error cancela las restantes.
func (r *Runner) Run(ctx context.Context, n int, seed uint64, prefs domain.LearnerPreferences) (Summary, error) {
	profiles := make([]domain.Profile, n)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	for i := range profiles {
		profiles[i] = RandomProfile(rng)
	}

	results := make([]Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range profiles {
		g.Go(func() error {
			res, err := r.RunOne(ctx, profiles[i], prefs)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summarize(results), nil
}

// RunOne responde cada pregunta con el valor del perfil para su rasgo hasta el resultado final.
func (r *Runner) RunOne(ctx context.Context, profile domain.Profile, prefs domain.LearnerPreferences) (Result, error) {
	view, err := r.svc.Start(ctx, prefs)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := r.svc.Delete(view.ID); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
			r.logger.Warn("simulated session cleanup failed", zap.String("session_id", view.ID), zap.Error(err))
		}
	}()

	for round := 0; !view.Step.Final(); round++ {
		if round >= maxRounds {
			return Result{}, ErrNoConvergence
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		view, err = r.svc.Answer(ctx, view.ID, profile.Get(view.Step.Data.Trait))
		if err != nil {
			return Result{}, err
		}
	}
	r.logger.Debug("simulated session finished",
		zap.String("session_id", view.ID),
		zap.String("domain", view.Step.BestDomain.Domain),
		zap.Int("questions", view.Answers),
	)
	return Result{
		SessionID: view.ID,
		Profile:   profile,
		Domain:    view.Step.BestDomain.Domain,
		Score:     view.Step.BestDomain.Score,
		Questions: view.Answers,
		Note:      view.Step.Note,
	}, nil
}

func summarize(results []Result) Summary {
	s := Summary{
		Sessions: len(results),
		ByDomain: make(map[string]int),
		ByNote:   make(map[string]int),
		Results:  results,
	}
	total := 0
	for _, r := range results {
		s.ByDomain[r.Domain]++
		note := r.Note
		if note == "" {
			note = "early_stop"
		}
		s.ByNote[note]++
		total += r.Questions
		if r.Questions > s.MaxQuestions {
			s.MaxQuestions = r.Questions
		}
	}
	if len(results) > 0 {
		s.AvgQuestions = float64(total) / float64(len(results))
	}
	return s
}

// TopDomains devuelve los dominios por cantidad de sesiones, desempate alfabetico.
func (s Summary) TopDomains() []string {
	out := make([]string, 0, len(s.ByDomain))
	for d := range s.ByDomain {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if s.ByDomain[out[i]] != s.ByDomain[out[j]] {
			return s.ByDomain[out[i]] > s.ByDomain[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
