package service

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"pathforge/internal/domain"
)

var (
	ErrUnknownTrait = errors.New("unknown trait")
	ErrInvalidScore = errors.New("invalid score")
	ErrNilState     = errors.New("nil assessment state")
)

// QuestionStatusComplete marca que no quedan preguntas para el rasgo elegido.
const QuestionStatusComplete = "complete"

// QuestionResult es lo que devuelve NextQuestion: una pregunta o la senal de banco agotado.
type QuestionResult struct {
	Status         string       `json:"status,omitempty"`
	Trait          domain.Trait `json:"trait"`
	Question       string       `json:"question,omitempty"`
	RemainingCount int          `json:"remaining_count"`
}

// Complete indica que el banco del rasgo se agoto.
func (q QuestionResult) Complete() bool {
	return q.Status == QuestionStatusComplete
}

// QuestionSelector elige una pregunta entre las que quedan. remaining nunca esta vacio.
type QuestionSelector interface {
	Pick(trait domain.Trait, remaining []string) string
}

// RandomSelector elige al azar con una semilla fija. Es seguro para uso concurrente.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomSelector(seed uint64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomSelector) Pick(_ domain.Trait, remaining []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remaining[s.rng.IntN(len(remaining))]
}

// FirstSelector devuelve siempre la primera pregunta restante en orden de banco.
type FirstSelector struct{}

func (FirstSelector) Pick(_ domain.Trait, remaining []string) string {
	return remaining[0]
}

// TraitTracker mantiene la politica de seleccion de preguntas sobre un banco inmutable.
// No guarda estado de sesion: todo vive en el AssessmentState que recibe.
type TraitTracker struct {
	bank     map[domain.Trait][]string
	selector QuestionSelector
}

func NewTraitTracker(bank map[domain.Trait][]string, selector QuestionSelector) *TraitTracker {
	if selector == nil {
		selector = FirstSelector{}
	}
	copied := make(map[domain.Trait][]string, len(bank))
	for t, qs := range bank {
		copied[t] = append([]string(nil), qs...)
	}
	return &TraitTracker{bank: copied, selector: selector}
}

// Initialize crea un estado con todos los rasgos en cero.
func (tt *TraitTracker) Initialize() *domain.AssessmentState {
	traits := domain.AllTraits()
	st := &domain.AssessmentState{
		Scores:     make(map[domain.Trait]float64, len(traits)),
		Confidence: make(map[domain.Trait]int, len(traits)),
		Asked:      []string{},
	}
	for _, t := range traits {
		st.Scores[t] = 0
		st.Confidence[t] = 0
	}
	return st
}

// ChooseTrait devuelve el rasgo con menor confianza. Empates: orden canonico
// (analytical, creative, social, leadership, practical, empathy, risk, focus, curiosity).
func (tt *TraitTracker) ChooseTrait(state *domain.AssessmentState) domain.Trait {
	traits := domain.AllTraits()
	best := traits[0]
	for _, t := range traits[1:] {
		if state.Confidence[t] < state.Confidence[best] {
			best = t
		}
	}
	return best
}

// NextQuestion pregunta sobre el rasgo de menor confianza. Si su banco esta agotado
// devuelve Status=complete sin tocar el estado.
func (tt *TraitTracker) NextQuestion(state *domain.AssessmentState) QuestionResult {
	return tt.askFrom(state, tt.ChooseTrait(state))
}

// NextOpenQuestion recorre los rasgos por (confianza, orden canonico) y pregunta del primero
// que todavia tenga preguntas. Solo devuelve complete cuando todos los bancos se agotaron.
func (tt *TraitTracker) NextOpenQuestion(state *domain.AssessmentState) QuestionResult {
	var last QuestionResult
	for _, t := range tt.traitsByConfidence(state) {
		last = tt.askFrom(state, t)
		if !last.Complete() {
			return last
		}
	}
	return last
}

// Update suma la respuesta al rasgo y aumenta su confianza en uno.
func (tt *TraitTracker) Update(state *domain.AssessmentState, trait domain.Trait, score float64) error {
	if state == nil {
		return ErrNilState
	}
	if domain.TraitIndex(trait) < 0 {
		return fmt.Errorf("update %q: %w", trait, ErrUnknownTrait)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("update %q: %w", trait, ErrInvalidScore)
	}
	if state.Scores == nil {
		state.Scores = make(map[domain.Trait]float64)
	}
	if state.Confidence == nil {
		state.Confidence = make(map[domain.Trait]int)
	}
	state.Scores[trait] += score
	state.Confidence[trait]++
	return nil
}

// Remaining devuelve las preguntas del rasgo que aun no se hicieron, en orden de banco.
func (tt *TraitTracker) Remaining(state *domain.AssessmentState, trait domain.Trait) []string {
	var out []string
	for _, q := range tt.bank[trait] {
		if !state.HasAsked(q) {
			out = append(out, q)
		}
	}
	return out
}

func (tt *TraitTracker) askFrom(state *domain.AssessmentState, trait domain.Trait) QuestionResult {
	remaining := tt.Remaining(state, trait)
	if len(remaining) == 0 {
		return QuestionResult{Status: QuestionStatusComplete, Trait: trait}
	}
	q := tt.selector.Pick(trait, remaining)
	state.Asked = append(state.Asked, q)
	return QuestionResult{
		Trait:          trait,
		Question:       q,
		RemainingCount: len(remaining) - 1,
	}
}

func (tt *TraitTracker) traitsByConfidence(state *domain.AssessmentState) []domain.Trait {
	out := domain.AllTraits()
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && state.Confidence[out[j]] < state.Confidence[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
