package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

const (
	fitStrengthMin = 7.0
	fitWeaknessMax = 4.0

	VerdictExcellent = "Excellent Fit"
	VerdictModerate  = "Moderate Fit"
	VerdictLow       = "Low Fit"
)

// FitResult es la evaluacion de un dominio sobre el catalogo de ajuste.
// Si el dominio no existe solo viene Error.
type FitResult struct {
	Domain     string         `json:"domain,omitempty"`
	Score      float64        `json:"score"`
	Verdict    string         `json:"verdict,omitempty"`
	Confidence float64        `json:"confidence"`
	Strengths  []domain.Trait `json:"strengths"`
	Weaknesses []domain.Trait `json:"weaknesses"`
	Error      string         `json:"error,omitempty"`
}

// FitEvaluator usa un catalogo de pesos propio, separado de los vectores de ranking.
type FitEvaluator struct {
	weights []catalog.DomainVector
}

func NewFitEvaluator(weights []catalog.DomainVector) *FitEvaluator {
	return &FitEvaluator{weights: append([]catalog.DomainVector(nil), weights...)}
}

// EvaluateFit nunca falla: un dominio desconocido devuelve {error: "<domain> not found"}.
func (e *FitEvaluator) EvaluateFit(name string, profile domain.Profile) FitResult {
	name = strings.ToLower(strings.TrimSpace(name))
	var (
		v     catalog.DomainVector
		found bool
	)
	for _, w := range e.weights {
		if w.Name == name {
			v, found = w, true
			break
		}
	}
	if !found || len(v.Weights) == 0 {
		return FitResult{Error: fmt.Sprintf("%s not found", name)}
	}

	res := FitResult{
		Domain:     name,
		Strengths:  []domain.Trait{},
		Weaknesses: []domain.Trait{},
	}
	var score, total float64
	for _, t := range v.OrderedTraits() {
		w := v.Weights[t]
		val := profile.Get(t)
		score += val * w
		total += w
		switch {
		case val >= fitStrengthMin:
			res.Strengths = append(res.Strengths, t)
		case val <= fitWeaknessMax:
			res.Weaknesses = append(res.Weaknesses, t)
		}
	}
	if total == 0 {
		total = 1
	}
	res.Score = round2(score / total)
	switch {
	case res.Score >= 7:
		res.Verdict = VerdictExcellent
	case res.Score >= 4:
		res.Verdict = VerdictModerate
	default:
		res.Verdict = VerdictLow
	}
	res.Confidence = round2(float64(len(res.Strengths)) / float64(len(v.Weights)) * 100)
	return res
}

// EvaluateAll evalua todos los dominios del catalogo de ajuste, de mayor a menor puntaje.
func (e *FitEvaluator) EvaluateAll(profile domain.Profile) []FitResult {
	out := make([]FitResult, 0, len(e.weights))
	for _, w := range e.weights {
		out = append(out, e.EvaluateFit(w.Name, profile))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
