package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidState marca un estado con contadores fuera de rango o rasgos desconocidos.
var ErrInvalidState = errors.New("invalid assessment state")

// AssessmentState acumula puntajes y confianza por rasgo durante una sesion.
// No es seguro para mutacion concurrente: quien sirva varias sesiones debe serializar el acceso.
type AssessmentState struct {
	Scores       map[Trait]float64 `json:"scores"`
	Confidence   map[Trait]int     `json:"confidence"`
	Asked        []string          `json:"asked"`
	ClarifyCount int               `json:"clarify_count"`
}

// HasAsked indica si la pregunta ya fue emitida en esta sesion.
func (s *AssessmentState) HasAsked(question string) bool {
	for _, q := range s.Asked {
		if q == question {
			return true
		}
	}
	return false
}

// MinConfidence devuelve la menor confianza entre los rasgos canonicos.
func (s *AssessmentState) MinConfidence() int {
	min := -1
	for _, t := range canonicalTraits {
		c := s.Confidence[t]
		if min == -1 || c < min {
			min = c
		}
	}
	return min
}

// Profile devuelve el promedio de respuestas por rasgo (0 si no hubo respuestas), recortado a [0,10].
func (s *AssessmentState) Profile() Profile {
	out := make(Profile, len(canonicalTraits))
	for _, t := range canonicalTraits {
		c := s.Confidence[t]
		if c <= 0 {
			out[t] = 0
			continue
		}
		out[t] = clamp(s.Scores[t]/float64(c), 0, ProfileMax)
	}
	return out
}

// Clone hace una copia profunda del estado.
func (s *AssessmentState) Clone() *AssessmentState {
	out := &AssessmentState{
		Scores:       make(map[Trait]float64, len(s.Scores)),
		Confidence:   make(map[Trait]int, len(s.Confidence)),
		Asked:        append([]string(nil), s.Asked...),
		ClarifyCount: s.ClarifyCount,
	}
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	for k, v := range s.Confidence {
		out.Confidence[k] = v
	}
	return out
}

// Validate comprueba los contadores de un estado que llega desde afuera.
// ClarifyCount debe quedar en [0, maxClarify]; con maxClarify negativo no se acota arriba.
func (s *AssessmentState) Validate(maxClarify int) error {
	if s.ClarifyCount < 0 || (maxClarify >= 0 && s.ClarifyCount > maxClarify) {
		return fmt.Errorf("%w: clarify_count %d out of [0, %d]", ErrInvalidState, s.ClarifyCount, maxClarify)
	}
	for t, c := range s.Confidence {
		if TraitIndex(t) < 0 {
			return fmt.Errorf("%w: confidence for unknown trait %q", ErrInvalidState, t)
		}
		if c < 0 {
			return fmt.Errorf("%w: negative confidence %d for %q", ErrInvalidState, c, t)
		}
	}
	for t := range s.Scores {
		if TraitIndex(t) < 0 {
			return fmt.Errorf("%w: score for unknown trait %q", ErrInvalidState, t)
		}
	}
	seen := make(map[string]struct{}, len(s.Asked))
	for _, q := range s.Asked {
		if _, dup := seen[q]; dup {
			return fmt.Errorf("%w: question %q asked twice", ErrInvalidState, q)
		}
		seen[q] = struct{}{}
	}
	return nil
}
