package domain

import (
	"math"
	"strings"
)

// Trait es una dimension del vector de personalidad/habilidades.
type Trait string

const (
	TraitAnalytical Trait = "analytical"
	TraitCreative   Trait = "creative"
	TraitSocial     Trait = "social"
	TraitLeadership Trait = "leadership"
	TraitPractical  Trait = "practical"
	TraitEmpathy    Trait = "empathy"
	TraitRisk       Trait = "risk"
	TraitFocus      Trait = "focus"
	TraitCuriosity  Trait = "curiosity"
)

// ProfileMax es el valor maximo de un rasgo en un Profile.
const ProfileMax = 10.0

// canonicalTraits define el orden canonico. Todos los desempates por rasgo usan este orden.
var canonicalTraits = []Trait{
	TraitAnalytical,
	TraitCreative,
	TraitSocial,
	TraitLeadership,
	TraitPractical,
	TraitEmpathy,
	TraitRisk,
	TraitFocus,
	TraitCuriosity,
}

// AllTraits devuelve una copia de los rasgos en orden canonico.
func AllTraits() []Trait {
	out := make([]Trait, len(canonicalTraits))
	copy(out, canonicalTraits)
	return out
}

// TraitIndex devuelve la posicion canonica del rasgo, o -1 si no pertenece al set.
func TraitIndex(t Trait) int {
	for i, c := range canonicalTraits {
		if c == t {
			return i
		}
	}
	return -1
}

// ParseTrait normaliza y valida un nombre de rasgo.
func ParseTrait(raw string) (Trait, bool) {
	t := Trait(strings.ToLower(strings.TrimSpace(raw)))
	return t, TraitIndex(t) >= 0
}

// Profile es el vector de rasgos del usuario, valores en [0,10].
type Profile map[Trait]float64

// Get devuelve el valor del rasgo o 0 si no existe.
func (p Profile) Get(t Trait) float64 {
	if p == nil {
		return 0
	}
	return p[t]
}

// Clone copia el perfil.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Scale multiplica todos los valores por factor.
func (p Profile) Scale(factor float64) Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v * factor
	}
	return out
}

// Vector devuelve los valores en orden canonico (rasgos ausentes valen 0).
func (p Profile) Vector() []float32 {
	out := make([]float32, len(canonicalTraits))
	for i, t := range canonicalTraits {
		out[i] = float32(p.Get(t))
	}
	return out
}

// ProfileFromVector reconstruye un perfil desde un vector en orden canonico.
func ProfileFromVector(v []float32) Profile {
	out := make(Profile, len(canonicalTraits))
	for i, t := range canonicalTraits {
		if i < len(v) {
			out[t] = float64(v[i])
		}
	}
	return out
}

// RankedTraits ordena los rasgos del perfil de mayor a menor valor; empates por orden canonico.
func (p Profile) RankedTraits() []Trait {
	out := AllTraits()
	// insertion sort estable: 9 elementos
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && p.Get(out[j]) > p.Get(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Sanitize descarta rasgos desconocidos y recorta valores a [0,10].
func (p Profile) Sanitize() Profile {
	out := make(Profile, len(canonicalTraits))
	for k, v := range p {
		if TraitIndex(k) < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = clamp(v, 0, ProfileMax)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
