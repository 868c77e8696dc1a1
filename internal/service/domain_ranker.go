package service

import (
	"sort"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

// DomainRanker calcula el ajuste ponderado entre un perfil y los vectores de dominio.
type DomainRanker struct {
	vectors      []catalog.DomainVector
	gapThreshold float64
}

func NewDomainRanker(vectors []catalog.DomainVector, gapThreshold float64) *DomainRanker {
	return &DomainRanker{
		vectors:      append([]catalog.DomainVector(nil), vectors...),
		gapThreshold: gapThreshold,
	}
}

// Rank puntua todos los dominios y los ordena de mayor a menor. Empates: orden de catalogo.
func (r *DomainRanker) Rank(profile domain.Profile) []domain.DomainScore {
	return rankVectors(profile, r.vectors)
}

// RankSubset igual que Rank pero solo sobre names. Los nombres que no existen se ignoran.
func (r *DomainRanker) RankSubset(profile domain.Profile, names []string) []domain.DomainScore {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var subset []catalog.DomainVector
	for _, v := range r.vectors {
		if _, ok := want[v.Name]; ok {
			subset = append(subset, v)
		}
	}
	return rankVectors(profile, subset)
}

// NeedDomainVerification es true cuando los dos primeros estan a menos del umbral.
func (r *DomainRanker) NeedDomainVerification(ranked []domain.DomainScore) bool {
	if len(ranked) < 2 {
		return false
	}
	return Gap(ranked) < r.gapThreshold
}

// Gap devuelve |top1 - top2|, o 0 con menos de dos dominios.
func Gap(ranked []domain.DomainScore) float64 {
	if len(ranked) < 2 {
		return 0
	}
	d := ranked[0].Score - ranked[1].Score
	if d < 0 {
		d = -d
	}
	return d
}

// WeightedScore es sum(profile[t]*w[t]) / sum(w), 0 si la suma de pesos es 0.
func WeightedScore(profile domain.Profile, v catalog.DomainVector) float64 {
	var num, den float64
	for _, t := range v.OrderedTraits() {
		w := v.Weights[t]
		num += profile.Get(t) * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func rankVectors(profile domain.Profile, vectors []catalog.DomainVector) []domain.DomainScore {
	out := make([]domain.DomainScore, 0, len(vectors))
	for _, v := range vectors {
		out = append(out, domain.DomainScore{Domain: v.Name, Score: WeightedScore(profile, v)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
