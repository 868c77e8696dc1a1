package service

import (
	"errors"
	"fmt"
	"sort"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

var ErrUnknownDomain = errors.New("unknown domain")

const defaultSkillAdvice = "Practice real-world activities related to this skill."

// SkillGapItem es la diferencia entre lo requerido por el dominio y el perfil, en escala [0,1].
type SkillGapItem struct {
	Trait     domain.Trait `json:"trait"`
	YourScore float64      `json:"your_score"`
	Required  float64      `json:"required"`
	Gap       float64      `json:"gap"`
	Priority  float64      `json:"priority"`
	Advice    string       `json:"advice"`
}

type SkillGapReport struct {
	TargetDomain    string         `json:"target_domain"`
	TotalGaps       int            `json:"total_gaps"`
	ImprovementPlan []SkillGapItem `json:"improvement_plan"`
}

type SkillGapAnalyzer struct {
	cat *catalog.Catalog
}

func NewSkillGapAnalyzer(cat *catalog.Catalog) *SkillGapAnalyzer {
	return &SkillGapAnalyzer{cat: cat}
}

// Analyze compara el vector de ranking del dominio con el perfil normalizado (valor/10).
// Umbral: 0.15 si required < 0.7, si no 0.1. Prioridad = gap * required.
func (a *SkillGapAnalyzer) Analyze(domainName string, profile domain.Profile) (SkillGapReport, error) {
	v, ok := a.cat.Vector(domainName)
	if !ok {
		return SkillGapReport{}, fmt.Errorf("skill gap for %q: %w", domainName, ErrUnknownDomain)
	}

	plan := []SkillGapItem{}
	for _, t := range v.OrderedTraits() {
		required := v.Weights[t]
		user := profile.Get(t) / domain.ProfileMax
		gap := round2(required - user)

		threshold := 0.1
		if required < 0.7 {
			threshold = 0.15
		}
		if gap <= threshold {
			continue
		}
		advice, ok := a.cat.TraitTips[t]
		if !ok || advice == "" {
			advice = defaultSkillAdvice
		}
		plan = append(plan, SkillGapItem{
			Trait:     t,
			YourScore: round2(user),
			Required:  required,
			Gap:       gap,
			Priority:  round2(gap * required),
			Advice:    advice,
		})
	}
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].Priority > plan[j].Priority
	})

	return SkillGapReport{
		TargetDomain:    v.Name,
		TotalGaps:       len(plan),
		ImprovementPlan: plan,
	}, nil
}
