package service

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

const (
	resourceBaseScore    = 100.0
	resourcePathWeeks    = 12
	resourcesPerStep     = 5
	resourceHoursSampleN = 3
	defaultResourceHours = 50.0
	noResourcesMessage   = "No resources found for given skill gaps"
	budgetFree           = "free"
	budgetPaid           = "paid"
)

type ResourceCriteria struct {
	MaxHours      float64
	Budget        string
	LearningStyle string
	Difficulty    string
}

type ScoredResource struct {
	catalog.Resource
	Score  float64 `json:"score"`
	Reason string  `json:"why_recommended,omitempty"`
}

type LearningStep struct {
	Step                 int              `json:"step"`
	Skill                domain.Trait     `json:"skill"`
	GapValue             float64          `json:"gap_value"`
	GapSeverity          string           `json:"gap_severity"`
	RecommendedResources []ScoredResource `json:"recommended_resources"`
	EstimatedHours       float64          `json:"estimated_hours"`
	LearningTip          string           `json:"learning_tip"`
}

type ResourceSummary struct {
	TotalSkillsToLearn  int     `json:"total_skills_to_learn"`
	CriticalGaps        int     `json:"critical_gaps"`
	EstimatedTotalHours float64 `json:"estimated_total_hours"`
	EstimatedWeeks      float64 `json:"estimated_weeks"`
	BudgetPreference    string  `json:"budget_preference"`
	LearningStyle       string  `json:"learning_style"`
}

type ResourceStatistics struct {
	CriticalSkills    int `json:"critical_skills"`
	SignificantSkills int `json:"significant_skills"`
	ModerateSkills    int `json:"moderate_skills"`
}

// ResourceReport cubre los tres casos: sin brechas (Status=no_gaps), sin recursos (Error)
// y el camino de aprendizaje normal.
type ResourceReport struct {
	Status              string              `json:"status,omitempty"`
	Message             string              `json:"message,omitempty"`
	RecommendationType  string              `json:"recommendation_type,omitempty"`
	Insights            []string            `json:"insights,omitempty"`
	SuggestedFocusAreas []string            `json:"suggested_focus_areas,omitempty"`
	Error               string              `json:"error,omitempty"`
	SkillGaps           []SkillGapItem      `json:"skill_gaps,omitempty"`
	Summary             *ResourceSummary    `json:"summary,omitempty"`
	LearningPath        []LearningStep      `json:"learning_path,omitempty"`
	Statistics          *ResourceStatistics `json:"statistics,omitempty"`
	NextSteps           []string            `json:"next_steps,omitempty"`
}

type ResourceRecommender struct {
	resources   []catalog.Resource
	currentYear int
}

func NewResourceRecommender(resources []catalog.Resource, currentYear int) *ResourceRecommender {
	return &ResourceRecommender{resources: resources, currentYear: currentYear}
}

// ForSkill devuelve los recursos que cubren el rasgo, en orden de catalogo.
func (r *ResourceRecommender) ForSkill(skill domain.Trait, resourceType string) []catalog.Resource {
	var out []catalog.Resource
	for _, res := range r.resources {
		if resourceType != "" && resourceType != domain.PreferenceAny && res.Type != resourceType {
			continue
		}
		if slices.Contains(res.Skills, skill) {
			out = append(out, res)
		}
	}
	return out
}

// RankResources puntua desde 100: filtro de presupuesto, penalidad por horas, estilo +15/-10,
// dificultad +10, rating, popularidad (max 20) y actualidad.
func RankResources(resources []catalog.Resource, c ResourceCriteria) []ScoredResource {
	out := make([]ScoredResource, 0, len(resources))
	for _, res := range resources {
		switch c.Budget {
		case budgetFree:
			if res.Price > 0 {
				continue
			}
		case budgetPaid:
			if res.Price == 0 {
				continue
			}
		}

		score := resourceBaseScore
		hours := res.HoursToComplete
		if hours <= 0 {
			hours = defaultResourceHours
		}
		if c.MaxHours > 0 && hours > c.MaxHours {
			score -= (hours - c.MaxHours) / 10
		}
		if c.LearningStyle != "" && c.LearningStyle != domain.PreferenceAny {
			if slices.Contains(res.LearningStyle, c.LearningStyle) {
				score += 15
			} else {
				score -= 10
			}
		}
		if c.Difficulty != "" && c.Difficulty != domain.PreferenceAny && res.Difficulty == c.Difficulty {
			score += 10
		}
		score += (res.Rating - 3.0) * 10
		score += math.Min(float64(res.Reviews)/1000*5, 20)
		score += math.Max(float64(res.UpdatedYear-2020)*2, 0)

		out = append(out, ScoredResource{Resource: res, Score: math.Max(0, round1(score))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func GapSeverity(gap float64) string {
	switch {
	case gap >= 0.4:
		return "critical"
	case gap >= 0.25:
		return "significant"
	case gap >= 0.15:
		return "moderate"
	default:
		return "minor"
	}
}

func (r *ResourceRecommender) Recommend(gaps []SkillGapItem, prefs domain.LearnerPreferences) ResourceReport {
	if len(gaps) == 0 {
		return ResourceReport{
			Status:             "no_gaps",
			Message:            "Excellent! No critical skill gaps detected.",
			RecommendationType: "Professional Development & Specialization",
			Insights: []string{
				"You have a strong foundation for your target domain",
				"Consider deepening expertise in specialized areas",
				"Explore complementary skills for career advancement",
				"Focus on building portfolio projects and real-world experience",
			},
			SuggestedFocusAreas: []string{
				"Advanced certifications in your domain",
				"Leadership and management skills",
				"Emerging technologies and innovations",
				"Research publications and knowledge sharing",
				"Mentoring and teaching others",
			},
		}
	}

	prefs = prefs.WithDefaults()
	criteria := ResourceCriteria{
		MaxHours:      prefs.HoursPerWeek * resourcePathWeeks,
		Budget:        prefs.BudgetPreference,
		LearningStyle: prefs.LearningStyle,
		Difficulty:    prefs.DifficultyPreference,
	}

	sorted := append([]SkillGapItem(nil), gaps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Gap > sorted[j].Gap })

	var path []LearningStep
	for i, g := range sorted {
		ranked := RankResources(r.ForSkill(g.Trait, ""), criteria)
		if len(ranked) == 0 {
			continue
		}
		top := ranked[:min(resourcesPerStep, len(ranked))]
		for k := range top {
			top[k].Reason = r.RecommendationReason(top[k].Resource)
		}
		var hours float64
		for _, res := range ranked[:min(resourceHoursSampleN, len(ranked))] {
			hours += res.HoursToComplete
		}
		path = append(path, LearningStep{
			Step:                 i + 1,
			Skill:                g.Trait,
			GapValue:             g.Gap,
			GapSeverity:          GapSeverity(g.Gap),
			RecommendedResources: top,
			EstimatedHours:       round1(hours / resourceHoursSampleN),
			LearningTip:          g.Advice,
		})
	}
	if len(path) == 0 {
		return ResourceReport{Error: noResourcesMessage, SkillGaps: gaps}
	}

	stats := &ResourceStatistics{}
	var total float64
	for _, s := range path {
		total += s.EstimatedHours
		switch s.GapSeverity {
		case "critical":
			stats.CriticalSkills++
		case "significant":
			stats.SignificantSkills++
		case "moderate":
			stats.ModerateSkills++
		}
	}
	return ResourceReport{
		Summary: &ResourceSummary{
			TotalSkillsToLearn:  len(path),
			CriticalGaps:        stats.CriticalSkills,
			EstimatedTotalHours: round1(total),
			EstimatedWeeks:      round1(total / prefs.HoursPerWeek),
			BudgetPreference:    prefs.BudgetPreference,
			LearningStyle:       prefs.LearningStyle,
		},
		LearningPath: path,
		Statistics:   stats,
		NextSteps: []string{
			fmt.Sprintf("Start with: %s", path[0].Skill),
			"Follow the order above for optimal learning",
			"Adjust pace based on your weekly availability",
			fmt.Sprintf("Dedicate ~%d weeks to this learning path", int(math.Round(total/prefs.HoursPerWeek))),
		},
	}
}

// RecommendationReason resume por que conviene un recurso.
func (r *ResourceRecommender) RecommendationReason(res catalog.Resource) string {
	var reasons []string
	if res.Rating >= 4.8 {
		reasons = append(reasons, "Highly rated")
	}
	if res.Reviews >= 5000 {
		reasons = append(reasons, "Very popular")
	}
	if res.Price == 0 {
		reasons = append(reasons, "Free")
	}
	switch res.Type {
	case "video":
		reasons = append(reasons, "Video-based (visual)")
	case "project":
		reasons = append(reasons, "Hands-on project")
	}
	if res.Difficulty == "beginner" {
		reasons = append(reasons, "Beginner-friendly")
	}
	if r.currentYear > 0 && res.UpdatedYear >= r.currentYear-1 {
		reasons = append(reasons, "Recently updated")
	}
	if len(reasons) == 0 {
		return "Good match"
	}
	return strings.Join(reasons, " | ")
}
