package service

import (
	"math"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

type PaceFactor struct {
	Value         float64 `json:"value"`
	Category      string  `json:"category"`
	Multiplier    float64 `json:"multiplier"`
	Description   string  `json:"description,omitempty"`
	RetentionRisk string  `json:"retention_risk,omitempty"`
}

type PaceAnalysis struct {
	HoursPerWeek        PaceFactor `json:"hours_per_week"`
	ComplexityTolerance PaceFactor `json:"complexity_tolerance"`
	LearningCapacity    PaceFactor `json:"learning_capacity"`
}

type PaceRecommendation struct {
	Pace               string `json:"pace"`
	Message            string `json:"message"`
	DurationVsBaseline string `json:"duration_vs_baseline"`
}

type PacedStep struct {
	RoadmapStep
	OriginalTime   string  `json:"original_time"`
	PaceMultiplier float64 `json:"pace_multiplier"`
}

type CustomizedRoadmap struct {
	PaceMultiplier        float64     `json:"pace_multiplier"`
	TotalMonthsOriginal   int         `json:"total_months_original"`
	TotalMonthsCustomized int         `json:"total_months_customized"`
	LearningHoursPerWeek  float64     `json:"learning_hours_per_week"`
	Roadmap               []PacedStep `json:"roadmap"`
}

type PaceReport struct {
	ProfileAnalysis       PaceAnalysis       `json:"profile_analysis"`
	OverallPaceMultiplier float64            `json:"overall_pace_multiplier"`
	PaceRecommendation    PaceRecommendation `json:"pace_recommendation"`
	Tips                  []string           `json:"tips"`
	CustomizedRoadmap     *CustomizedRoadmap `json:"customized_roadmap,omitempty"`
}

type PaceCustomizer struct {
	cfg catalog.PaceConfig
}

func NewPaceCustomizer(cfg catalog.PaceConfig) *PaceCustomizer {
	return &PaceCustomizer{cfg: cfg}
}

// Analyze clasifica horas, tolerancia a complejidad y capacidad en buckets.
func (p *PaceCustomizer) Analyze(prefs domain.LearnerPreferences) PaceAnalysis {
	prefs = prefs.WithDefaults()

	hours := PaceFactor{Value: prefs.HoursPerWeek, Category: "medium", Multiplier: 1.0}
	for _, b := range p.cfg.HoursPerWeek {
		if b.Min <= prefs.HoursPerWeek && prefs.HoursPerWeek < b.Max {
			hours.Category, hours.Multiplier = b.Category, b.Multiplier
			break
		}
	}

	complexityCat := "high"
	switch {
	case prefs.ComplexityTolerance < 4:
		complexityCat = "low"
	case prefs.ComplexityTolerance < 7:
		complexityCat = "medium"
	}
	cb := p.cfg.ComplexityTolerance[complexityCat]

	capacityCat := "fast"
	switch {
	case prefs.LearningCapacity < 4:
		capacityCat = "slow"
	case prefs.LearningCapacity < 7:
		capacityCat = "average"
	}
	capb := p.cfg.LearningCapacity[capacityCat]

	return PaceAnalysis{
		HoursPerWeek: hours,
		ComplexityTolerance: PaceFactor{
			Value:       prefs.ComplexityTolerance,
			Category:    complexityCat,
			Multiplier:  cb.Multiplier,
			Description: cb.Description,
		},
		LearningCapacity: PaceFactor{
			Value:         prefs.LearningCapacity,
			Category:      capacityCat,
			Multiplier:    capb.Multiplier,
			RetentionRisk: capb.RetentionRisk,
		},
	}
}

// Multiplier = 0.4*horas + 0.35*complejidad + 0.25*capacidad, redondeado a 2 decimales.
// Mayor que 1 alarga los plazos.
func Multiplier(a PaceAnalysis) float64 {
	return round2(a.HoursPerWeek.Multiplier*0.4 + a.ComplexityTolerance.Multiplier*0.35 + a.LearningCapacity.Multiplier*0.25)
}

func (p *PaceCustomizer) Customize(prefs domain.LearnerPreferences, roadmap []RoadmapStep) PaceReport {
	prefs = prefs.WithDefaults()
	analysis := p.Analyze(prefs)
	m := Multiplier(analysis)

	report := PaceReport{
		ProfileAnalysis:       analysis,
		OverallPaceMultiplier: m,
		PaceRecommendation:    RecommendPace(m),
		Tips:                  paceTips(analysis),
	}
	if len(roadmap) == 0 {
		return report
	}

	custom := &CustomizedRoadmap{
		PaceMultiplier:       m,
		LearningHoursPerWeek: prefs.HoursPerWeek,
		Roadmap:              make([]PacedStep, 0, len(roadmap)),
	}
	for _, s := range roadmap {
		adjusted := int(math.Max(1, math.Round(float64(s.Months)*m)))
		step := PacedStep{RoadmapStep: s, OriginalTime: s.EstimatedTime, PaceMultiplier: m}
		step.Months = adjusted
		step.EstimatedTime = formatMonths(adjusted)
		custom.TotalMonthsOriginal += s.Months
		custom.TotalMonthsCustomized += adjusted
		custom.Roadmap = append(custom.Roadmap, step)
	}
	report.CustomizedRoadmap = custom
	return report
}

func RecommendPace(m float64) PaceRecommendation {
	switch {
	case m > 1.3:
		return PaceRecommendation{"slow", "Extended timeline recommended for thorough learning", "30%+ longer"}
	case m > 1.1:
		return PaceRecommendation{"moderate", "Take time to consolidate learning with practice", "10-30% longer"}
	case m >= 0.9:
		return PaceRecommendation{"standard", "Follow standard learning timeline", "as planned"}
	case m >= 0.75:
		return PaceRecommendation{"accelerated", "You can move faster - challenge yourself", "15-25% shorter"}
	default:
		return PaceRecommendation{"fast-track", "High capacity - consider intensive bootcamps or accelerated programs", "25%+ shorter"}
	}
}

func paceTips(a PaceAnalysis) []string {
	tips := []string{}
	switch hours := a.HoursPerWeek.Value; {
	case hours < 5:
		tips = append(tips,
			"You have limited hours - focus on bite-sized lessons (15-30 min)",
			"Use mobile learning apps for commute time",
			"Consolidate learning into 2-3 focused sessions per week",
		)
	case hours > 30:
		tips = append(tips,
			"Your high availability allows deep diving into complex topics",
			"Consider intensive bootcamps or project-based learning",
			"Balance breadth and depth to avoid overwhelm",
		)
	}
	switch c := a.ComplexityTolerance.Value; {
	case c < 4:
		tips = append(tips,
			"Break complex topics into smaller, digestible chunks",
			"Use visual learning materials and diagrams",
			"Spend extra time on fundamentals before advanced topics",
		)
	case c >= 7:
		tips = append(tips,
			"You can handle advanced concepts - challenge yourself with projects",
			"Consider advanced specializations early",
		)
	}
	switch c := a.LearningCapacity.Value; {
	case c < 4:
		tips = append(tips,
			"Space out learning sessions to enhance retention",
			"Take detailed notes and review regularly",
			"Use spaced repetition techniques",
		)
	case c >= 7:
		tips = append(tips,
			"Your learning speed is strong - build projects to consolidate",
			"Explore related topics to deepen understanding",
		)
	}
	return tips
}
