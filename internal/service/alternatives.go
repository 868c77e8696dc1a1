package service

import (
	"errors"
	"sort"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
)

const strongOverlapMin = 50.0

var errNoSkills = errors.New("unable to analyze user skills")

type UserSkill struct {
	Trait    domain.Trait `json:"trait"`
	Strength float64      `json:"strength"`
	Level    string       `json:"level"`
}

type SkillOverlap struct {
	Domain            string  `json:"domain"`
	MatchingTraits    int     `json:"matching_traits"`
	RequiredTraits    int     `json:"required_traits"`
	OverlapPercentage float64 `json:"overlap_percentage"`
	AverageStrength   float64 `json:"average_strength"`
}

type Difficulty struct {
	Level          string `json:"level"`
	Description    string `json:"description"`
	LearningEffort string `json:"learning_effort"`
}

type TransitionTime struct {
	Months      string `json:"months"`
	Description string `json:"description"`
}

type RiskLevel struct {
	Level          string `json:"level"`
	Confidence     string `json:"confidence"`
	Recommendation string `json:"recommendation"`
}

type AlternativePath struct {
	Domain             string             `json:"domain"`
	SkillOverlap       SkillOverlap       `json:"skill_overlap"`
	Difficulty         Difficulty         `json:"difficulty"`
	TimeToTransition   TransitionTime     `json:"time_to_transition"`
	TransferableSkills []UserSkill        `json:"transferable_skills"`
	PivotInfo          *catalog.PivotInfo `json:"pivot_info,omitempty"`
	SkillTransfers     []string           `json:"skill_transfers"`
	RiskLevel          RiskLevel          `json:"risk_level"`
}

type AlternativesAnalysis struct {
	CurrentDomain          string            `json:"current_domain"`
	UserTopSkills          []UserSkill       `json:"user_top_skills"`
	TotalAlternativesFound int               `json:"total_alternatives_found"`
	StrongAlternatives     int               `json:"strong_alternatives"`
	Alternatives           []AlternativePath `json:"alternatives"`
}

type PivotRecommendation struct {
	Domain           string   `json:"domain"`
	TransitionPeriod string   `json:"transition_period"`
	ActionSteps      []string `json:"action_steps"`
	Priority         string   `json:"priority"`
}

type CareerVariant struct {
	Career           string         `json:"career"`
	RequiredTraits   []domain.Trait `json:"required_traits"`
	IsSpecialization bool           `json:"is_specialization"`
	SkillRequirement string         `json:"skill_requirement"`
}

type LateralMoves struct {
	Domain         string          `json:"domain"`
	CareerVariants []CareerVariant `json:"career_variants"`
	TotalOptions   int             `json:"total_options"`
}

type AlternativesSummary struct {
	PrimaryTarget     string           `json:"primary_target"`
	AlternativesCount int              `json:"alternatives_count"`
	BestAlternative   *AlternativePath `json:"best_alternative"`
	Consideration     string           `json:"consideration"`
}

type RiskCategories struct {
	SafeChoices      []AlternativePath `json:"safe_choices"`
	ModerateChoices  []AlternativePath `json:"moderate_choices"`
	AmbitiousChoices []AlternativePath `json:"ambitious_choices"`
}

type AlternativesReport struct {
	Analysis             AlternativesAnalysis  `json:"analysis"`
	PivotRecommendations []PivotRecommendation `json:"pivot_recommendations"`
	LateralMoves         LateralMoves          `json:"lateral_moves"`
	RiskCategories       RiskCategories        `json:"risk_categories"`
	Summary              AlternativesSummary   `json:"summary"`
}

type PathComparison struct {
	Domain           string  `json:"domain"`
	SkillOverlap     float64 `json:"skill_overlap"`
	Difficulty       string  `json:"difficulty"`
	TimeToTransition string  `json:"time_to_transition"`
	RiskLevel        string  `json:"risk_level"`
	FitScore         float64 `json:"fit_score"`
}

type ComparisonReport struct {
	Comparison     []PathComparison `json:"comparison"`
	Recommendation string           `json:"recommendation"`
	AllViable      bool             `json:"all_viable"`
}

// AlternativesExplorer busca dominios vecinos por solapamiento de rasgos requeridos
// (catalogo de carreras) con los rasgos mas fuertes del usuario.
type AlternativesExplorer struct {
	careers       []catalog.Career
	relationships catalog.Relationships
}

func NewAlternativesExplorer(cat *catalog.Catalog) *AlternativesExplorer {
	return &AlternativesExplorer{careers: cat.Careers, relationships: cat.Relationships}
}

func (a *AlternativesExplorer) Explore(target string, profile domain.Profile) (AlternativesReport, error) {
	skills := TopSkills(profile, 5)
	if len(skills) == 0 {
		return AlternativesReport{}, errNoSkills
	}
	overlaps := a.overlaps(skills, target)

	strong := []SkillOverlap{}
	for _, o := range overlaps {
		if o.OverlapPercentage >= strongOverlapMin {
			strong = append(strong, o)
		}
	}
	for i := 0; len(strong) < 3 && i < len(overlaps); i++ {
		if overlaps[i].OverlapPercentage < strongOverlapMin {
			strong = append(strong, overlaps[i])
		}
	}

	alts := make([]AlternativePath, 0, len(strong))
	for _, o := range strong {
		key := target + "_to_" + o.Domain
		var pivot *catalog.PivotInfo
		if p, ok := a.relationships.PivotPaths[key]; ok {
			pivot = &p
		}
		n := o.MatchingTraits
		if n > len(skills) {
			n = len(skills)
		}
		transfers := a.relationships.SkillTransfers[key]
		if transfers == nil {
			transfers = []string{}
		}
		alts = append(alts, AlternativePath{
			Domain:             o.Domain,
			SkillOverlap:       o,
			Difficulty:         AssessDifficulty(o.OverlapPercentage),
			TimeToTransition:   EstimateTransitionTime(o.OverlapPercentage),
			TransferableSkills: skills[:n],
			PivotInfo:          pivot,
			SkillTransfers:     transfers,
			RiskLevel:          AssessRisk(o.OverlapPercentage),
		})
	}

	analysis := AlternativesAnalysis{
		CurrentDomain:          target,
		UserTopSkills:          skills,
		TotalAlternativesFound: len(overlaps),
		StrongAlternatives:     len(strong),
		Alternatives:           alts,
	}
	report := AlternativesReport{
		Analysis:             analysis,
		PivotRecommendations: pivotRecommendations(alts),
		LateralMoves:         a.LateralMoves(target),
		RiskCategories:       CategorizeByRisk(alts),
		Summary: AlternativesSummary{
			PrimaryTarget:     target,
			AlternativesCount: len(strong),
			Consideration:     "Review alternatives based on your interests and life circumstances",
		},
	}
	if len(alts) > 0 {
		best := alts[0]
		report.Summary.BestAlternative = &best
	}
	return report, nil
}

// ComparePaths compara varios dominios usando el mejor solapamiento desde cada uno.
func (a *AlternativesExplorer) ComparePaths(paths []string, profile domain.Profile) ComparisonReport {
	skills := TopSkills(profile, 5)
	out := ComparisonReport{Comparison: []PathComparison{}, Recommendation: "Unable to determine", AllViable: true}
	for _, p := range paths {
		overlaps := a.overlaps(skills, p)
		if len(overlaps) == 0 {
			continue
		}
		best := overlaps[0]
		d := AssessDifficulty(best.OverlapPercentage)
		out.Comparison = append(out.Comparison, PathComparison{
			Domain:           p,
			SkillOverlap:     best.OverlapPercentage,
			Difficulty:       d.Level,
			TimeToTransition: d.LearningEffort,
			RiskLevel:        AssessRisk(best.OverlapPercentage).Level,
			FitScore:         round1(best.OverlapPercentage / 10),
		})
	}
	sort.SliceStable(out.Comparison, func(i, j int) bool {
		return out.Comparison[i].FitScore > out.Comparison[j].FitScore
	})
	if len(out.Comparison) > 0 {
		out.Recommendation = out.Comparison[0].Domain
	}
	for _, c := range out.Comparison {
		if c.FitScore < 5 {
			out.AllViable = false
		}
	}
	return out
}

func (a *AlternativesExplorer) LateralMoves(target string) LateralMoves {
	out := LateralMoves{Domain: target, CareerVariants: []CareerVariant{}}
	for _, c := range a.careers {
		if c.Domain != target {
			continue
		}
		req := "foundational"
		if c.IsSpecialization {
			req = "similar"
		}
		out.CareerVariants = append(out.CareerVariants, CareerVariant{
			Career:           c.Career,
			RequiredTraits:   c.Traits,
			IsSpecialization: c.IsSpecialization,
			SkillRequirement: req,
		})
	}
	out.TotalOptions = len(out.CareerVariants)
	return out
}

// TopSkills devuelve hasta n rasgos con valor > 0, de mayor a menor.
func TopSkills(profile domain.Profile, n int) []UserSkill {
	out := []UserSkill{}
	for _, t := range profile.RankedTraits() {
		v := profile.Get(t)
		if v <= 0 {
			continue
		}
		level := "strong"
		switch {
		case v < 4:
			level = "weak"
		case v < 7:
			level = "moderate"
		}
		out = append(out, UserSkill{Trait: t, Strength: v, Level: level})
		if len(out) == n {
			break
		}
	}
	return out
}

func (a *AlternativesExplorer) overlaps(skills []UserSkill, exclude string) []SkillOverlap {
	strength := make(map[domain.Trait]float64, len(skills))
	for _, s := range skills {
		strength[s.Trait] = s.Strength
	}

	var order []string
	required := map[string]map[domain.Trait]struct{}{}
	for _, c := range a.careers {
		if _, ok := required[c.Domain]; !ok {
			required[c.Domain] = map[domain.Trait]struct{}{}
			order = append(order, c.Domain)
		}
		for _, t := range c.Traits {
			required[c.Domain][t] = struct{}{}
		}
	}

	out := []SkillOverlap{}
	for _, d := range order {
		if d == exclude {
			continue
		}
		var matches int
		var sum float64
		for t := range required[d] {
			if v, ok := strength[t]; ok {
				matches++
				sum += v
			}
		}
		if matches == 0 {
			continue
		}
		out = append(out, SkillOverlap{
			Domain:            d,
			MatchingTraits:    matches,
			RequiredTraits:    len(required[d]),
			OverlapPercentage: round1(float64(matches) / float64(len(required[d])) * 100),
			AverageStrength:   round2(sum / float64(matches)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OverlapPercentage > out[j].OverlapPercentage
	})
	return out
}

func AssessDifficulty(overlap float64) Difficulty {
	switch {
	case overlap >= 75:
		return Difficulty{"easy", "Similar skill requirements - smooth transition", "minimal"}
	case overlap >= 60:
		return Difficulty{"moderate", "Good skill overlap - manageable transition", "moderate"}
	case overlap >= 50:
		return Difficulty{"challenging", "Decent overlap but requires new skills", "significant"}
	default:
		return Difficulty{"difficult", "Limited overlap - major retraining needed", "extensive"}
	}
}

func EstimateTransitionTime(overlap float64) TransitionTime {
	switch gap := 100 - overlap; {
	case gap <= 25:
		return TransitionTime{"3-6", "Can transition within months"}
	case gap <= 40:
		return TransitionTime{"6-12", "1 year of focused learning"}
	case gap <= 60:
		return TransitionTime{"12-18", "1-1.5 years of intensive training"}
	default:
		return TransitionTime{"18-24+", "2+ years - consider bootcamp or degree"}
	}
}

func AssessRisk(overlap float64) RiskLevel {
	switch {
	case overlap >= 70:
		return RiskLevel{"low", "high", "Safe choice - strong skill foundation"}
	case overlap >= 55:
		return RiskLevel{"medium", "moderate", "Viable but requires commitment to learning"}
	case overlap >= 40:
		return RiskLevel{"high", "low", "Consider gaining relevant experience first"}
	default:
		return RiskLevel{"very_high", "very_low", "Major career change - extensive preparation needed"}
	}
}

func CategorizeByRisk(alts []AlternativePath) RiskCategories {
	out := RiskCategories{
		SafeChoices:      []AlternativePath{},
		ModerateChoices:  []AlternativePath{},
		AmbitiousChoices: []AlternativePath{},
	}
	for _, a := range alts {
		switch a.RiskLevel.Level {
		case "low":
			out.SafeChoices = append(out.SafeChoices, a)
		case "medium":
			out.ModerateChoices = append(out.ModerateChoices, a)
		default:
			out.AmbitiousChoices = append(out.AmbitiousChoices, a)
		}
	}
	return out
}

func pivotRecommendations(alts []AlternativePath) []PivotRecommendation {
	out := make([]PivotRecommendation, 0, len(alts))
	for _, a := range alts {
		var steps []string
		switch a.Difficulty.Level {
		case "easy":
			steps = []string{
				"1. Fine-tune specialized skills in your new domain",
				"2. Update portfolio with domain-specific projects",
				"3. Network in the new domain community",
				"4. Apply for positions (3-6 months)",
			}
		case "moderate":
			steps = []string{
				"1. Fill skill gaps (2-3 months learning)",
				"2. Work on cross-domain projects",
				"3. Gain exposure through internship/freelance",
				"4. Build portfolio in new domain",
				"5. Apply for positions (6-12 months)",
			}
		case "challenging":
			steps = []string{
				"1. Take foundational courses in new domain (3-4 months)",
				"2. Build proof projects demonstrating new skills",
				"3. Consider contract/project-based work first",
				"4. Gradually increase exposure to new domain",
				"5. Plan for 12-18 months transition",
			}
		default:
			steps = []string{
				"1. Consider if this is truly the right path (reflect)",
				"2. Enroll in structured program/bootcamp (3-6 months)",
				"3. Build strong foundational knowledge",
				"4. Complete significant projects in new domain",
				"5. Gain practical experience",
				"6. Plan for 18-24+ months transition",
			}
		}
		priority := "low"
		switch a.RiskLevel.Level {
		case "low":
			priority = "immediate"
		case "medium":
			priority = "medium"
		}
		out = append(out, PivotRecommendation{
			Domain:           a.Domain,
			TransitionPeriod: a.TimeToTransition.Months,
			ActionSteps:      steps,
			Priority:         priority,
		})
	}
	return out
}
