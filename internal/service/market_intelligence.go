package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"pathforge/internal/domain"
	"pathforge/internal/market"
)

const (
	inDemandSkillsTop = 10
	jobAlertsTop      = 3
)

var trendBonus = map[string]float64{
	"booming":   20,
	"growing":   10,
	"stable":    0,
	"declining": -10,
}

type ScoreResult struct {
	Score       float64            `json:"score"`
	Level       string             `json:"level,omitempty"`
	Factors     map[string]float64 `json:"factors"`
	Explanation string             `json:"interpretation,omitempty"`
}

type SuccessProbability struct {
	Probability float64            `json:"probability"`
	Confidence  string             `json:"confidence"`
	Factors     map[string]float64 `json:"factors"`
}

type MarketScores struct {
	Demand             ScoreResult        `json:"demand_score"`
	Competition        ScoreResult        `json:"competition_score"`
	Opportunity        ScoreResult        `json:"opportunity_score"`
	SuccessProbability SuccessProbability `json:"success_probability"`
}

type InDemandSkill struct {
	Skill            string  `json:"skill"`
	Frequency        int     `json:"frequency"`
	PercentageOfJobs float64 `json:"percentage_of_jobs"`
}

type SalaryInsights struct {
	Minimum  float64 `json:"minimum"`
	Maximum  float64 `json:"maximum"`
	Average  float64 `json:"average"`
	Currency string  `json:"currency"`
}

type JobMatch struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Salary         string   `json:"salary"`
	MatchScore     float64  `json:"match_score"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

type MarketOverview struct {
	TotalJobOpenings     int    `json:"total_job_openings"`
	MarketSizeAssessment string `json:"market_size_assessment"`
	HiringTrend          string `json:"hiring_trend"`
	DataSource           string `json:"data_source"`
	Note                 string `json:"note,omitempty"`
}

type MarketInsights struct {
	InDemandSkills []InDemandSkill `json:"in_demand_skills"`
	SalaryRange    SalaryInsights  `json:"salary_range"`
	TopJobMatches  []JobMatch      `json:"top_job_matches"`
}

type MarketReport struct {
	Domain         string         `json:"domain"`
	Location       string         `json:"location"`
	MarketOverview MarketOverview `json:"market_overview"`
	Scores         MarketScores   `json:"scores"`
	MarketInsights MarketInsights `json:"market_insights"`
	Recommendation string         `json:"recommendation"`
	NextSteps      []string       `json:"next_steps"`
}

// MarketAnalyzer combina la fuente de mercado con el perfil. Una fuente caida
// produce datos neutros, nunca un error.
type MarketAnalyzer struct {
	source market.Source
	logger *zap.Logger
}

func NewMarketAnalyzer(source market.Source, logger *zap.Logger) *MarketAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketAnalyzer{source: source, logger: logger}
}

func (a *MarketAnalyzer) Analyze(ctx context.Context, domainName string, prefs domain.LearnerPreferences, gaps []SkillGapItem) MarketReport {
	prefs = prefs.WithDefaults()

	snap := market.Placeholder(domainName, prefs.Location, "Fallback used - market data unavailable")
	if a.source != nil {
		s, err := a.source.Fetch(ctx, domainName, prefs.Location)
		if err != nil {
			a.logger.Warn("market fetch failed", zap.String("domain", domainName), zap.Error(err))
		} else {
			snap = s
		}
	}

	demand := DemandScore(snap)
	competition := CompetitionScore(snap, prefs.CurrentSkills)
	opportunity := OpportunityScore(demand.Score, competition.Score)
	success := SuccessProbabilityFor(prefs, gaps, demand.Score, competition.Score)

	inDemand := InDemandSkills(snap, inDemandSkillsTop)
	matches := JobAlerts(snap, prefs.CurrentSkills, jobAlertsTop)

	size := "small"
	switch {
	case snap.TotalJobs > 100:
		size = "large"
	case snap.TotalJobs > 20:
		size = "medium"
	}

	first := fmt.Sprintf("1. Learn key skills for %s", domainName)
	if len(inDemand) > 0 {
		first = fmt.Sprintf("1. Master '%s' - Most in-demand skill for %s", inDemand[0].Skill, domainName)
	}
	company := "Various"
	if len(matches) > 0 && matches[0].Company != "" {
		company = matches[0].Company
	}

	return MarketReport{
		Domain:   domainName,
		Location: prefs.Location,
		MarketOverview: MarketOverview{
			TotalJobOpenings:     snap.TotalJobs,
			MarketSizeAssessment: size,
			HiringTrend:          snap.HiringTrend,
			DataSource:           snap.Source,
			Note:                 snap.Note,
		},
		Scores: MarketScores{
			Demand:             demand,
			Competition:        competition,
			Opportunity:        opportunity,
			SuccessProbability: success,
		},
		MarketInsights: MarketInsights{
			InDemandSkills: inDemand,
			SalaryRange:    SalaryRangeOf(snap),
			TopJobMatches:  matches,
		},
		Recommendation: marketRecommendation(opportunity.Score),
		NextSteps: []string{
			first,
			fmt.Sprintf("2. Build portfolio matching top jobs in %s", domainName),
			fmt.Sprintf("3. Target companies with openings: %s", company),
			"4. Network with professionals in this domain",
			"5. Monitor salary trends and job growth",
		},
	}
}

// DemandScore: empleos (max 60) + tendencia (-10..+20) + salario (max 15), en [0,100].
func DemandScore(snap market.Snapshot) ScoreResult {
	jobs := math.Min(60, float64(snap.TotalJobs)/10*60)
	trend := trendBonus[snap.HiringTrend]
	salary := math.Min(15, snap.AverageSalary/200000*15)
	return ScoreResult{
		Score: clamp100(jobs + trend + salary),
		Factors: map[string]float64{
			"job_openings":   jobs,
			"hiring_trend":   trend,
			"salary_premium": salary,
		},
	}
}

// CompetitionScore: diversidad de habilidades (max 40) + experiencia (30 - 5*promedio)
// + puestos de entrada (max 20) - coincidencia con el usuario/10, en [0,100].
func CompetitionScore(snap market.Snapshot, userSkills []string) ScoreResult {
	unique := map[string]struct{}{}
	var expSum float64
	entry := 0
	for _, j := range snap.Jobs {
		for _, s := range j.RequiredSkills {
			unique[s] = struct{}{}
		}
		expSum += j.ExperienceYears
		if j.ExperienceYears <= 2 {
			entry++
		}
	}
	skills := math.Min(40, float64(len(unique))*2)
	var avgExp, entryBonus float64
	if n := len(snap.Jobs); n > 0 {
		avgExp = expSum / float64(n)
		entryBonus = math.Min(20, float64(entry)/float64(n)*40)
	}
	exp := 30 - avgExp*5
	match := skillMatchRatio(snap, userSkills)

	score := skills + exp + entryBonus - match/10
	level := "easy"
	switch {
	case score > 70:
		level = "hard"
	case score > 40:
		level = "moderate"
	}
	return ScoreResult{
		Score: clamp100(score),
		Level: level,
		Factors: map[string]float64{
			"required_skills":          skills,
			"experience_gap":           exp,
			"entry_level_availability": entryBonus,
			"skill_match_with_user":    -match / 10,
		},
	}
}

// OpportunityScore = (demanda - competencia)/2 + 50.
func OpportunityScore(demand, competition float64) ScoreResult {
	score := clamp100((demand-competition)/2 + 50)
	res := ScoreResult{
		Score:   score,
		Factors: map[string]float64{"demand_score": demand, "competition_score": competition},
	}
	switch {
	case score >= 75:
		res.Level, res.Explanation = "excellent", "High demand + Low competition = Best time to transition"
	case score >= 60:
		res.Level, res.Explanation = "good", "Decent demand, moderate competition"
	case score >= 40:
		res.Level, res.Explanation = "moderate", "Balanced market, may require some upskilling"
	default:
		res.Level, res.Explanation = "challenging", "Low demand + High competition"
	}
	return res
}

// SuccessProbabilityFor pondera habilidades 30, capacidad 20, tiempo 20, demanda 15, competencia 15.
func SuccessProbabilityFor(prefs domain.LearnerPreferences, gaps []SkillGapItem, demand, competition float64) SuccessProbability {
	skillMatch := 50.0
	if len(gaps) > 0 {
		var sum float64
		for _, g := range gaps {
			sum += g.Gap
		}
		skillMatch = (1 - sum/float64(len(gaps))) * 100
	}
	skill := skillMatch / 100 * 30
	capacity := prefs.LearningCapacity / 10 * 20
	timeF := math.Min(20, prefs.HoursPerWeek/30*20)
	demandF := demand / 100 * 15
	compF := math.Max(0, (100-competition)/100) * 15

	p := skill + capacity + timeF + demandF + compF
	conf := "low"
	switch {
	case p > 70:
		conf = "high"
	case p > 40:
		conf = "moderate"
	}
	return SuccessProbability{
		Probability: clamp100(p),
		Confidence:  conf,
		Factors: map[string]float64{
			"skill_match":       skill,
			"learning_capacity": capacity,
			"available_time":    timeF,
			"market_demand":     demandF,
			"competition":       compF,
		},
	}
}

func InDemandSkills(snap market.Snapshot, top int) []InDemandSkill {
	freq := map[string]int{}
	var order []string
	for _, j := range snap.Jobs {
		for _, s := range j.RequiredSkills {
			k := strings.ToLower(s)
			if _, ok := freq[k]; !ok {
				order = append(order, k)
			}
			freq[k]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > top {
		order = order[:top]
	}
	total := len(snap.Jobs)
	if total == 0 {
		total = 1
	}
	out := make([]InDemandSkill, 0, len(order))
	for _, k := range order {
		out = append(out, InDemandSkill{
			Skill:            titleCase(k),
			Frequency:        freq[k],
			PercentageOfJobs: round1(float64(freq[k]) / float64(total) * 100),
		})
	}
	return out
}

func SalaryRangeOf(snap market.Snapshot) SalaryInsights {
	var vals []float64
	for _, j := range snap.Jobs {
		if j.SalaryRange.Min > 0 {
			vals = append(vals, j.SalaryRange.Min)
		}
		if j.SalaryRange.Max > 0 {
			vals = append(vals, j.SalaryRange.Max)
		}
	}
	out := SalaryInsights{Currency: "USD"}
	if len(vals) == 0 {
		return out
	}
	out.Minimum, out.Maximum = vals[0], vals[0]
	var sum float64
	for _, v := range vals {
		out.Minimum = math.Min(out.Minimum, v)
		out.Maximum = math.Max(out.Maximum, v)
		sum += v
	}
	out.Average = round2(sum / float64(len(vals)))
	return out
}

// JobAlerts ordena los puestos por porcentaje de habilidades que el usuario ya tiene.
func JobAlerts(snap market.Snapshot, userSkills []string, top int) []JobMatch {
	have := lowerSet(userSkills)
	out := make([]JobMatch, 0, len(snap.Jobs))
	for _, j := range snap.Jobs {
		var matching, missing []string
		for _, s := range j.RequiredSkills {
			if _, ok := have[strings.ToLower(s)]; ok {
				matching = append(matching, titleCase(s))
			} else if len(missing) < 3 {
				missing = append(missing, titleCase(s))
			}
		}
		var score float64
		if len(j.RequiredSkills) > 0 {
			score = round1(float64(len(matching)) / float64(len(j.RequiredSkills)) * 100)
		}
		out = append(out, JobMatch{
			Title:          j.Title,
			Company:        j.Company,
			Location:       j.Location,
			Salary:         fmt.Sprintf("$%.0f - $%.0f", j.SalaryRange.Min, j.SalaryRange.Max),
			MatchScore:     score,
			MatchingSkills: nonNil(matching),
			MissingSkills:  nonNil(missing),
		})
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].MatchScore > out[k].MatchScore })
	if len(out) > top {
		out = out[:top]
	}
	return out
}

func skillMatchRatio(snap market.Snapshot, userSkills []string) float64 {
	if len(userSkills) == 0 || len(snap.Jobs) == 0 {
		return 0
	}
	jobSkills := map[string]struct{}{}
	for _, j := range snap.Jobs {
		for _, s := range j.RequiredSkills {
			jobSkills[strings.ToLower(s)] = struct{}{}
		}
	}
	if len(jobSkills) == 0 {
		return 0
	}
	have := lowerSet(userSkills)
	n := 0
	for s := range jobSkills {
		if _, ok := have[s]; ok {
			n++
		}
	}
	return float64(n) / float64(len(jobSkills)) * 100
}

func marketRecommendation(opportunity float64) string {
	switch {
	case opportunity >= 75:
		return "EXCELLENT - Strong demand meets your skills"
	case opportunity >= 60:
		return "GOOD - Solid opportunity with moderate effort"
	case opportunity >= 40:
		return "MODERATE - Achievable with focused upskilling"
	default:
		return "CHALLENGING - High competition, lower success probability. Consider alternative paths or extensive upskilling"
	}
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func lowerSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
