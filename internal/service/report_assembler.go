package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pathforge/internal/catalog"
	"pathforge/internal/domain"
	"pathforge/internal/llm"
	"pathforge/internal/market"
	"pathforge/internal/metrics"
)

const (
	SectionFit           = "fit"
	SectionTop5          = "top_5"
	SectionExplanation   = "explanation"
	SectionSkillGap      = "skill_gap"
	SectionRoadmap       = "roadmap"
	SectionTimeline      = "timeline"
	SectionPace          = "pace_customization"
	SectionAlternatives  = "alternative_paths"
	SectionResources     = "resource_recommendations"
	SectionMarket        = "market_intelligence"
	SectionStatusMissing = "unavailable"

	topDomainsInReport = 5
)

// Unavailable reemplaza una seccion cuyo colaborador fallo.
type Unavailable struct {
	Status  string `json:"status"`
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

type BestDomain struct {
	Domain string     `json:"domain"`
	Score  float64    `json:"score"`
	Fit    *FitResult `json:"fit,omitempty"`
}

// Report es el resultado final. Cada seccion es su valor o un Unavailable.
type Report struct {
	BestDomain              BestDomain    `json:"best_domain"`
	Top5                    []CareerMatch `json:"top_5"`
	Explanation             any           `json:"explanation"`
	SkillGap                any           `json:"skill_gap"`
	Roadmap                 any           `json:"roadmap"`
	Timeline                any           `json:"timeline"`
	PaceCustomization       any           `json:"pace_customization"`
	AlternativePaths        any           `json:"alternative_paths"`
	ResourceRecommendations any           `json:"resource_recommendations"`
	MarketIntelligence      any           `json:"market_intelligence"`
}

type AssemblerOptions struct {
	LLM     llm.LLMClient
	Market  market.Source
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// ReportAssembler arma el reporte llamando a los colaboradores en secuencia.
// Un colaborador que falla o entra en panic deja su seccion como Unavailable.
type ReportAssembler struct {
	fit          *FitEvaluator
	matchCareers func(ranked []domain.DomainScore, profile domain.Profile, n int) []CareerMatch
	skillGap     *SkillGapAnalyzer
	explainer    *Explainer
	roadmap      *RoadmapGenerator
	timeline     *TimelineGenerator
	pace         *PaceCustomizer
	alternatives *AlternativesExplorer
	resources    *ResourceRecommender
	market       *MarketAnalyzer
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewReportAssembler(cat *catalog.Catalog, opts AssemblerOptions) *ReportAssembler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	src := opts.Market
	if src == nil {
		src = market.NewCatalogSource(cat.Market)
	}
	return &ReportAssembler{
		fit:          NewFitEvaluator(cat.FitWeights),
		matchCareers: MatchCareers,
		skillGap:     NewSkillGapAnalyzer(cat),
		explainer:    NewExplainer(opts.LLM, logger),
		roadmap:      NewRoadmapGenerator(cat),
		timeline:     NewTimelineGenerator(cat, now),
		pace:         NewPaceCustomizer(cat.Pace),
		alternatives: NewAlternativesExplorer(cat),
		resources:    NewResourceRecommender(cat.Resources, now().Year()),
		market:       NewMarketAnalyzer(src, logger),
		metrics:      opts.Metrics,
		logger:       logger,
	}
}

// Assemble construye el reporte para best. ranked se usa para top_5.
func (a *ReportAssembler) Assemble(ctx context.Context, best domain.DomainScore, ranked []domain.DomainScore, profile domain.Profile, prefs domain.LearnerPreferences) *Report {
	start := time.Now()
	defer func() { a.metrics.ObserveReportLatency(time.Since(start)) }()

	prefs = prefs.WithDefaults()
	fit, fail := runSection(a, SectionFit, func() (FitResult, error) {
		return a.fit.EvaluateFit(best.Domain, profile), nil
	})
	if fail != nil {
		fit = FitResult{Domain: best.Domain, Error: fail.Reason}
	}
	top, fail := runSection(a, SectionTop5, func() ([]CareerMatch, error) {
		return a.matchCareers(ranked, profile, topDomainsInReport), nil
	})
	if fail != nil {
		top = rankingOnly(ranked, topDomainsInReport)
	}
	rep := &Report{
		BestDomain: BestDomain{Domain: best.Domain, Score: round2(best.Score), Fit: &fit},
		Top5:       top,
	}

	gaps, gapFail := runSection(a, SectionSkillGap, func() (SkillGapReport, error) {
		return a.skillGap.Analyze(best.Domain, profile)
	})
	rep.SkillGap = sectionValue(gaps, gapFail)
	var gapItems []SkillGapItem
	if gapFail == nil {
		gapItems = gaps.ImprovementPlan
	}

	exp, fail := runSection(a, SectionExplanation, func() (Explanation, error) {
		return a.explainer.Explain(ctx, best, profile)
	})
	rep.Explanation = sectionValue(exp, fail)

	steps, roadFail := runSection(a, SectionRoadmap, func() ([]RoadmapStep, error) {
		return a.roadmap.Generate(best.Domain), nil
	})
	rep.Roadmap = sectionValue(steps, roadFail)

	tl, fail := runSection(a, SectionTimeline, func() (TimelineReport, error) {
		return a.timeline.Generate(best.Domain)
	})
	rep.Timeline = sectionValue(tl, fail)

	pace, fail := runSection(a, SectionPace, func() (PaceReport, error) {
		return a.pace.Customize(prefs, steps), nil
	})
	rep.PaceCustomization = sectionValue(pace, fail)

	alts, fail := runSection(a, SectionAlternatives, func() (AlternativesReport, error) {
		return a.alternatives.Explore(best.Domain, profile)
	})
	rep.AlternativePaths = sectionValue(alts, fail)

	res, fail := runSection(a, SectionResources, func() (ResourceReport, error) {
		return a.resources.Recommend(gapItems, prefs), nil
	})
	rep.ResourceRecommendations = sectionValue(res, fail)

	mkt, fail := runSection(a, SectionMarket, func() (MarketReport, error) {
		return a.market.Analyze(ctx, best.Domain, prefs, gapItems), nil
	})
	rep.MarketIntelligence = sectionValue(mkt, fail)
	return rep
}

// EvaluateFit expone el evaluador de ajuste para los front ends.
func (a *ReportAssembler) EvaluateFit(name string, profile domain.Profile) FitResult {
	return a.fit.EvaluateFit(name, profile)
}

func (a *ReportAssembler) sectionFailed(name string, err error) *Unavailable {
	a.metrics.IncSectionFailure(name)
	a.logger.Warn("report section unavailable", zap.String("section", name), zap.Error(err))
	return &Unavailable{Status: SectionStatusMissing, Section: name, Reason: err.Error()}
}

func runSection[T any](a *ReportAssembler, name string, fn func() (T, error)) (val T, failed *Unavailable) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			val, failed = zero, a.sectionFailed(name, fmt.Errorf("panic: %v", r))
		}
	}()
	v, err := fn()
	if err != nil {
		return v, a.sectionFailed(name, err)
	}
	return v, nil
}

// rankingOnly es el top sin titulos de carrera.
func rankingOnly(ranked []domain.DomainScore, n int) []CareerMatch {
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]CareerMatch, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, CareerMatch{Domain: r.Domain, Score: round2(r.Score), Careers: []string{}})
	}
	return out
}

func sectionValue[T any](v T, failed *Unavailable) any {
	if failed != nil {
		return failed
	}
	return v
}
