package service

import (
	"fmt"
	"strings"

	"pathforge/internal/catalog"
)

type RoadmapStep struct {
	Step          int    `json:"step"`
	Title         string `json:"title"`
	EstimatedTime string `json:"estimated_time"`
	Months        int    `json:"months"`
}

type RoadmapGenerator struct {
	templates map[string][]catalog.RoadmapStepTemplate
	fallback  []catalog.RoadmapStepTemplate
}

func NewRoadmapGenerator(cat *catalog.Catalog) *RoadmapGenerator {
	return &RoadmapGenerator{templates: cat.RoadmapTemplates, fallback: cat.FallbackRoadmap}
}

// Generate usa la plantilla del dominio o los cinco pasos genericos si no hay plantilla.
func (g *RoadmapGenerator) Generate(domainName string) []RoadmapStep {
	steps, ok := g.templates[strings.ToLower(strings.TrimSpace(domainName))]
	if !ok {
		steps = g.fallback
	}
	out := make([]RoadmapStep, 0, len(steps))
	for i, s := range steps {
		out = append(out, RoadmapStep{
			Step:          i + 1,
			Title:         s.Title,
			EstimatedTime: formatMonths(s.Months),
			Months:        s.Months,
		})
	}
	return out
}

func formatMonths(m int) string {
	return fmt.Sprintf("%d months", m)
}
