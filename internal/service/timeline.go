package service

import (
	"sort"
	"time"

	"pathforge/internal/catalog"
)

const (
	timelineLimit   = 10
	noEventsMessage = "No upcoming relevant events found"
)

type TimelineEvent struct {
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	Tags      []string `json:"tags"`
	Relevance int      `json:"relevance"`
}

// TimelineReport lista eventos futuros; Timeline es []TimelineEvent o un mensaje.
type TimelineReport struct {
	Domain      string `json:"domain"`
	TotalEvents int    `json:"total_events"`
	Timeline    any    `json:"timeline"`
}

type TimelineGenerator struct {
	events   []catalog.Event
	keywords map[string][]string
	now      func() time.Time
}

func NewTimelineGenerator(cat *catalog.Catalog, now func() time.Time) *TimelineGenerator {
	if now == nil {
		now = time.Now
	}
	return &TimelineGenerator{events: cat.Events, keywords: cat.DomainKeywords, now: now}
}

// Generate filtra eventos con fecha >= hoy y los ordena por coincidencia de tags con las
// palabras clave del dominio. Sin palabras clave, un tag igual al dominio vale 1.
func (g *TimelineGenerator) Generate(domainName string) (TimelineReport, error) {
	y, m, d := g.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	keywords := toSet(g.keywords[domainName])

	var ranked []TimelineEvent
	for _, e := range g.events {
		date, err := time.Parse(time.DateOnly, e.Date)
		if err != nil || date.Before(today) {
			continue
		}
		score := 0
		for _, tag := range e.Tags {
			if _, ok := keywords[tag]; ok {
				score++
			}
		}
		if len(keywords) == 0 {
			for _, tag := range e.Tags {
				if tag == domainName {
					score = 1
				}
			}
		}
		if score > 0 {
			ranked = append(ranked, TimelineEvent{Title: e.Title, Date: e.Date, Tags: e.Tags, Relevance: score})
		}
	}

	if len(ranked) == 0 {
		return TimelineReport{Domain: domainName, Timeline: []string{noEventsMessage}}, nil
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	if len(ranked) > timelineLimit {
		ranked = ranked[:timelineLimit]
	}
	return TimelineReport{Domain: domainName, TotalEvents: len(ranked), Timeline: ranked}, nil
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
