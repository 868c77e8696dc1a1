package service

import (
	"fmt"
	"strings"

	"pathforge/internal/domain"
)

const strongTraitMin = 7.0

type CareerMatch struct {
	Domain  string   `json:"domain"`
	Score   float64  `json:"score"`
	Careers []string `json:"careers"`
}

// MatchCareers agrega titulos de carrera a los primeros n dominios segun los rasgos fuertes.
func MatchCareers(ranked []domain.DomainScore, profile domain.Profile, n int) []CareerMatch {
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]CareerMatch, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, CareerMatch{
			Domain:  r.Domain,
			Score:   round2(r.Score),
			Careers: CareerTitles(r.Domain, profile),
		})
	}
	return out
}

func CareerTitles(domainName string, profile domain.Profile) []string {
	title := titleCase(domainName)
	var out []string
	if profile.Get(domain.TraitCreative) >= strongTraitMin {
		out = append(out, fmt.Sprintf("Creative %s Specialist", title))
	}
	if profile.Get(domain.TraitAnalytical) >= strongTraitMin {
		out = append(out, fmt.Sprintf("%s Analyst", title))
	}
	if profile.Get(domain.TraitSocial) >= strongTraitMin {
		out = append(out, fmt.Sprintf("%s Consultant", title))
	}
	if profile.Get(domain.TraitRisk) >= strongTraitMin {
		out = append(out, fmt.Sprintf("%s Entrepreneur", title))
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("General %s Professional", title))
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
