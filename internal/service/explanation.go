package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"pathforge/internal/domain"
	"pathforge/internal/llm"
)

const narrativeTimeout = 15 * time.Second

const narrativeSystemPrompt = "You are a career counselor. Write two short paragraphs, plain text, no lists."

type Explanation struct {
	Domain          string         `json:"domain"`
	Score           float64        `json:"score"`
	StrongestTraits []domain.Trait `json:"strongest_traits"`
	Summary         string         `json:"summary"`
	Narrative       string         `json:"narrative,omitempty"`
}

// Explainer arma la explicacion con los tres rasgos mas fuertes. El LLM es opcional:
// si falla o no esta configurado, la narrativa queda vacia.
type Explainer struct {
	llmClient llm.LLMClient
	logger    *zap.Logger
}

func NewExplainer(llmClient llm.LLMClient, logger *zap.Logger) *Explainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explainer{llmClient: llmClient, logger: logger}
}

func (e *Explainer) Explain(ctx context.Context, best domain.DomainScore, profile domain.Profile) (Explanation, error) {
	strongest := profile.RankedTraits()[:3]
	names := make([]string, len(strongest))
	for i, t := range strongest {
		names[i] = string(t)
	}

	exp := Explanation{
		Domain:          best.Domain,
		Score:           round2(best.Score),
		StrongestTraits: strongest,
		Summary: fmt.Sprintf(
			"Best career match: %s\n\nReason:\nYour strongest traits are %s.\nThese traits strongly align with this career's requirements.\n\nFinal Score: %.2f / 10",
			best.Domain, strings.Join(names, ", "), best.Score,
		),
	}

	if e.llmClient == nil {
		return exp, nil
	}
	nctx, cancel := context.WithTimeout(ctx, narrativeTimeout)
	defer cancel()
	prompt := fmt.Sprintf(
		"The user was matched to the %s domain with score %.2f/10. Their strongest traits are %s. Explain why this is a good fit and what to focus on first.",
		best.Domain, best.Score, strings.Join(names, ", "),
	)
	narrative, err := e.llmClient.Generate(nctx, narrativeSystemPrompt, prompt)
	if err != nil {
		e.logger.Warn("explanation narrative failed", zap.Error(err), zap.String("domain", best.Domain))
		return exp, nil
	}
	exp.Narrative = cleanNarrative(narrative)
	return exp, nil
}

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:text|markdown|md)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
	thinkBlock = regexp.MustCompile("(?is)<think>.*?</think>")
)

// cleanNarrative quita BOM, bloques <think> y fences ``` que algunos modelos agregan.
func cleanNarrative(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	s = thinkBlock.ReplaceAllString(s, "")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
