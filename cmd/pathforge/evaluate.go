package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pathforge/internal/domain"
	"pathforge/internal/service"
)

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var (
		domainName string
		traits     map[string]string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Rank domains and evaluate fit for a given trait profile",
		Example: `  pathforge evaluate --profile analytical=9,creative=6,focus=9 --domain research
  pathforge evaluate --profile social=8,empathy=9`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := parseProfile(traits)
			if err != nil {
				return err
			}
			engine, logger, err := root.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			defer logger.Sync()

			out := struct {
				Ranking []domain.DomainScore `json:"ranking"`
				Fit     *service.FitResult   `json:"fit,omitempty"`
				All     []service.FitResult  `json:"fit_all,omitempty"`
			}{Ranking: engine.Service.Rank(profile)}
			if domainName != "" {
				fit := engine.Service.EvaluateFit(domainName, profile)
				out.Fit = &fit
			} else {
				out.All = service.NewFitEvaluator(engine.Catalog.FitWeights).EvaluateAll(profile.Sanitize())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "domain to evaluate (all fit domains when empty)")
	cmd.Flags().StringToStringVarP(&traits, "profile", "p", nil, "trait scores as trait=value pairs")
	return cmd
}

// parseProfile valida nombres de rasgo y valores; rasgos ausentes quedan en 0.
func parseProfile(raw map[string]string) (domain.Profile, error) {
	p := domain.Profile{}
	for k, v := range raw {
		tr, ok := domain.ParseTrait(k)
		if !ok {
			return nil, fmt.Errorf("%w: %q", service.ErrUnknownTrait, k)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > domain.ProfileMax {
			return nil, fmt.Errorf("%w: %s=%s", service.ErrInvalidScore, k, v)
		}
		p[tr] = f
	}
	return p, nil
}
