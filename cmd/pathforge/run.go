package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pathforge/internal/domain"
	"pathforge/internal/service"
)

type prefFlags struct {
	hours    float64
	location string
	skills   []string
	style    string
	budget   string
}

func (p *prefFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.hours, "hours", 0, "hours per week available for learning")
	cmd.Flags().StringVar(&p.location, "location", "", "location code for market data")
	cmd.Flags().StringSliceVar(&p.skills, "skills", nil, "current skills, comma separated")
	cmd.Flags().StringVar(&p.style, "style", "", "learning style: visual, hands_on, reading or any")
	cmd.Flags().StringVar(&p.budget, "budget", "", "budget preference: free, low, any")
}

func (p *prefFlags) preferences() domain.LearnerPreferences {
	return domain.LearnerPreferences{
		HoursPerWeek:     p.hours,
		Location:         p.location,
		CurrentSkills:    p.skills,
		LearningStyle:    p.style,
		BudgetPreference: p.budget,
	}
}

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		prefs  prefFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take the assessment interactively, answering each question from 0 to 10",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, logger, err := root.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			defer logger.Sync()

			step, err := interactive(cmd, engine.Service, prefs.preferences())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(step)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), service.ReportSummary(step))
			return nil
		},
	}
	prefs.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

// interactive hace las preguntas por la salida del comando y lee respuestas de su entrada.
func interactive(cmd *cobra.Command, svc *service.AssessmentService, prefs domain.LearnerPreferences) (*service.Step, error) {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	view, err := svc.Start(cmd.Context(), prefs)
	if err != nil {
		return nil, err
	}
	for !view.Step.Final() {
		if view.Step.Note != "" {
			fmt.Fprintf(out, "(%s)\n", view.Step.Note)
		}
		fmt.Fprintf(out, "[%d] %s\n", view.Answers+1, view.Step.Data.Question)
		score, err := readScore(reader, out)
		if err != nil {
			return nil, err
		}
		if view, err = svc.Answer(cmd.Context(), view.ID, score); err != nil {
			return nil, err
		}
	}
	return view.Step, nil
}

var errInputClosed = errors.New("input closed before the assessment finished")

// readScore repite la pregunta hasta recibir un numero en [0,10].
func readScore(r *bufio.Reader, out io.Writer) (float64, error) {
	for {
		fmt.Fprint(out, "score (0-10)> ")
		line, err := r.ReadString('\n')
		if v, ok := parseScore(line); ok {
			return v, nil
		}
		if errors.Is(err, io.EOF) {
			return 0, errInputClosed
		}
		if err != nil {
			return 0, err
		}
		fmt.Fprintln(out, "please enter a number between 0 and 10")
	}
}

func parseScore(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > domain.ProfileMax {
		return 0, false
	}
	return v, true
}
