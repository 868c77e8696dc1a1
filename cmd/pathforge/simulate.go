package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pathforge/internal/simulate"
)

func newSimulateCmd(root *rootOptions) *cobra.Command {
	var (
		sessions    int
		concurrency int
		seed        uint64
		asJSON      bool
		prefs       prefFlags
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run synthetic assessment sessions concurrently and summarize the outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sessions <= 0 {
				return fmt.Errorf("--sessions must be positive, got %d", sessions)
			}
			engine, logger, err := root.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			defer logger.Sync()

			sum, err := simulate.NewRunner(engine.Service, concurrency, logger).Run(cmd.Context(), sessions, seed, prefs.preferences())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printSummary(cmd, sum)
			return nil
		},
	}
	prefs.register(cmd)
	cmd.Flags().IntVarP(&sessions, "sessions", "n", 100, "number of sessions to simulate")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 8, "sessions running at the same time")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for the synthetic profiles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print every result as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, sum simulate.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sessions: %d  avg questions: %.2f  max questions: %d\n\n", sum.Sessions, sum.AvgQuestions, sum.MaxQuestions)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tSESSIONS")
	for _, d := range sum.TopDomains() {
		fmt.Fprintf(tw, "%s\t%d\n", d, sum.ByDomain[d])
	}
	tw.Flush()

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTCOME\tSESSIONS")
	for note, n := range sum.ByNote {
		fmt.Fprintf(tw, "%s\t%d\n", note, n)
	}
	tw.Flush()
}
