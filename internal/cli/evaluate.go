package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func evaluateCmd(s *session) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute the cost of dysfunction for one team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req, err := in.request()
			if err != nil {
				return err
			}
			ev, err := s.svc.Evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if s.jsonOut {
				return writeJSON(cmd.OutOrStdout(), ev)
			}
			return printEvaluation(cmd.OutOrStdout(), ev)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "assessment YAML file, - for stdin")
	return cmd
}

func printEvaluation(w io.Writer, ev service.Evaluation) error { //nolint:gocritic // hugeParam
	t := newTable(w)
	industry := ev.Industry.Name
	if !ev.IndustryMatched {
		industry += " (fallback)"
	}
	fmt.Fprintf(t, "industry\t%s\n", industry)
	fmt.Fprintf(t, "productivity\t%s\n", money(ev.Components.Productivity))
	fmt.Fprintf(t, "rework\t%s\n", money(ev.Components.Rework))
	fmt.Fprintf(t, "turnover\t%s\n", money(ev.Components.Turnover))
	fmt.Fprintf(t, "opportunity\t%s\n", money(ev.Components.Opportunity))
	fmt.Fprintf(t, "overhead\t%s\n", money(ev.Components.Overhead))
	fmt.Fprintf(t, "disengagement\t%s\n", money(ev.Components.Disengagement))
	fmt.Fprintf(t, "subtotal\t%s\n", money(ev.Subtotal))
	fmt.Fprintf(t, "team size factor\t%.4f\n", ev.Factors.TeamSize)
	fmt.Fprintf(t, "gaming penalty\t%.2f\n", ev.Factors.Gaming)
	fmt.Fprintf(t, "ceiling\t%s\n", money(ev.Ceiling))
	total := money(ev.Total)
	if ev.Capped {
		total += " (capped)"
	}
	fmt.Fprintf(t, "total\t%s\n", total)
	fmt.Fprintf(t, "engagement\t%.2f %s\n", ev.Engagement.Score, ev.Engagement.Category)
	for _, c := range ev.Corrections {
		fmt.Fprintf(t, "corrected\t%s %g -> %g\n", c.Field, c.Given, c.Applied)
	}
	return t.Flush()
}

func gamingCmd(s *session) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "gaming",
		Short: "Check driver scores for implausible divergence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			d, err := in.drivers()
			if err != nil {
				return err
			}
			report, err := s.svc.DetectGaming(cmd.Context(), d)
			if err != nil {
				return err
			}
			if s.jsonOut {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return printGaming(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "assessment YAML file, - for stdin")
	return cmd
}

func printGaming(w io.Writer, r formula.GamingReport) error {
	t := newTable(w)
	fmt.Fprintln(t, "pair\tdifference\ttolerance\texcess")
	for _, p := range r.Pairs {
		fmt.Fprintf(t, "%s/%s\t%.2f\t%.2f\t%.2f\n", p.First, p.Second, p.Difference, p.Tolerance, p.Excess)
	}
	fmt.Fprintf(t, "anomaly score\t%.2f\n", r.AnomalyScore)
	fmt.Fprintf(t, "penalty\t%.2f\n", r.Penalty)
	fmt.Fprintf(t, "flagged\t%t\n", r.Flagged)
	return t.Flush()
}

func confidenceCmd(s *session) *cobra.Command {
	var (
		path    string
		samples int
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "confidence",
		Short: "Estimate a 95% interval by perturbing the coefficients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req, err := in.request()
			if err != nil {
				return err
			}
			var seedp *int64
			if cmd.Flags().Changed("seed") {
				seedp = &seed
			}
			iv, err := s.svc.EstimateConfidence(cmd.Context(), req, samples, seedp)
			if err != nil {
				return err
			}
			if s.jsonOut {
				return writeJSON(cmd.OutOrStdout(), iv)
			}
			return printInterval(cmd.OutOrStdout(), iv)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "assessment YAML file, - for stdin")
	cmd.Flags().IntVar(&samples, "samples", 0, "Monte Carlo trials (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default from config)")
	return cmd
}

func printInterval(w io.Writer, iv confidence.Interval) error {
	t := newTable(w)
	fmt.Fprintf(t, "point\t%s\n", money(iv.Point))
	fmt.Fprintf(t, "low\t%s\n", money(iv.Low))
	fmt.Fprintf(t, "high\t%s\n", money(iv.High))
	fmt.Fprintf(t, "mean\t%s\n", money(iv.Mean))
	fmt.Fprintf(t, "level\t%.0f%%\n", iv.Level*100)
	fmt.Fprintf(t, "samples\t%d\n", iv.Samples)
	fmt.Fprintf(t, "seed\t%d\n", iv.Seed)
	return t.Flush()
}
