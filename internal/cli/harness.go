package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/harness"
	"github.com/okian/tcd/pkg/logger"
)

// ErrPropertiesViolated is returned when a harness run finds failures.
var ErrPropertiesViolated = errors.New("harness found property violations")

const harnessHTTPTimeout = 10 * time.Second

func harnessCmd(s *session) *cobra.Command {
	var (
		cases   int
		seed    int64
		workers int
		url     string
	)
	cmd := &cobra.Command{
		Use:   "harness",
		Short: "Run the property checks against generated inputs",
		Long: "Generates adversarial inputs and checks boundedness, monotonicity, payroll\n" +
			"proportionality and gaming detection. Without --url the checks run in process;\n" +
			"with --url they run against a server's /v1/evaluate endpoint.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var target harness.Target
			if url != "" {
				target = harness.NewHTTPTarget(url, &http.Client{Timeout: harnessHTTPTimeout})
			} else {
				ev, err := formula.NewEvaluator(formula.WithCoefficients(s.cfg.Coefficients))
				if err != nil {
					return err
				}
				target = harness.NewLocalTarget(ev)
			}

			r := harness.NewRunner(target,
				harness.WithCases(cases),
				harness.WithSeed(seed),
				harness.WithWorkers(workers),
				harness.WithLogger(logger.Named("harness")),
			)
			rep, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			if s.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "cases %d, checks %d, failures %d, seed %d, %s\n",
					rep.Cases, rep.Checks, len(rep.Failures), rep.Seed, rep.Duration.Round(time.Millisecond))
				for _, f := range rep.Failures {
					fmt.Fprintf(out, "FAIL %s [%s]: %s\n", f.Check, f.Case, f.Detail)
				}
			}
			if !rep.Passed() {
				return fmt.Errorf("%w: %d", ErrPropertiesViolated, len(rep.Failures))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cases, "cases", 500, "number of generated cases")
	cmd.Flags().Int64Var(&seed, "seed", 1, "generator seed")
	cmd.Flags().IntVar(&workers, "workers", 8, "concurrent evaluations")
	cmd.Flags().StringVar(&url, "url", "", "base URL of a running server")
	return cmd
}
