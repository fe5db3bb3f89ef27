package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/tcd/internal/app"
)

func prioritiesCmd(s *session) *cobra.Command {
	var (
		path string
		top  int
	)
	cmd := &cobra.Command{
		Use:   "priorities",
		Short: "Rank the drivers by impact and business value of fixing them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			d, err := in.drivers()
			if err != nil {
				return err
			}
			rep, err := s.svc.Priorities(cmd.Context(), in.Industry, d)
			if err != nil {
				return err
			}
			if top > 0 {
				rep.Drivers = rep.Top(top)
			}
			if s.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			return printPriorities(cmd.OutOrStdout(), &rep)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "assessment YAML file, - for stdin")
	cmd.Flags().IntVar(&top, "top", 0, "show only the first n drivers")
	return cmd
}

func printPriorities(w io.Writer, rep *service.PriorityReport) error {
	t := newTable(w)
	fmt.Fprintf(t, "weights\t%s\n", rep.WeightSet)
	fmt.Fprintln(t, "driver\tscore\tteam impact\tbusiness value\tquadrant")
	for _, d := range rep.Drivers {
		fmt.Fprintf(t, "%s\t%.2f\t%.2f\t%.2f\t%s\n", d.Driver, d.Score, d.TeamImpact, d.BusinessValue, d.Quadrant)
	}
	return t.Flush()
}
