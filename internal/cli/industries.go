package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func industriesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "industries",
		Short: "List the industry profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles := s.svc.Industries()
			if s.jsonOut {
				return writeJSON(cmd.OutOrStdout(), profiles)
			}
			t := newTable(cmd.OutOrStdout())
			fmt.Fprintln(t, "name\tphi\trho\tnaics")
			fallback := s.cfg.DefaultIndustry
			for _, p := range profiles {
				name := p.Name
				if strings.EqualFold(name, fallback) {
					name += " *"
				}
				fmt.Fprintf(t, "%s\t%.2f\t%.2f\t%s\n", name, p.Phi, p.Rho, strings.Join(p.NAICS, ","))
			}
			return t.Flush()
		},
	}
}
