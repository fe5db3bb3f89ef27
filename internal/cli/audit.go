package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tcd/internal/adapters/audit"
)

var errNoAuditStore = errors.New("no audit database configured (audit_sqlite_path)")

func auditCmd(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the newest entries of the SQLite audit trail",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if s.cfg.AuditSQLitePath == "" {
				return errNoAuditStore
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			sink, err := audit.NewSQLiteSink(s.cfg.AuditSQLitePath)
			if err != nil {
				return err
			}
			defer sink.Close()

			entries, err := sink.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if s.jsonOut {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			t := newTable(cmd.OutOrStdout())
			fmt.Fprintln(t, "recorded\toperation\tassessment\tversion\terror")
			for _, e := range entries {
				fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Format(time.RFC3339), e.Operation, e.AssessmentID, e.FormulaVersion, e.Error)
			}
			return t.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}
