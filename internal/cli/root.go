// Package cli implements tcdctl, a command line front end for the TCD
// operations and the validation harness.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/bootstrap"
	"github.com/okian/tcd/internal/config"
	"github.com/okian/tcd/pkg/logger"
)

// Execute runs the root command.
func Execute() error {
	return NewRoot().Execute()
}

// session holds what every subcommand shares once the config is loaded.
type session struct {
	configPath string
	jsonOut    bool

	cfg *config.Config
	svc *service.Service
}

// NewRoot builds the tcdctl command tree.
func NewRoot() *cobra.Command {
	s := &session{}
	root := &cobra.Command{
		Use:           "tcdctl",
		Short:         "Estimate the cost of team dysfunction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return s.close(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&s.configPath, "config", "c", "", "YAML config file (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().BoolVar(&s.jsonOut, "json", false, "print JSON instead of a table")
	root.AddCommand(
		evaluateCmd(s),
		gamingCmd(s),
		confidenceCmd(s),
		prioritiesCmd(s),
		industriesCmd(s),
		auditCmd(s),
		harnessCmd(s),
	)
	return root
}

// open loads the configuration and builds the service. The audit log
// sink is turned off so stdout stays clean; a configured SQLite trail
// still records every evaluation.
func (s *session) open(cmd *cobra.Command) error {
	if s.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, s.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	cfg.AuditLog = false

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	svc, err := bootstrap.NewService(cfg, logger.Get())
	if err != nil {
		return err
	}
	if err := svc.Start(cmd.Context()); err != nil {
		return err
	}
	s.cfg, s.svc = cfg, svc
	return nil
}

func (s *session) close(cmd *cobra.Command) error {
	if s.svc == nil {
		return nil
	}
	return s.svc.Stop(cmd.Context())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
