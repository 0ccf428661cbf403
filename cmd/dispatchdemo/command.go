package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errIncomplete = errors.New("dispatchdemo: not every task ran exactly once")

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatchdemo",
		Short: "Push a batch of tasks through a dispatcher or pool and report what ran",
		Long: `dispatchdemo creates a Dispatcher (modes random and sticky) or a Pool (mode pool),
pushes --tasks tasks while the workers are stopped, starts them, waits until every task
has run, then stops and destroys the workers and prints a summary.

Every flag can also be set with a DISPATCHDEMO_<FLAG> environment variable
(dashes become underscores) or in the YAML file given by --config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			s, err := run(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			s.Print(cmd.OutOrStdout())
			if !s.OK() {
				return errIncomplete
			}
			return nil
		},
	}
	registerFlags(cmd.Flags())
	return cmd
}
