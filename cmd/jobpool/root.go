package main

import (
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/jobpool/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobpool",
		Short: "Run synthetic workloads through a bounded job pool",
		Long: `jobpool submits synthetic jobs to a pool with a fixed number of
execution slots and a bounded waiting queue, then reports how every job
ended: completed, failed, timed out or rejected at admission.

Settings come from flags, JOBPOOL_* environment variables or a YAML file
passed with --config, in that order of precedence.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("log-format", logging.FormatText, "log format: text or json")
	pf.Bool("metrics", false, "print Prometheus metrics after the run")

	root.AddCommand(newSimulateCmd(), newBatchCmd())
	return root
}
