package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"mlfq/internal/logging"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for ticksched.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticksched",
		Short: "Two-level MLFQ scheduling simulator",
		Long: "ticksched drives a deferred-relink or immediate-relink multi-level feedback\n" +
			"queue policy with a tick-driven single-CPU host and reports per-task timings.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			l, err := logging.NewLogger(flagLogLevel, flagLogFormat)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newPoliciesCmd(),
	)
	return root
}
