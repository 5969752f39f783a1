package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"mlfq/internal/kernel"
	"mlfq/internal/sched"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		policy     string
		timeSlice  int
		maxTicks   int64
		tickMS     int
		csvPath    string
		validate   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload under a scheduling policy",
		Long: "Run loads the workload from --config (static tasks and/or a generator),\n" +
			"simulates it tick by tick and prints a per-task report to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := kernel.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("policy") {
				cfg.Policy = policy
			}
			if flags.Changed("time-slice") {
				cfg.TimeSlice = timeSlice
			}
			if flags.Changed("max-ticks") {
				cfg.MaxTicks = maxTicks
			}
			if flags.Changed("tick-ms") {
				cfg.TickMS = tickMS
			}
			if flags.Changed("validate") {
				cfg.Debug = validate
			}

			specs, err := cfg.Workload()
			if err != nil {
				return fmt.Errorf("build workload: %w", err)
			}
			if len(specs) == 0 {
				return fmt.Errorf("no tasks: add tasks or a generate section to %q", configPath)
			}

			p, err := sched.New(cfg.Policy, cfg.TimeSlice)
			if err != nil {
				return err
			}
			k := kernel.New(cfg, p, logger)
			if err := k.AddAll(specs); err != nil {
				return fmt.Errorf("admit workload: %w", err)
			}
			if csvPath != "" {
				if err := k.EnableCSVLogging(csvPath); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger.Info("starting run", "tasks", len(specs), "time_slice", cfg.TimeSlice, "tick_ms", cfg.TickMS)
			sum, err := k.Run(ctx)
			if rerr := sum.WriteReport(cmd.OutOrStdout()); rerr != nil {
				return rerr
			}
			if errors.Is(err, context.Canceled) {
				logger.Warn("run interrupted", "tick", sum.Ticks)
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yml", "Config and workload file (YAML)")
	cmd.Flags().StringVarP(&policy, "policy", "p", sched.PolicyDeferred, "Scheduling policy (deferred, immediate)")
	cmd.Flags().IntVar(&timeSlice, "time-slice", sched.DefaultTimeSlice, "Ticks granted per admission to a time-sliced level")
	cmd.Flags().Int64Var(&maxTicks, "max-ticks", 10000, "Stop after this many ticks")
	cmd.Flags().IntVar(&tickMS, "tick-ms", 0, "Milliseconds per tick (0 runs as fast as possible)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write an event trace to this CSV file")
	cmd.Flags().BoolVar(&validate, "validate", false, "Check run queue invariants after every tick")
	return cmd
}
