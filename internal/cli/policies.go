package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mlfq/internal/sched"
)

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the available scheduling policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLEVELS\tEMPTY QUEUE")
			for _, name := range sched.Names() {
				p, err := sched.New(name, sched.DefaultTimeSlice)
				if err != nil {
					return err
				}
				fallback := "idle"
				if name == sched.PolicyDeferred {
					fallback = "previous task"
				}
				fmt.Fprintf(tw, "%s\t%v\t%s\n", p.Name(), p.Levels(), fallback)
			}
			return tw.Flush()
		},
	}
}
