// Command studioctl inspects the studio's calendar, rate limits and audit trail.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCommand(newRuntime).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(build runtimeFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "studioctl",
		Short:         "Operate the 3rdEye Visualz booking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newCalendarCommand(build),
		newSlotsCommand(build),
		newLimitsCommand(build),
		newAuditCommand(build),
	)
	return cmd
}
