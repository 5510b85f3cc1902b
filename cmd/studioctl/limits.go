package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLimitsCommand(build runtimeFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Inspect or clear submission rate limits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	var client string
	cmd.PersistentFlags().StringVar(&client, "client", "", "device id or IP the limit is scoped to")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "show <action>",
			Short:   "Show recent submissions and whether the next one is allowed",
			Args:    cobra.ExactArgs(1),
			Example: "studioctl limits show booking_form --client 203.0.113.9",
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer rt.close()

				action := args[0]
				hist, err := rt.limiter.History(cmd.Context(), action, client)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "key: %s\n", rt.limiter.Key(action, client))
				fmt.Fprintf(out, "submissions in window: %d/%d\n", len(hist), rt.limiter.Config().MaxPerHour)
				for _, t := range hist {
					fmt.Fprintf(out, "  %s\n", t.In(rt.clk.Now().Location()).Format(time.RFC3339))
				}
				d := rt.limiter.Check(cmd.Context(), action, client)
				if d.Allowed {
					fmt.Fprintln(out, "next submission: allowed")
					return nil
				}
				fmt.Fprintf(out, "next submission: blocked (%s)\n", d.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:     "clear <action>",
			Short:   "Forget the recorded submissions for an action",
			Args:    cobra.ExactArgs(1),
			Example: "studioctl limits clear contact_form",
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer rt.close()

				if err := rt.limiter.Clear(cmd.Context(), args[0], client); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", rt.limiter.Key(args[0], client))
				return nil
			},
		},
	)
	return cmd
}
