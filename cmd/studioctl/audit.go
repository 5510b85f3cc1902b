package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thirdeyevisualz/studio/internal/audit"
)

func newAuditCommand(build runtimeFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the submission audit trail",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var (
		action string
		types  []string
		since  time.Duration
		limit  int
	)
	list := &cobra.Command{
		Use:     "list",
		Short:   "List recent audit events, newest first",
		Args:    cobra.NoArgs,
		Example: "studioctl audit list --action booking_form --type gate.rate_limited --since 24h",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.audit == nil {
				return errors.New("DATABASE_URL is required to read the audit trail")
			}

			filter := audit.Filter{Action: action, Limit: limit}
			for _, t := range types {
				filter.EventTypes = append(filter.EventTypes, audit.EventType(t))
			}
			if since > 0 {
				filter.StartTime = rt.clk.Now().Add(-since)
			}
			events, err := rt.audit.QueryEvents(cmd.Context(), filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEVENT\tACTION\tCLIENT\tDETAILS")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.EventType, e.Action, e.ClientKey, string(e.Details))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&action, "action", "", "filter by action (contact_form, booking_form)")
	list.Flags().StringSliceVar(&types, "type", nil, "filter by event type, repeatable")
	list.Flags().DurationVar(&since, "since", 0, "only events newer than this")
	list.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	cmd.AddCommand(list)
	return cmd
}
