package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thirdeyevisualz/studio/internal/availability"
)

func newCalendarCommand(build runtimeFactory) *cobra.Command {
	var next, prev int
	cmd := &cobra.Command{
		Use:     "calendar",
		Short:   "Render the availability calendar for a month",
		Args:    cobra.NoArgs,
		Example: "studioctl calendar --next 1",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			session, err := availability.NewSessions(rt.source, rt.clk, 0, nil).Open(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			grid := session.Grid()
			for i := 0; i < next; i++ {
				grid, _ = session.Navigate(availability.Next)
			}
			for i := 0; i < prev; i++ {
				grid, _ = session.Navigate(availability.Prev)
			}
			renderMonth(cmd.OutOrStdout(), grid)
			return nil
		},
	}
	cmd.Flags().IntVar(&next, "next", 0, "months to move forward")
	cmd.Flags().IntVar(&prev, "prev", 0, "months to move back")
	return cmd
}

func newSlotsCommand(build runtimeFactory) *cobra.Command {
	return &cobra.Command{
		Use:     "slots <date>",
		Short:   "List time slots for a date",
		Args:    cobra.ExactArgs(1),
		Example: "studioctl slots 2024-03-18",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := strings.TrimSpace(args[0])
			if !availability.IsISODate(date) {
				return fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
			}
			rt, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			snap, err := rt.source.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, availability.DisplayDate(date))
			for _, s := range availability.ListSlots(date, snap) {
				mark := "open"
				if !s.Bookable {
					mark = "booked"
				}
				fmt.Fprintf(out, "  %-15s %s\n", s.Label, mark)
			}
			return nil
		},
	}
}

// renderMonth prints a Sunday-first grid. Booked days show as xx, past days as
// dots, today in brackets.
func renderMonth(w io.Writer, g availability.MonthGrid) {
	fmt.Fprintf(w, "%s %d\n", g.MonthName, g.Year)
	fmt.Fprintln(w, " Su   Mo   Tu   We   Th   Fr   Sa")
	col := 0
	for ; col < g.LeadingBlanks; col++ {
		fmt.Fprint(w, "     ")
	}
	for _, c := range g.Days {
		var cell string
		switch c.Status {
		case availability.StatusBooked:
			cell = " xx "
		case availability.StatusPast:
			cell = " .. "
		case availability.StatusToday:
			cell = fmt.Sprintf("[%2d]", c.Day)
		default:
			cell = fmt.Sprintf(" %2d ", c.Day)
		}
		fmt.Fprint(w, cell+" ")
		col++
		if col%7 == 0 {
			fmt.Fprintln(w)
		}
	}
	if col%7 != 0 {
		fmt.Fprintln(w)
	}
}
