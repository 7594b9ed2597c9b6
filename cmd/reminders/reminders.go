package reminders

import (
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/reminder"
)

// Command returns the reminders command
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List or toggle watering reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := a.Garden.PendingReminders(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "예약된 알림이 없습니다")
				return nil
			}

			slices.SortFunc(pending, func(x, y reminder.Reminder) int {
				return x.TriggerAt.Compare(y.TriggerAt)
			})
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tMESSAGE")
			for _, r := range pending {
				fmt.Fprintf(tw, "%s\t%s\n", r.TriggerAt.Format(time.DateTime), r.Body)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(toggleCommand(ctx, "on", true), toggleCommand(ctx, "off", false))
	return cmd
}

func toggleCommand(ctx *app.Context, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn reminders %s", use),
		Long: `Turn reminders on (rescheduling every plant) or off (cancelling every
pending reminder). The choice is saved in the database and overrides
reminder.enabled on later runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Garden.SetNotificationsEnabled(cmd.Context(), enabled); err != nil {
				return err
			}
			pending, err := a.Garden.PendingReminders(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "알림 %s, 예약 %d건\n", use, len(pending))
			return nil
		},
	}
}
