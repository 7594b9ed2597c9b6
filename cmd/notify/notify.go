package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/reminder"
)

// Command returns a cobra command that sends a test reminder through the
// configured delivery channel
func Command(ctx *app.Context) *cobra.Command {
	var (
		title   string
		message string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test watering reminder",
		Long: `Send a test reminder immediately through the configured delivery.

With notification URLs configured the reminder is pushed through every
service; otherwise it is written to the log.

Examples:
  danbi notify
  danbi notify --message "몬스테라에게 단비를 내려주세요"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}

			r := reminder.Reminder{
				Key:       "test",
				TriggerAt: a.Garden.Now(),
				Title:     title,
				Body:      message,
				Badge:     reminder.Badge,
			}

			sendCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(sendCtx, timeout)
				defer cancel()
			}
			if err := a.Sender.Send(sendCtx, r); err != nil {
				return fmt.Errorf("failed to send test reminder: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reminder sent via %s\n", a.Sender.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", reminder.Title, "Reminder title")
	cmd.Flags().StringVar(&message, "message", "테스트 알림입니다", "Reminder body")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Delivery timeout (0 to disable)")

	return cmd
}
