package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
)

// Command returns the seed command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the sample plants",
		Long: `Add the built-in sample plants to an empty garden. Samples bypass the
free tier limit and get reminders like any other plant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			added, err := a.Garden.SeedSamples(cmd.Context())
			if err != nil {
				return err
			}
			if len(added) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "이미 식물이 있어서 샘플을 추가하지 않았어요")
				return nil
			}
			for _, p := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "🌱 %s (%s) %d일마다\n", p.Name, p.Species, p.IntervalDays)
			}
			return nil
		},
	}
}
