package care

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/careinfo"
	"github.com/danbi-garden/danbi/internal/garden"
)

// Command returns the care command
func Command(ctx *app.Context) *cobra.Command {
	var fallback string

	cmd := &cobra.Command{
		Use:   "care <species>",
		Short: "Show care information for a species",
		Long: `Look up general care requirements for a species in the care directory.

Korean names from the manual-selection list are translated before the
lookup. --fallback is tried once when the first name finds nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}

			form := a.Garden.Prefill(cmd.Context(), garden.NewForm(), args[0], fallback)
			if form.Care == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: 관리 정보를 찾지 못했어요\n", args[0])
				return nil
			}
			printProfile(cmd, form.Care, form.IntervalDays)
			return nil
		},
	}

	cmd.Flags().StringVar(&fallback, "fallback", "", "Alternative name to try when nothing is found")
	return cmd
}

func printProfile(cmd *cobra.Command, p *careinfo.Profile, interval int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", p.CommonName, p.ScientificName)
	fmt.Fprintf(out, "  watering:    %s\n", p.Watering)
	if p.Benchmark != "" {
		fmt.Fprintf(out, "  benchmark:   %s\n", p.Benchmark)
	}
	if p.RecommendedDays != nil {
		fmt.Fprintf(out, "  interval:    %d days\n", interval)
	}
	if len(p.Sunlight) > 0 {
		fmt.Fprintf(out, "  sunlight:    %s\n", strings.Join(p.Sunlight, ", "))
	}
	if p.Cycle != "" {
		fmt.Fprintf(out, "  cycle:       %s\n", p.Cycle)
	}
	if p.GrowthRate != "" {
		fmt.Fprintf(out, "  growth rate: %s\n", p.GrowthRate)
	}
	if p.Maintenance != "" {
		fmt.Fprintf(out, "  maintenance: %s\n", p.Maintenance)
	}
	fmt.Fprintf(out, "  toxic:       humans=%t pets=%t\n", p.PoisonousToHumans, p.PoisonousToPets)
	fmt.Fprintf(out, "\n%s\n", p.Summary)
}
