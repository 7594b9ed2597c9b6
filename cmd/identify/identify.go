package identify

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/identify"
)

// Command returns the identify command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <image>",
		Short: "Identify the species in a plant photo",
		Long: `Identify the species in a plant photo.

The remote identification service is asked first. When it is unavailable
or unsure, the on-device classifier decides whether the photo shows a plant
at all.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}

			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}

			result, err := a.Garden.Identify(cmd.Context(), image)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch result.Outcome {
			case identify.OutcomeIdentified:
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSCIENTIFIC NAME\tFAMILY\tCONFIDENCE")
				for _, c := range result.Candidates {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\n",
						c.DisplayName, c.ScientificName, c.Family, c.Confidence*100)
				}
				_ = tw.Flush()
			case identify.OutcomePlantDetected:
				fmt.Fprintln(out, "🌿 식물로 보이지만 종을 알 수 없어요. 목록에서 직접 선택해 주세요 (danbi search)")
				if result.Evidence != nil {
					fmt.Fprintf(out, "   분류기: %s (%.1f%%)\n", result.Evidence.Label, result.Evidence.Confidence*100)
				}
			default:
				fmt.Fprintln(out, "🤔 식물 사진이 아닌 것 같아요")
			}
			return nil
		},
	}
}
