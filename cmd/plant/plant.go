// Package plant implements the plant registry subcommands.
package plant

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/plant"
)

// dateLayout is the accepted --last-watered format.
const dateLayout = "2006-01-02"

// Command returns the plant command group.
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plant",
		Short: "Manage registered plants",
	}

	cmd.AddCommand(
		addCommand(ctx),
		listCommand(ctx),
		waterCommand(ctx),
		editCommand(ctx),
		deleteCommand(ctx),
		reorderCommand(ctx),
	)
	return cmd
}

func addCommand(ctx *app.Context) *cobra.Command {
	var (
		species     string
		lastWatered string
		interval    int
		note        string
		imagePath   string
		noPrefill   bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a plant",
		Long: `Register a plant and schedule its watering reminder.

When a species is given and the care directory is configured, the
recommended watering interval and a care summary are filled in unless
--interval or --note are set.

Examples:
  danbi plant add "나의 몬스테라" --species "Monstera deliciosa"
  danbi plant add 스투키 --last-watered 2026-05-01 --interval 14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("interval") {
				if err := plant.ValidateInterval(interval); err != nil {
					return err
				}
			}

			draft := garden.Draft{
				Name:         args[0],
				Species:      species,
				IntervalDays: interval,
				Note:         note,
			}
			if lastWatered != "" {
				loc, err := a.Settings.Location()
				if err != nil {
					return err
				}
				t, err := time.ParseInLocation(dateLayout, lastWatered, loc)
				if err != nil {
					return fmt.Errorf("invalid --last-watered %q, expected YYYY-MM-DD: %w", lastWatered, err)
				}
				draft.LastWatered = t
			}
			if imagePath != "" {
				if draft.Image, err = os.ReadFile(imagePath); err != nil {
					return fmt.Errorf("failed to read photo: %w", err)
				}
			}

			if !noPrefill && species != "" {
				form := garden.NewForm()
				if interval > 0 {
					form.IntervalDays = interval
				}
				form.Note = note
				form = a.Garden.Prefill(cmd.Context(), form, species, "")
				draft.IntervalDays = form.IntervalDays
				draft.Note = form.Note
			}

			rec, err := a.Garden.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🌱 %s 등록 완료 (id %s)\n", rec.Name, shortID(rec))
			fmt.Fprintf(out, "   물주기 %d일마다, 다음 알림 %s\n",
				rec.IntervalDays, a.Garden.NextReminder(rec).Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&species, "species", "s", "", "Species name")
	cmd.Flags().StringVar(&lastWatered, "last-watered", "", "Last watering date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "Watering interval in days (default 7)")
	cmd.Flags().StringVar(&note, "note", "", "Free text note")
	cmd.Flags().StringVar(&imagePath, "image", "", "Path to a photo of the plant")
	cmd.Flags().BoolVar(&noPrefill, "no-prefill", false, "Skip the care directory lookup")
	return cmd
}

func listCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List plants in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			plants, err := a.Garden.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(plants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "등록된 식물이 없습니다")
				return nil
			}
			due, err := a.Garden.NeedingWater(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", garden.SummaryMessage(due))
			return printPlants(cmd.OutOrStdout(), a.Garden, plants)
		},
	}
}

func printPlants(w io.Writer, svc *garden.Service, plants []*plant.Record) error {
	now := svc.Now()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIES\tLAST WATERED\tEVERY\tSTATUS\tNEXT REMINDER")
	for _, p := range plants {
		status := fmt.Sprintf("%d일 남음", p.DaysUntilDue(now))
		if p.NeedsWater(now) {
			status = "💧 물 주기"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d일\t%s\t%s\n",
			shortID(p),
			p.Name,
			p.Species,
			p.LastWatered.In(now.Location()).Format(dateLayout),
			p.IntervalDays,
			status,
			svc.NextReminder(p).Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func waterCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "water <plant>...",
		Short: "Record a watering now",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			for _, arg := range args {
				rec, err := resolve(cmd.Context(), a.Garden, arg)
				if err != nil {
					return err
				}
				rec, err = a.Garden.Water(cmd.Context(), rec.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "💧 %s 물 주기 완료, 다음 알림 %s\n",
					rec.Name, a.Garden.NextReminder(rec).Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func editCommand(ctx *app.Context) *cobra.Command {
	var (
		name        string
		species     string
		lastWatered string
		interval    int
		note        string
		imagePath   string
	)

	cmd := &cobra.Command{
		Use:   "edit <plant>",
		Short: "Change a plant's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := resolve(cmd.Context(), a.Garden, args[0])
			if err != nil {
				return err
			}

			var patch garden.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("species") {
				patch.Species = &species
			}
			if flags.Changed("interval") {
				patch.IntervalDays = &interval
			}
			if flags.Changed("note") {
				patch.Note = &note
			}
			if flags.Changed("last-watered") {
				loc, err := a.Settings.Location()
				if err != nil {
					return err
				}
				t, err := time.ParseInLocation(dateLayout, lastWatered, loc)
				if err != nil {
					return fmt.Errorf("invalid --last-watered %q, expected YYYY-MM-DD: %w", lastWatered, err)
				}
				patch.LastWatered = &t
			}
			if flags.Changed("image") {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("failed to read photo: %w", err)
				}
				patch.Image = &data
			}

			rec, err = a.Garden.Edit(cmd.Context(), rec.ID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✏️  %s 수정 완료\n", rec.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&species, "species", "s", "", "Species name")
	cmd.Flags().StringVar(&lastWatered, "last-watered", "", "Last watering date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "Watering interval in days")
	cmd.Flags().StringVar(&note, "note", "", "Free text note")
	cmd.Flags().StringVar(&imagePath, "image", "", "Path to a photo of the plant")
	return cmd
}

func deleteCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <plant>...",
		Aliases: []string{"rm"},
		Short:   "Remove plants and their reminders",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			for _, arg := range args {
				rec, err := resolve(cmd.Context(), a.Garden, arg)
				if err != nil {
					return err
				}
				if err := a.Garden.Delete(cmd.Context(), rec.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑  %s 삭제 완료\n", rec.Name)
			}
			return nil
		},
	}
}

func reorderCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <plant>...",
		Short: "Set the display order; unlisted plants follow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := resolveAll(cmd.Context(), a.Garden, args)
			if err != nil {
				return err
			}
			if err := a.Garden.Reorder(cmd.Context(), ids); err != nil {
				return err
			}
			plants, err := a.Garden.List(cmd.Context())
			if err != nil {
				return err
			}
			return printPlants(cmd.OutOrStdout(), a.Garden, plants)
		},
	}
}

func shortID(p *plant.Record) string {
	return strings.SplitN(p.ID.String(), "-", 2)[0]
}
