package search

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/species"
)

// Command returns the search command. It needs no configuration.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search the houseplant selection list",
		Long: `Filter the curated houseplant list by a Korean or English name.
Without a query the whole list is printed.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			matches := species.Search(strings.Join(args, " "))
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "일치하는 식물이 없습니다")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, p := range matches {
				fmt.Fprintf(tw, "%s\t%s\n", p.Korean, p.English)
			}
			return tw.Flush()
		},
	}
}
