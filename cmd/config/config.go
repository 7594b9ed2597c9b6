package config

import (
	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/conf"
)

// Command returns the config command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.LoadSettings()
			if err != nil {
				return err
			}
			out, err := conf.Dump(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
