package cmd

import (
	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/cmd/care"
	"github.com/danbi-garden/danbi/cmd/config"
	"github.com/danbi-garden/danbi/cmd/identify"
	"github.com/danbi-garden/danbi/cmd/notify"
	"github.com/danbi-garden/danbi/cmd/plant"
	"github.com/danbi-garden/danbi/cmd/reminders"
	"github.com/danbi-garden/danbi/cmd/search"
	"github.com/danbi-garden/danbi/cmd/seed"
	"github.com/danbi-garden/danbi/cmd/serve"
	"github.com/danbi-garden/danbi/cmd/version"
	"github.com/danbi-garden/danbi/internal/app"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "danbi",
		Short:         "Danbi houseplant watering assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to config file (default: search ., ~/.config/danbi, /etc/danbi)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	// search and version need no configuration
	searchCmd := search.Command()
	versionCmd := version.Command()

	subcommands := []*cobra.Command{
		plant.Command(ctx),
		identify.Command(ctx),
		care.Command(ctx),
		searchCmd,
		reminders.Command(ctx),
		serve.Command(ctx),
		config.Command(ctx),
		seed.Command(ctx),
		notify.Command(ctx),
		versionCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd == searchCmd || cmd == versionCmd {
			return nil
		}
		settings, err := ctx.LoadSettings()
		if err != nil {
			return err
		}
		if debug {
			settings.Debug = true
			settings.Logging.DefaultLevel = "debug"
			if settings.Logging.Console != nil {
				settings.Logging.Console.Level = "debug"
			}
		}
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return ctx.Close()
	}

	return rootCmd
}
