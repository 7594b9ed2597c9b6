package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/api"
	"github.com/danbi-garden/danbi/internal/app"
	"github.com/danbi-garden/danbi/internal/logger"
)

// Command returns the serve command
func Command(ctx *app.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted. Reminders fire while the server
runs; pending reminders are restored on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App(cmd.Context())
			if err != nil {
				return err
			}

			cfg := api.ConfigFromSettings(a.Settings)
			if listen != "" {
				cfg.Listen = listen
			}

			server, err := api.New(cfg, a.Garden,
				api.WithLogger(a.Module("http")),
				api.WithMetrics(a.Metrics))
			if err != nil {
				return fmt.Errorf("failed to create HTTP server: %w", err)
			}

			// starting the server counts as bringing the app to the foreground
			if shown, err := a.Garden.Foreground(cmd.Context()); err != nil {
				a.Log.Warn("failed to refresh reminders", logger.Error(err))
			} else if shown {
				a.Log.Debug("app open ad shown")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", cfg.Listen)
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides webserver.listen)")
	return cmd
}
