package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/danbi-garden/danbi/internal/buildinfo"
)

// Command returns the version command
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "danbi %s (built %s, %s %s/%s)\n",
				info.GetVersion(), info.GetBuildDate(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
