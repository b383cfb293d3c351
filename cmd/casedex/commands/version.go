package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/casedex/internal/version"
)

// NewVersionCmd constructs the `casedex version` subcommand. Values are
// injected at build time via -ldflags and fall back to "dev"/"unknown".
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the casedex version, git commit, and build date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "casedex %s (commit: %s, built: %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
