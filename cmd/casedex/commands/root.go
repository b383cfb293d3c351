// Package commands defines all Cobra CLI commands for the casedex binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/casedex/internal/config"
)

// envName holds the --env flag value selecting the config file.
var envName string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "casedex",
		Short: "Case-scoped knowledge engine for visa petition letters",
		Long: `casedex ingests case documents into a per-case knowledge graph,
retrieves evidence scoped to a single case, and drafts petition letter
sections from that evidence.

Configuration is read from config/{env}.yaml, selected by --env or the
ENV environment variable (default: local). Values support ${VAR} and
${VAR:-default} expansion.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envName, "env", config.GetEnv(),
		"Environment name selecting config/{env}.yaml")

	root.AddCommand(
		NewBuildCmd(),
		NewQueryCmd(),
		NewGenerateCmd(),
		NewLetterCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
