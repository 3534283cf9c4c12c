package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
}

// path returns --config when given, otherwise getConfigPath().
func (o *rootOptions) path() string {
	if o.configPath != "" {
		return o.configPath
	}
	return getConfigPath()
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand serves, so existing deployments keep working.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	serve := func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), opts.path())
	}

	root := &cobra.Command{
		Use:   "graywire",
		Short: "Declarative service configuration resolver",
		Long: `graywire loads layered YAML service definitions, resolves includes,
inheritance, aliases, and references, and builds the services on demand.

Examples:
  graywire                       Serve using configs/config.yaml
  graywire services              List every configured service
  graywire show db --set port=6543
                                 Print the resolved descriptor of db
  graywire check --all           Build every service once and exit`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default is $GRAYWIRE_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Load services, preload, and serve the inspection API until interrupted",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newServicesCmd(opts),
		newShowCmd(opts),
		newCheckCmd(opts),
		newVersionCmd(),
	)
	return root
}

// versionString returns a formatted version string for display.
func versionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "graywire "+versionString())
		},
	}
}
