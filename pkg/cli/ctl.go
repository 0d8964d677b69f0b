package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const ctlExamples = `  # provision from a file, printing the create commands without running them
  aksprovctl provision -f cluster.yaml --dry-run

  # show which configured resources exist
  aksprovctl status -f cluster.yaml

  # peer two virtual networks in both directions
  aksprovctl peer rg-a vnet-a rg-b vnet-b`

// NewCtlCmd builds the aksprovctl command tree: provision, peer, status, validate
// and version.
func NewCtlCmd(a *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "aksprovctl",
		Example: ctlExamples,
		Short:   "Provision, inspect and peer AKS resources with the Azure CLI",
		Long: `aksprovctl exposes the operations of aksprov as subcommands, with a
configuration file flag, dry runs, a read-only status report and offline validation.`,
		Args:              cobra.ArbitraryArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRun:  a.setupLogging,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "file", "f", "", "Path to a YAML configuration file (defaults to $AKSPROV_CONFIG, then built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log every az invocation")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%s", err)
	})

	rootCmd.AddCommand(
		newProvisionCmd(a),
		newPeerCmd(a),
		newStatusCmd(a),
		newValidateCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// RunCtl executes the aksprovctl command line and returns the exit code.
func (a *App) RunCtl(ctx context.Context, args []string) int {
	return a.execute(ctx, NewCtlCmd(a), args)
}
