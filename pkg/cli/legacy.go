package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewLegacyCmd builds the aksprov command. It accepts exactly two shapes: no
// arguments (provision) and --peer RG1 VNET1 RG2 VNET2. Flag parsing is off, so
// every other shape, --help included, is a usage error and no az client is built.
func NewLegacyCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "aksprov [--peer RG1 VNET1 RG2 VNET2]",
		Short: "Provision an AKS cluster and its network with the Azure CLI",
		Long: `aksprov creates a resource group, a virtual network with a nodes and a pods
subnet, and an AKS cluster using the az CLI, then merges the cluster credentials into
the local kubeconfig. Resources that already exist are left alone, so a failed run can
be resumed by running it again.

With --peer it connects two existing virtual networks in both directions.

Configuration comes from the environment: AKSPROV_CONFIG names a YAML file,
AKSPROV_NAME, AKSPROV_LOCATION, AKSPROV_ENVIRONMENT and AKSPROV_SUFFIX override the
naming fields, AKSPROV_AZ_PATH selects the az binary and AKSPROV_VERBOSE=true logs
every az invocation. Use aksprovctl for dry runs, status and validation.`,
		Example: `  aksprov
  aksprov --peer rg-a vnet-a rg-b vnet-b`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRun:   a.setupLogging,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return a.runProvision(cmd.Context(), false)
			case len(args) == 5 && args[0] == "--peer":
				return a.runPeer(cmd.Context(), args[1:])
			default:
				return usageErrorf("expected no arguments or --peer RG1 VNET1 RG2 VNET2, got %q", args)
			}
		},
	}
}

// RunLegacy executes the aksprov command line and returns the exit code.
func (a *App) RunLegacy(ctx context.Context, args []string) int {
	return a.execute(ctx, NewLegacyCmd(a), args)
}
