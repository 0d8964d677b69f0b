package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/aks-provisioner/pkg/provider/azure"
	"github.com/nebari-dev/aks-provisioner/pkg/status"
)

func newPeerCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "peer RG1 VNET1 RG2 VNET2",
		Short: "Peer two virtual networks in both directions",
		Long: `Create a peering from VNET1 to VNET2 and one from VNET2 to VNET1, each allowing
access to the remote network. Both networks must already exist. Peerings are not
checked for beforehand; running the command twice reports the error az returns.`,
		Args: usageArgs(cobra.ExactArgs(4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPeer(cmd.Context(), args)
		},
	}
}

// runPeer expects args to be RG1 VNET1 RG2 VNET2.
func (a *App) runPeer(ctx context.Context, args []string) error {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "cmd.peer")
	defer span.End()

	first := azure.VNetRef{ResourceGroup: args[0], Name: args[1]}
	second := azure.VNetRef{ResourceGroup: args[2], Name: args[3]}
	span.SetAttributes(
		attribute.String("vnet_a", first.String()),
		attribute.String("vnet_b", second.String()),
	)

	ctx, cleanupStatus := status.StartHandler(ctx, statusLogHandler())
	defer cleanupStatus()

	slog.Info("Starting peering", "vnet_a", first.String(), "vnet_b", second.String())

	results, err := azure.Peer(ctx, a.azClient(), first, second)
	if werr := writeResults(a.stdout, results, false); werr != nil {
		slog.Warn("Failed to write results", "error", werr)
	}
	if err != nil {
		span.RecordError(err)
		slog.Error("Peering failed", "error", err)
		return err
	}

	slog.Info("Peering completed successfully")
	return nil
}
