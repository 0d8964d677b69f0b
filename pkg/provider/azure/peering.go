package azure

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/aks-provisioner/pkg/status"
)

// VNetRef names a virtual network by resource group and name.
type VNetRef struct {
	ResourceGroup string
	Name          string
}

func (r VNetRef) String() string {
	return r.ResourceGroup + "/" + r.Name
}

// PeeringName returns the name of the peering from src to dst.
func PeeringName(src, dst string) string {
	return fmt.Sprintf("vnet-peering-%s-%s", src, dst)
}

// Peer connects two virtual networks in both directions. Both IDs are resolved first;
// then a peering from a to b and one from b to a are created, each allowing access to
// the remote network. Existing peerings are not checked for: re-running fails with
// whatever error az reports for a duplicate.
func Peer(ctx context.Context, cli CLI, a, b VNetRef) ([]StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.Peer")
	defer span.End()

	span.SetAttributes(
		attribute.String("vnet_a", a.String()),
		attribute.String("vnet_b", b.String()),
	)

	idA, err := VNetID(ctx, cli, a.ResourceGroup, a.Name)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	idB, err := VNetID(ctx, cli, b.ResourceGroup, b.Name)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var results []StepResult
	for _, leg := range []struct {
		src      VNetRef
		dst      VNetRef
		remoteID string
	}{
		{a, b, idB},
		{b, a, idA},
	} {
		result, err := createPeering(ctx, cli, leg.src, leg.dst, leg.remoteID)
		if err != nil {
			span.RecordError(err)
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func createPeering(ctx context.Context, cli CLI, src, dst VNetRef, remoteID string) (StepResult, error) {
	name := PeeringName(src.Name, dst.Name)
	cmd := fmt.Sprintf("network vnet peering create -g %s -n %s --vnet-name %s --remote-vnet %s --allow-vnet-access",
		src.ResourceGroup, name, src.Name, remoteID)
	result := StepResult{Kind: KindPeering, Name: name, Command: cmd}

	status.Send(ctx, status.NewUpdate(status.LevelProgress, fmt.Sprintf("Peering %s with %s", src, dst)).
		ForResource(string(KindPeering), name).
		WithAction("creating"))

	var peering struct {
		ID           string `json:"id"`
		PeeringState string `json:"peeringState"`
	}
	if err := cli.JSONAllowEmpty(ctx, cmd, &peering); err != nil {
		return result, fmt.Errorf("failed to create peering %s: %w", name, err)
	}
	result.Outcome = OutcomeCreated

	status.Send(ctx, status.NewUpdate(status.LevelSuccess, fmt.Sprintf("Peering %s created", name)).
		ForResource(string(KindPeering), name).
		WithAction("created").
		WithField("state", peering.PeeringState))

	return result, nil
}
