package azure

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Kind identifies a type of Azure resource managed by the provisioner.
type Kind string

const (
	KindResourceGroup Kind = "resource-group"
	KindVNet          Kind = "vnet"
	KindSubnet        Kind = "subnet"
	KindCluster       Kind = "aks-cluster"
	KindPeering       Kind = "vnet-peering"
	KindCredentials   Kind = "credentials"
)

// Scope describes where resources of a kind are listed: resource groups are listed
// subscription-wide, vnets and clusters within a resource group, subnets within a
// virtual network.
type Scope struct {
	Kind          Kind
	ResourceGroup string
	VNet          string
}

// ResourceGroupScope lists resource groups of the subscription.
func ResourceGroupScope() Scope {
	return Scope{Kind: KindResourceGroup}
}

// VNetScope lists virtual networks of a resource group.
func VNetScope(resourceGroup string) Scope {
	return Scope{Kind: KindVNet, ResourceGroup: resourceGroup}
}

// ClusterScope lists AKS clusters of a resource group.
func ClusterScope(resourceGroup string) Scope {
	return Scope{Kind: KindCluster, ResourceGroup: resourceGroup}
}

// SubnetScope lists subnets of a virtual network.
func SubnetScope(resourceGroup, vnet string) Scope {
	return Scope{Kind: KindSubnet, ResourceGroup: resourceGroup, VNet: vnet}
}

// ListCommand returns the az command that lists the scope's resources.
func (s Scope) ListCommand() (string, error) {
	switch s.Kind {
	case KindResourceGroup:
		return "group list", nil
	case KindVNet:
		return fmt.Sprintf("network vnet list -g %s", s.ResourceGroup), nil
	case KindCluster:
		return fmt.Sprintf("aks list -g %s", s.ResourceGroup), nil
	case KindSubnet:
		return fmt.Sprintf("network vnet subnet list -g %s --vnet-name %s", s.ResourceGroup, s.VNet), nil
	default:
		return "", fmt.Errorf("resources of kind %q cannot be listed", s.Kind)
	}
}

// Resource is the part of a listed item the existence check looks at.
// Subnets carry no location.
type Resource struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Exists lists the scope and reports whether a resource called name exists in
// location. Items without a location are treated as being in location. The listing
// is fetched on every call.
func Exists(ctx context.Context, cli CLI, scope Scope, name, location string) (bool, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.Exists")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource.kind", string(scope.Kind)),
		attribute.String("resource.name", name),
		attribute.String("location", location),
	)

	cmd, err := scope.ListCommand()
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	var items []Resource
	if err := cli.JSON(ctx, cmd, &items); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to list %s resources: %w", scope.Kind, err)
	}

	found := containsResource(items, name, location)
	span.SetAttributes(
		attribute.Int("listed", len(items)),
		attribute.Bool("exists", found),
	)
	return found, nil
}

func containsResource(items []Resource, name, location string) bool {
	for _, item := range items {
		itemLocation := item.Location
		if itemLocation == "" {
			itemLocation = location
		}
		if item.Name == name && itemLocation == location {
			return true
		}
	}
	return false
}
