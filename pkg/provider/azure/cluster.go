package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/aks-provisioner/pkg/config"
)

// Values of aks create that are not configurable.
const (
	networkPlugin    = "azure"
	initialNodeCount = 1
)

const (
	subnetResourceType = "Microsoft.Network/virtualNetworks/subnets"
	vnetResourceType   = "Microsoft.Network/virtualNetworks"
)

// EnsureCluster creates the AKS cluster unless it exists. The cluster's node pool is
// placed in the nodes subnet and its pods get addresses from the pods subnet, so both
// subnet IDs are looked up right before creation.
func (p *Provisioner) EnsureCluster(ctx context.Context) (StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.EnsureCluster")
	defer span.End()

	name := p.cfg.ClusterName()
	span.SetAttributes(
		attribute.String("cluster_name", name),
		attribute.String("kubernetes_version", p.cfg.Cluster.Version),
	)

	result, err := p.ensure(ctx, ClusterScope(p.cfg.ResourceGroup()), name, func(ctx context.Context) (string, error) {
		podSubnetID, err := p.subnetIDForCluster(ctx, config.RolePods)
		if err != nil {
			return "", err
		}
		nodeSubnetID, err := p.subnetIDForCluster(ctx, config.RoleNodes)
		if err != nil {
			return "", err
		}
		return clusterCreateCommand(p.cfg, podSubnetID, nodeSubnetID), nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

// subnetIDForCluster resolves a subnet ID, or a placeholder when a dry run has
// planned the subnet instead of creating it.
func (p *Provisioner) subnetIDForCluster(ctx context.Context, role string) (string, error) {
	name := p.cfg.SubnetName(role)
	if p.cfg.DryRun && (p.planned[KindResourceGroup] || p.planned[KindVNet] || p.planned[KindSubnet]) {
		return fmt.Sprintf("<id of %s>", name), nil
	}
	return SubnetID(ctx, p.cli, p.cfg.ResourceGroup(), p.cfg.VNetName(), name)
}

// clusterCreateCommand renders the aks create command. Flag order follows the az
// documentation; the CLI does not depend on it.
func clusterCreateCommand(cfg *config.Config, podSubnetID, nodeSubnetID string) string {
	c := cfg.Cluster
	args := []string{
		"aks create",
		"-n", cfg.ClusterName(),
		"-g", cfg.ResourceGroup(),
		"-l", cfg.Location,
	}
	if c.CustomHeaders != "" {
		args = append(args, "--aks-custom-headers", c.CustomHeaders)
	}
	args = append(args,
		"--dns-service-ip", c.DNSServiceIP,
		"--docker-bridge-address", c.DockerBridgeCIDR,
		"--enable-cluster-autoscaler",
		"--generate-ssh-keys",
		"--kubernetes-version", c.Version,
		"--min-count", fmt.Sprint(c.MinNodes),
		"--max-count", fmt.Sprint(c.MaxNodes),
		"--max-pods", fmt.Sprint(c.MaxPodsPerNode),
		"--network-plugin", networkPlugin,
		"--node-count", fmt.Sprint(initialNodeCount),
		"--node-vm-size", c.NodeVMSize,
		"--nodepool-name", c.NodePoolName,
		"--pod-subnet-id", podSubnetID,
		"--service-cidr", c.ServiceCIDR,
		"--vnet-subnet-id", nodeSubnetID,
		"--yes",
	)
	return strings.Join(args, " ")
}

// SubnetID returns the resource ID of a subnet.
func SubnetID(ctx context.Context, cli CLI, resourceGroup, vnet, name string) (string, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.SubnetID")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource_group", resourceGroup),
		attribute.String("vnet", vnet),
		attribute.String("subnet", name),
	)

	var subnet Resource
	cmd := fmt.Sprintf("network vnet subnet show --vnet-name %s -g %s -n %s", vnet, resourceGroup, name)
	if err := cli.JSON(ctx, cmd, &subnet); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to look up subnet %s: %w", name, err)
	}

	if err := checkResourceID(subnet.ID, subnetResourceType, name); err != nil {
		span.RecordError(err)
		return "", err
	}
	return subnet.ID, nil
}

// VNetID returns the resource ID of a virtual network.
func VNetID(ctx context.Context, cli CLI, resourceGroup, vnet string) (string, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.VNetID")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource_group", resourceGroup),
		attribute.String("vnet", vnet),
	)

	id, err := cli.Text(ctx, fmt.Sprintf("network vnet show -g %s -n %s --query id", resourceGroup, vnet))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to look up virtual network %s: %w", vnet, err)
	}

	if err := checkResourceID(id, vnetResourceType, vnet); err != nil {
		span.RecordError(err)
		return "", err
	}
	return id, nil
}

// checkResourceID verifies that id is an ARM ID of the given type and name.
func checkResourceID(id, resourceType, name string) error {
	if id == "" {
		return fmt.Errorf("az returned no id for %s", name)
	}
	rid, err := arm.ParseResourceID(id)
	if err != nil {
		return fmt.Errorf("az returned malformed id for %s: %w", name, err)
	}
	if !strings.EqualFold(rid.ResourceType.String(), resourceType) {
		return fmt.Errorf("id %s is a %s, expected %s", id, rid.ResourceType.String(), resourceType)
	}
	if !strings.EqualFold(rid.Name, name) {
		return fmt.Errorf("id %s names %s, expected %s", id, rid.Name, name)
	}
	return nil
}
