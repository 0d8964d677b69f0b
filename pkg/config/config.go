package config

import "fmt"

// Subnet roles provisioned inside the virtual network, in creation order.
const (
	RoleNodes = "nodes"
	RolePods  = "pods"
)

// Roles lists the subnet roles in the order they are provisioned.
var Roles = []string{RoleNodes, RolePods}

// Default values, matching the sample configuration shipped with the tool.
const (
	DefaultName             = "test"
	DefaultLocation         = "westus3"
	DefaultEnvironment      = "development"
	DefaultSuffix           = "001"
	DefaultNodesCIDR        = "10.64.16.0/21"
	DefaultPodsCIDR         = "10.49.0.0/16"
	DefaultServiceCIDR      = "172.16.0.0/16"
	DefaultDNSServiceIP     = "172.16.0.10"
	DefaultDockerBridgeCIDR = "172.17.0.1/16"
	DefaultMinNodes         = 1
	DefaultMaxNodes         = 3
	DefaultMaxPodsPerNode   = 250
	DefaultKubernetesVer    = "1.20.9"
	DefaultCustomHeaders    = "EnableAzureDiskFileCSIDriver=true"
	DefaultNodeVMSize       = "Standard_D2_v4"
	DefaultNodePoolName     = "default"
)

// Config describes the cluster and network to provision.
// All resource names are derived from Name, Environment, Location and Suffix.
type Config struct {
	Name        string        `yaml:"name"`
	Location    string        `yaml:"location"`
	Environment string        `yaml:"environment"`
	Suffix      string        `yaml:"suffix"`
	Subnets     SubnetsConfig `yaml:"subnets,omitempty"`
	VNet        VNetConfig    `yaml:"vnet,omitempty"`
	Cluster     ClusterConfig `yaml:"cluster,omitempty"`

	// DryRun is a runtime option set from the CLI, never read from YAML
	DryRun bool `yaml:"-"`
}

// SubnetsConfig holds the address prefix of each subnet role
type SubnetsConfig struct {
	Nodes string `yaml:"nodes"`
	Pods  string `yaml:"pods"`
}

// VNetConfig holds virtual network options
type VNetConfig struct {
	// Tags is passed verbatim to --tags, e.g. "team=data env=dev"
	Tags string `yaml:"tags,omitempty"`
}

// ClusterConfig holds AKS sizing, version and network options
type ClusterConfig struct {
	ServiceCIDR      string `yaml:"service_cidr"`
	DNSServiceIP     string `yaml:"dns_service_ip"`
	DockerBridgeCIDR string `yaml:"docker_bridge_cidr"`
	MinNodes         int    `yaml:"min_nodes"`
	MaxNodes         int    `yaml:"max_nodes"`
	MaxPodsPerNode   int    `yaml:"max_pods_per_node"`
	Version          string `yaml:"version"`
	CustomHeaders    string `yaml:"custom_headers"` // empty omits --aks-custom-headers
	NodeVMSize       string `yaml:"node_vm_size,omitempty"`
	NodePoolName     string `yaml:"node_pool_name,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every empty field with its default value.
func (c *Config) ApplyDefaults() {
	setString(&c.Name, DefaultName)
	setString(&c.Location, DefaultLocation)
	setString(&c.Environment, DefaultEnvironment)
	setString(&c.Suffix, DefaultSuffix)

	setString(&c.Subnets.Nodes, DefaultNodesCIDR)
	setString(&c.Subnets.Pods, DefaultPodsCIDR)

	setString(&c.Cluster.ServiceCIDR, DefaultServiceCIDR)
	setString(&c.Cluster.DNSServiceIP, DefaultDNSServiceIP)
	setString(&c.Cluster.DockerBridgeCIDR, DefaultDockerBridgeCIDR)
	setString(&c.Cluster.Version, DefaultKubernetesVer)
	// An empty CustomHeaders is defaulted here; ParseConfig restores an explicit "".
	setString(&c.Cluster.CustomHeaders, DefaultCustomHeaders)
	setString(&c.Cluster.NodeVMSize, DefaultNodeVMSize)
	setString(&c.Cluster.NodePoolName, DefaultNodePoolName)

	if c.Cluster.MinNodes == 0 {
		c.Cluster.MinNodes = DefaultMinNodes
	}
	if c.Cluster.MaxNodes == 0 {
		c.Cluster.MaxNodes = DefaultMaxNodes
	}
	if c.Cluster.MaxPodsPerNode == 0 {
		c.Cluster.MaxPodsPerNode = DefaultMaxPodsPerNode
	}
}

func setString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}

// qualifier is the shared "{name}-{environment}-{location}-{suffix}" part of derived names
func (c *Config) qualifier() string {
	return fmt.Sprintf("%s-%s-%s-%s", c.Name, c.Environment, c.Location, c.Suffix)
}

// ResourceGroup returns the name of the resource group holding every resource.
func (c *Config) ResourceGroup() string {
	return "rg-" + c.qualifier()
}

// VNetName returns the virtual network name.
func (c *Config) VNetName() string {
	return "vnet-" + c.qualifier()
}

// ClusterName returns the AKS cluster name.
func (c *Config) ClusterName() string {
	return "aks-" + c.qualifier()
}

// SubnetName returns the subnet name for a role ("nodes" or "pods").
func (c *Config) SubnetName(role string) string {
	return fmt.Sprintf("subnet-%s-%s", c.Name, role)
}

// SubnetCIDR returns the address prefix configured for a role.
func (c *Config) SubnetCIDR(role string) (string, error) {
	switch role {
	case RoleNodes:
		return c.Subnets.Nodes, nil
	case RolePods:
		return c.Subnets.Pods, nil
	default:
		return "", fmt.Errorf("unknown subnet role %q", role)
	}
}

// AddressPrefixes returns the virtual network address space: the nodes and pods
// prefixes joined by a space, as --address-prefixes expects them.
func (c *Config) AddressPrefixes() string {
	return c.Subnets.Nodes + " " + c.Subnets.Pods
}
