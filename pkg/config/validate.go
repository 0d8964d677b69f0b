package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/apparentlymart/go-cidr/cidr"
	"github.com/coreos/go-semver/semver"
)

// Validate checks the configuration before any az command runs. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	// Names end up inside resource names and unquoted command arguments
	for _, f := range []struct{ field, value string }{
		{"name", c.Name},
		{"location", c.Location},
		{"environment", c.Environment},
		{"suffix", c.Suffix},
	} {
		field, value := f.field, f.value
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", field))
		} else if strings.ContainsAny(value, " \t\n") {
			errs = append(errs, fmt.Errorf("%s %q must not contain whitespace", field, value))
		}
	}

	nodes, err := parseCIDR("subnets.nodes", c.Subnets.Nodes)
	errs = appendErr(errs, err)
	pods, err := parseCIDR("subnets.pods", c.Subnets.Pods)
	errs = appendErr(errs, err)
	service, err := parseCIDR("cluster.service_cidr", c.Cluster.ServiceCIDR)
	errs = appendErr(errs, err)
	_, err = parseCIDR("cluster.docker_bridge_cidr", c.Cluster.DockerBridgeCIDR)
	errs = appendErr(errs, err)

	if nodes != nil && pods != nil && service != nil {
		all := &net.IPNet{IP: net.IPv4zero, Mask: net.IPMask(net.IPv4zero)}
		if err := cidr.VerifyNoOverlap([]*net.IPNet{nodes, pods, service}, all); err != nil {
			errs = append(errs, fmt.Errorf("subnets and service CIDR must not overlap: %w", err))
		}
	}

	dnsIP := net.ParseIP(c.Cluster.DNSServiceIP)
	switch {
	case dnsIP == nil:
		errs = append(errs, fmt.Errorf("cluster.dns_service_ip %q is not an IP address", c.Cluster.DNSServiceIP))
	case service != nil && !service.Contains(dnsIP):
		errs = append(errs, fmt.Errorf("cluster.dns_service_ip %s is outside service CIDR %s", dnsIP, service))
	}

	if c.Cluster.MinNodes < 1 {
		errs = append(errs, fmt.Errorf("cluster.min_nodes must be at least 1, got %d", c.Cluster.MinNodes))
	}
	if c.Cluster.MaxNodes < c.Cluster.MinNodes {
		errs = append(errs, fmt.Errorf("cluster.max_nodes (%d) must not be less than cluster.min_nodes (%d)", c.Cluster.MaxNodes, c.Cluster.MinNodes))
	}
	if c.Cluster.MaxPodsPerNode < 1 {
		errs = append(errs, fmt.Errorf("cluster.max_pods_per_node must be positive, got %d", c.Cluster.MaxPodsPerNode))
	}

	if _, err := semver.NewVersion(c.Cluster.Version); err != nil {
		errs = append(errs, fmt.Errorf("cluster.version %q must be MAJOR.MINOR.PATCH: %w", c.Cluster.Version, err))
	}

	if strings.ContainsAny(c.Cluster.CustomHeaders, " \t\n") {
		errs = append(errs, fmt.Errorf("cluster.custom_headers must not contain whitespace"))
	}

	return errors.Join(errs...)
}

func parseCIDR(field, value string) (*net.IPNet, error) {
	_, ipNet, err := net.ParseCIDR(value)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a valid CIDR: %w", field, value, err)
	}
	return ipNet, nil
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
