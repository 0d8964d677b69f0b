package azure

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/nebari-dev/aks-provisioner/pkg/config"
)

// ResourceStatus is one line of an existence report.
type ResourceStatus struct {
	Kind   Kind
	Name   string
	Exists bool

	// Checked is false when a containing resource is missing and the listing was skipped
	Checked bool
}

// Report lists which of the configured resources exist, without creating anything.
// Listings inside the same container run concurrently. Entries are returned in
// provisioning order.
func (p *Provisioner) Report(ctx context.Context) ([]ResourceStatus, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.Report")
	defer span.End()

	rg := p.cfg.ResourceGroup()
	vnet := p.cfg.VNetName()

	report := []ResourceStatus{
		{Kind: KindResourceGroup, Name: rg},
		{Kind: KindVNet, Name: vnet},
		{Kind: KindSubnet, Name: p.cfg.SubnetName(config.RoleNodes)},
		{Kind: KindSubnet, Name: p.cfg.SubnetName(config.RolePods)},
		{Kind: KindCluster, Name: p.cfg.ClusterName()},
	}
	const (
		rgIdx = iota
		vnetIdx
		nodesIdx
		podsIdx
		clusterIdx
	)

	check := func(ctx context.Context, idx int, scope Scope) error {
		exists, err := Exists(ctx, p.cli, scope, report[idx].Name, p.cfg.Location)
		if err != nil {
			return err
		}
		report[idx].Exists = exists
		report[idx].Checked = true
		return nil
	}

	if err := check(ctx, rgIdx, ResourceGroupScope()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !report[rgIdx].Exists {
		return report, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return check(gctx, vnetIdx, VNetScope(rg)) })
	g.Go(func() error { return check(gctx, clusterIdx, ClusterScope(rg)) })
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if report[vnetIdx].Exists {
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() error { return check(gctx, nodesIdx, SubnetScope(rg, vnet)) })
		g.Go(func() error { return check(gctx, podsIdx, SubnetScope(rg, vnet)) })
		if err := g.Wait(); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	existing := 0
	for _, r := range report {
		if r.Exists {
			existing++
		}
	}
	span.SetAttributes(attribute.Int("existing", existing))

	return report, nil
}
