package azure

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/aks-provisioner/pkg/config"
	"github.com/nebari-dev/aks-provisioner/pkg/status"
)

// Outcome is the result of an ensure step.
type Outcome string

const (
	// OutcomeExisted means the resource was found and nothing was created
	OutcomeExisted Outcome = "existed"

	// OutcomeCreated means the resource was absent and has been created
	OutcomeCreated Outcome = "created"

	// OutcomePlanned means the resource is absent and would be created (dry run)
	OutcomePlanned Outcome = "planned"

	// OutcomeFetched is reported by the credential step, which has no existence check
	OutcomeFetched Outcome = "fetched"
)

// StepResult records what one step did.
type StepResult struct {
	Kind    Kind
	Name    string
	Outcome Outcome

	// Command is the create command that ran, or would run in a dry run
	Command string
}

// Provisioner runs the provisioning steps for one configuration.
type Provisioner struct {
	cli          CLI
	cfg          *config.Config
	kubeContexts ContextLister

	// planned records kinds found absent during a dry run; their children are
	// absent too and are not listed
	planned map[Kind]bool
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithContextLister sets how kubeconfig contexts are read after fetching credentials.
// Without it the credential step does not inspect the kubeconfig.
func WithContextLister(l ContextLister) ProvisionerOption {
	return func(p *Provisioner) {
		p.kubeContexts = l
	}
}

// NewProvisioner creates a Provisioner. cfg is not modified.
func NewProvisioner(cli CLI, cfg *config.Config, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{cli: cli, cfg: cfg, planned: make(map[Kind]bool)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision runs resource group, virtual network, subnets, cluster and credentials in
// that order. It stops at the first failing step. Resources created by earlier steps
// are left in place; running Provision again resumes where it failed.
func (p *Provisioner) Provision(ctx context.Context) ([]StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.Provision")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource_group", p.cfg.ResourceGroup()),
		attribute.String("cluster_name", p.cfg.ClusterName()),
		attribute.Bool("dry_run", p.cfg.DryRun),
	)

	var results []StepResult

	steps := []struct {
		name string
		run  func(context.Context) ([]StepResult, error)
	}{
		{"resource group", single(p.EnsureResourceGroup)},
		{"virtual network", single(p.EnsureVNet)},
		{"subnets", p.EnsureSubnets},
		{"cluster", single(p.EnsureCluster)},
		{"credentials", single(p.FetchCredentials)},
	}

	for _, step := range steps {
		stepResults, err := step.run(ctx)
		results = append(results, stepResults...)
		if err != nil {
			err = fmt.Errorf("%s step failed: %w", step.name, err)
			span.RecordError(err)
			status.Send(ctx, status.NewUpdate(status.LevelError, "Provisioning aborted").
				WithAction("aborted").
				WithField("step", step.name).
				WithField("error", err.Error()))
			return results, err
		}
	}

	span.SetAttributes(attribute.Int("steps", len(results)))
	return results, nil
}

func single(fn func(context.Context) (StepResult, error)) func(context.Context) ([]StepResult, error) {
	return func(ctx context.Context) ([]StepResult, error) {
		r, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return []StepResult{r}, nil
	}
}

// ensure is the shared absent/present state machine of every create step: check
// existence, and when absent run the create command built by createCmd.
func (p *Provisioner) ensure(ctx context.Context, scope Scope, name string, createCmd func(context.Context) (string, error)) (StepResult, error) {
	result := StepResult{Kind: scope.Kind, Name: name}

	exists := false
	if !p.parentPlanned(scope) {
		var err error
		exists, err = Exists(ctx, p.cli, scope, name, p.cfg.Location)
		if err != nil {
			return result, err
		}
	}

	if exists {
		result.Outcome = OutcomeExisted
		status.Send(ctx, status.NewUpdate(status.LevelInfo, fmt.Sprintf("%s %s already exists", scope.Kind, name)).
			ForResource(string(scope.Kind), name).
			WithAction("exists"))
		return result, nil
	}

	cmd, err := createCmd(ctx)
	if err != nil {
		return result, err
	}
	result.Command = cmd

	if p.cfg.DryRun {
		result.Outcome = OutcomePlanned
		p.planned[scope.Kind] = true
		status.Send(ctx, status.NewUpdate(status.LevelInfo, fmt.Sprintf("Would create %s %s", scope.Kind, name)).
			ForResource(string(scope.Kind), name).
			WithAction("planned").
			WithField("command", cmd))
		return result, nil
	}

	status.Send(ctx, status.NewUpdate(status.LevelProgress, fmt.Sprintf("Creating %s %s", scope.Kind, name)).
		ForResource(string(scope.Kind), name).
		WithAction("creating"))

	var created Resource
	if err := p.cli.JSONAllowEmpty(ctx, cmd, &created); err != nil {
		return result, fmt.Errorf("failed to create %s %s: %w", scope.Kind, name, err)
	}

	result.Outcome = OutcomeCreated
	update := status.NewUpdate(status.LevelSuccess, fmt.Sprintf("%s %s created", scope.Kind, name)).
		ForResource(string(scope.Kind), name).
		WithAction("created")
	if created.ID != "" {
		update = update.WithField("id", created.ID)
	}
	status.Send(ctx, update)

	return result, nil
}

// parentPlanned reports whether a dry run already found the scope's container absent.
func (p *Provisioner) parentPlanned(scope Scope) bool {
	if !p.cfg.DryRun {
		return false
	}
	switch scope.Kind {
	case KindVNet, KindCluster:
		return p.planned[KindResourceGroup]
	case KindSubnet:
		return p.planned[KindResourceGroup] || p.planned[KindVNet]
	default:
		return false
	}
}

// EnsureResourceGroup creates the resource group unless it exists.
func (p *Provisioner) EnsureResourceGroup(ctx context.Context) (StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.EnsureResourceGroup")
	defer span.End()

	name := p.cfg.ResourceGroup()
	span.SetAttributes(attribute.String("resource_group", name))

	result, err := p.ensure(ctx, ResourceGroupScope(), name, func(context.Context) (string, error) {
		return fmt.Sprintf("group create -l %s -n %s", p.cfg.Location, name), nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

// EnsureVNet creates the virtual network with the nodes and pods address prefixes
// unless it exists. --tags is passed only when tags are configured.
func (p *Provisioner) EnsureVNet(ctx context.Context) (StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.EnsureVNet")
	defer span.End()

	name := p.cfg.VNetName()
	span.SetAttributes(attribute.String("vnet", name))

	result, err := p.ensure(ctx, VNetScope(p.cfg.ResourceGroup()), name, func(context.Context) (string, error) {
		cmd := fmt.Sprintf("network vnet create -n %s -g %s -l %s --address-prefixes %s",
			name, p.cfg.ResourceGroup(), p.cfg.Location, p.cfg.AddressPrefixes())
		if p.cfg.VNet.Tags != "" {
			cmd += " --tags " + p.cfg.VNet.Tags
		}
		return cmd, nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

// EnsureSubnets creates the nodes and pods subnets. Each subnet is checked on its
// own, so an existing nodes subnet does not prevent the pods subnet from being created.
func (p *Provisioner) EnsureSubnets(ctx context.Context) ([]StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.EnsureSubnets")
	defer span.End()

	scope := SubnetScope(p.cfg.ResourceGroup(), p.cfg.VNetName())
	results := make([]StepResult, 0, len(config.Roles))

	for _, role := range config.Roles {
		name := p.cfg.SubnetName(role)
		prefix, err := p.cfg.SubnetCIDR(role)
		if err != nil {
			span.RecordError(err)
			return results, err
		}

		result, err := p.ensure(ctx, scope, name, func(context.Context) (string, error) {
			return fmt.Sprintf("network vnet subnet create -n %s -g %s --vnet-name %s --address-prefixes %s",
				name, p.cfg.ResourceGroup(), p.cfg.VNetName(), prefix), nil
		})
		if err != nil {
			span.RecordError(err)
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}
