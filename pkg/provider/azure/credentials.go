package azure

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/aks-provisioner/pkg/status"
)

// FetchCredentials merges the cluster's credentials into the local kubeconfig. It
// has no existence check and runs whether or not the cluster was just created.
func (p *Provisioner) FetchCredentials(ctx context.Context) (StepResult, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azure.FetchCredentials")
	defer span.End()

	name := p.cfg.ClusterName()
	cmd := fmt.Sprintf("aks get-credentials -g %s -n %s", p.cfg.ResourceGroup(), name)
	result := StepResult{Kind: KindCredentials, Name: name, Command: cmd}

	span.SetAttributes(attribute.String("cluster_name", name))

	if p.cfg.DryRun {
		result.Outcome = OutcomePlanned
		status.Send(ctx, status.NewUpdate(status.LevelInfo, "Would fetch cluster credentials").
			ForResource(string(KindCredentials), name).
			WithAction("planned").
			WithField("command", cmd))
		return result, nil
	}

	out, err := p.cli.Text(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("failed to fetch credentials for cluster %s: %w", name, err)
	}
	result.Outcome = OutcomeFetched

	update := status.NewUpdate(status.LevelSuccess, "Cluster credentials fetched").
		ForResource(string(KindCredentials), name).
		WithAction("fetched")
	if out != "" {
		update = update.WithField("output", out)
	}
	status.Send(ctx, update)

	p.checkKubeContext(ctx, name)
	return result, nil
}

// checkKubeContext warns when the kubeconfig has no context for the cluster. az names
// the context after the cluster; a missing one usually means KUBECONFIG points
// somewhere other than where az wrote.
func (p *Provisioner) checkKubeContext(ctx context.Context, name string) {
	if p.kubeContexts == nil {
		return
	}

	contexts, err := p.kubeContexts()
	if err != nil {
		status.Send(ctx, status.NewUpdate(status.LevelWarning, "Could not read kubeconfig").
			ForResource(string(KindCredentials), name).
			WithField("error", err.Error()))
		return
	}

	if !slices.Contains(contexts, name) {
		status.Send(ctx, status.NewUpdate(status.LevelWarning, "Kubeconfig has no context for the cluster").
			ForResource(string(KindCredentials), name).
			WithField("contexts", contexts))
		return
	}

	status.Send(ctx, status.NewUpdate(status.LevelInfo, "Kubeconfig context ready").
		ForResource(string(KindCredentials), name).
		WithField("context", name))
}
