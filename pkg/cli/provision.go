package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/aks-provisioner/pkg/provider/azure"
	"github.com/nebari-dev/aks-provisioner/pkg/status"
)

func newProvisionCmd(a *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the resource group, network, subnets and cluster",
		Long: `Create every configured resource that does not exist yet, then fetch the
cluster credentials into the local kubeconfig. Existing resources are not modified.

Use --dry-run to list the commands that would run without creating anything.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProvision(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be created without making changes")
	return cmd
}

func (a *App) runProvision(ctx context.Context, dryRun bool) error {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "cmd.provision")
	defer span.End()

	span.SetAttributes(
		attribute.String("config.file", a.configPath()),
		attribute.Bool("dry_run", dryRun),
	)

	ctx, cleanupStatus := status.StartHandler(ctx, statusLogHandler())
	defer cleanupStatus()

	defer func() {
		if ctx.Err() == context.Canceled {
			slog.Warn("Provisioning interrupted by user")
		}
	}()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to load configuration", "error", err, "file", a.configPath())
		return err
	}
	cfg.DryRun = dryRun

	if dryRun {
		slog.Info("Starting provisioning (dry-run)", "resource_group", cfg.ResourceGroup(), "cluster", cfg.ClusterName())
	} else {
		slog.Info("Starting provisioning", "resource_group", cfg.ResourceGroup(), "cluster", cfg.ClusterName())
	}

	p := azure.NewProvisioner(a.azClient(), cfg, azure.WithContextLister(a.kubeContexts))
	results, err := p.Provision(ctx)

	// Partial results show how far a failed run got
	if werr := writeResults(a.stdout, results, dryRun); werr != nil {
		slog.Warn("Failed to write results", "error", werr)
	}

	if err != nil {
		span.RecordError(err)
		slog.Error("Provisioning failed", "error", err)
		return err
	}

	slog.Info("Provisioning completed successfully", "cluster", cfg.ClusterName())
	return nil
}

// writeResults prints one row per step. In a dry run the planned commands follow
// the table.
func writeResults(w io.Writer, results []azure.StepResult, dryRun bool) error {
	if len(results) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Kind", "Name", "Outcome")
	for _, r := range results {
		if err := table.Append([]string{string(r.Kind), r.Name, string(r.Outcome)}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !dryRun {
		return nil
	}
	var planned []string
	for _, r := range results {
		if r.Outcome == azure.OutcomePlanned {
			planned = append(planned, r.Command)
		}
	}
	if len(planned) == 0 {
		_, err := fmt.Fprintln(w, "\nNothing to create.")
		return err
	}
	if _, err := fmt.Fprintln(w, "\nCommands that would run:"); err != nil {
		return err
	}
	for _, c := range planned {
		if _, err := fmt.Fprintf(w, "  az %s\n", c); err != nil {
			return err
		}
	}
	return nil
}
