package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/nebari-dev/aks-provisioner/pkg/provider/azure"
)

func newStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which configured resources exist",
		Long: `List the configured resource group, virtual network, subnets and cluster and
whether each exists. Nothing is created. Resources inside a missing container are
shown as not checked.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd.Context())
		},
	}
}

func (a *App) runStatus(ctx context.Context) error {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "cmd.status")
	defer span.End()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to load configuration", "error", err, "file", a.configPath())
		return err
	}

	report, err := azure.NewProvisioner(a.azClient(), cfg).Report(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to check resources", "error", err)
		return err
	}

	return writeReport(a.stdout, report)
}

func writeReport(w io.Writer, report []azure.ResourceStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header("Kind", "Name", "Status")
	for _, r := range report {
		state := "not checked"
		switch {
		case r.Checked && r.Exists:
			state = "exists"
		case r.Checked:
			state = "missing"
		}
		if err := table.Append([]string{string(r.Kind), r.Name, state}); err != nil {
			return err
		}
	}
	return table.Render()
}
