package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func newValidateCmd(a *App) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without calling Azure",
		Long: `Load the configuration file (or the defaults), apply AKSPROV_* overrides and
check it: names, CIDRs that do not overlap, a DNS service IP inside the service CIDR,
node counts and the Kubernetes version. The az CLI is not invoked.

Use --show to print the effective configuration.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.Context(), show)
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Print the effective configuration as YAML")
	return cmd
}

func (a *App) runValidate(ctx context.Context, show bool) error {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "cmd.validate")
	defer span.End()

	span.SetAttributes(attribute.String("config.file", a.configPath()))

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Configuration validation failed", "error", err, "file", a.configPath())
		return err
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Resource group: %s\n", cfg.ResourceGroup())
	fmt.Fprintf(a.stdout, "  Virtual network: %s\n", cfg.VNetName())
	fmt.Fprintf(a.stdout, "  Cluster: %s\n", cfg.ClusterName())

	if show {
		data, err := cfg.Marshal()
		if err != nil {
			span.RecordError(err)
			return err
		}
		fmt.Fprintf(a.stdout, "\n%s", data)
	}
	return nil
}
