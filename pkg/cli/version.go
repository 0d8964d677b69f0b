package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func newVersionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, span := otel.Tracer("aks-provisioner").Start(cmd.Context(), "cmd.version")
			defer span.End()

			fmt.Fprintf(a.stdout, "aksprov %s (commit %s)\n", Version, Commit)
			return nil
		},
	}
}
