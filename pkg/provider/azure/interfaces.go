package azure

import "context"

// CLI is the subset of *azcli.Client used by the provisioning steps.
// JSON runs a command with JSON output and decodes it into out, failing on empty
// output; JSONAllowEmpty accepts empty output and is used for create commands. Text
// runs a command with TSV output and returns the trimmed result.
type CLI interface {
	JSON(ctx context.Context, command string, out any) error
	JSONAllowEmpty(ctx context.Context, command string, out any) error
	Text(ctx context.Context, command string) (string, error)
}

// ContextLister returns the context names of the local kubeconfig. It is used to
// confirm that fetched credentials landed where kubectl will look for them.
type ContextLister func() ([]string, error)
