// Package cli holds the command surfaces of aksprov and aksprovctl. Both binaries
// share one App so they resolve configuration, the az binary and logging the same way.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nebari-dev/aks-provisioner/pkg/azcli"
	"github.com/nebari-dev/aks-provisioner/pkg/config"
	"github.com/nebari-dev/aks-provisioner/pkg/kubeconfig"
	"github.com/nebari-dev/aks-provisioner/pkg/provider/azure"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Environment variables read by both binaries.
const (
	EnvAzPath  = "AKSPROV_AZ_PATH"
	EnvConfig  = "AKSPROV_CONFIG"
	EnvVerbose = "AKSPROV_VERBOSE"
)

// Build information, set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
)

// UsageError marks a command line that does not match any accepted shape.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// App carries everything the commands touch outside the process.
type App struct {
	fs             afero.Fs
	getenv         func(string) string
	newCLI         func(binary string) azure.CLI
	kubeContexts   azure.ContextLister
	stdout, stderr io.Writer

	// Set by aksprovctl flags; aksprov reads the environment only
	configFile string
	verbose    bool
}

// NewApp returns an App wired to the real filesystem, environment and az binary.
func NewApp() *App {
	return &App{
		fs:     afero.NewOsFs(),
		getenv: os.Getenv,
		newCLI: func(binary string) azure.CLI {
			return azcli.New(azcli.WithBinary(binary))
		},
		kubeContexts: kubeconfig.ContextLister(""),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// azClient returns the az client, honouring AKSPROV_AZ_PATH.
func (a *App) azClient() azure.CLI {
	binary := a.getenv(EnvAzPath)
	if binary == "" {
		binary = azcli.DefaultBinary
	}
	return a.newCLI(binary)
}

// execute runs a command tree and maps the outcome to an exit code.
func (a *App) execute(ctx context.Context, rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(a.stderr, "Error: %s\n\n", usageErr.Msg)
		fmt.Fprint(a.stderr, rootCmd.UsageString())
		return ExitUsage
	}

	slog.Error("Command execution failed", "error", err)
	fmt.Fprintf(a.stderr, "Error: %s\n", err)
	return ExitFailure
}

// setupLogging installs the JSON slog handler on stderr. --verbose or
// AKSPROV_VERBOSE=true selects debug level.
func (a *App) setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	verbose, _ := strconv.ParseBool(a.getenv(EnvVerbose))
	if a.verbose || verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// configPath is the --file flag, else AKSPROV_CONFIG, else "" for defaults.
func (a *App) configPath() string {
	if a.configFile != "" {
		return a.configFile
	}
	return a.getenv(EnvConfig)
}

// loadConfig reads the configuration file (or defaults), applies AKSPROV_*
// overrides and validates the result.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	path := a.configPath()
	cfg, err := config.ParseConfig(ctx, a.fs, path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(a.getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Debug("Configuration loaded",
		"config_file", path,
		"resource_group", cfg.ResourceGroup(),
		"cluster", cfg.ClusterName(),
	)
	return cfg, nil
}

// usageArgs wraps a cobra argument validator so its failures are usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageErrorf("%s", err)
		}
		return nil
	}
}
