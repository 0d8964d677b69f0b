package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestRunLegacy_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"one positional", []string{"rg-a"}},
		{"two positionals", []string{"rg-a", "vnet-a"}},
		{"three positionals", []string{"rg-a", "vnet-a", "rg-b"}},
		{"four positionals without --peer", []string{"rg-a", "vnet-a", "rg-b", "vnet-b"}},
		{"five arguments not starting with --peer", []string{"peer", "rg-a", "vnet-a", "rg-b", "vnet-b"}},
		{"--peer with three arguments", []string{"--peer", "rg-a", "vnet-a", "rg-b"}},
		{"--peer with five arguments", []string{"--peer", "rg-a", "vnet-a", "rg-b", "vnet-b", "extra"}},
		{"--peer alone", []string{"--peer"}},
		{"--peer not first", []string{"rg-a", "--peer", "vnet-a", "rg-b", "vnet-b"}},
		{"--peer=value", []string{"--peer=true", "rg-a", "vnet-a", "rg-b", "vnet-b"}},
		{"status", []string{"status"}},
		{"provision", []string{"provision"}},
		{"provision dry run", []string{"provision", "--dry-run"}},
		{"validate", []string{"validate"}},
		{"version", []string{"version"}},
		{"help flag", []string{"--help"}},
		{"config flag", []string{"-f", "cluster.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			h.cli.respond = func(cmd string) (string, error) { return "[]", nil }

			if code := h.runLegacy(tt.args...); code != ExitUsage {
				t.Errorf("exit code = %d, want %d", code, ExitUsage)
			}
			if len(h.cli.commands) != 0 || len(h.binaries) != 0 {
				t.Errorf("expected no az invocations, got %v", h.cli.commands)
			}
			if !strings.Contains(h.stderr.String(), "Usage:") {
				t.Errorf("expected usage on stderr, got %q", h.stderr.String())
			}
		})
	}
}

func TestRunLegacy_NoArgumentsProvisions(t *testing.T) {
	h := newHarness(nil)
	h.cli.respond = func(cmd string) (string, error) {
		return "", errors.New("az: not logged in")
	}

	if code := h.runLegacy(); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if diff := cmp.Diff([]string{"group list"}, h.cli.commands); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(h.stderr.String(), "resource group step failed") {
		t.Errorf("expected the failing step on stderr, got %q", h.stderr.String())
	}
}

func TestRunLegacy_ConfigFromEnvironment(t *testing.T) {
	h := newHarness(map[string]string{EnvConfig: "cluster.yaml"})
	if err := afero.WriteFile(h.app.fs, "cluster.yaml", []byte("name: fromfile\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.cli.respond = func(cmd string) (string, error) {
		if cmd == "group list" {
			return "[]", nil
		}
		return "", errors.New("(AuthorizationFailed) not allowed")
	}

	if code := h.runLegacy(); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(h.stderr.String(), "rg-fromfile-development-westus3-001") {
		t.Errorf("expected the resource group named from the file, got %q", h.stderr.String())
	}
}

func TestRunLegacy_Peer(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "plain names",
			args: []string{"--peer", "rg-a", "vnet-a", "rg-b", "vnet-b"},
			want: []string{
				"network vnet show -g rg-a -n vnet-a --query id",
				"network vnet show -g rg-b -n vnet-b --query id",
				"network vnet peering create -g rg-a -n vnet-peering-vnet-a-vnet-b --vnet-name vnet-a --remote-vnet " + vnetID("rg-b", "vnet-b") + " --allow-vnet-access",
				"network vnet peering create -g rg-b -n vnet-peering-vnet-b-vnet-a --vnet-name vnet-b --remote-vnet " + vnetID("rg-a", "vnet-a") + " --allow-vnet-access",
			},
		},
		{
			name: "names shared with aksprovctl subcommands",
			args: []string{"--peer", "status", "peer", "provision", "version"},
			want: []string{
				"network vnet show -g status -n peer --query id",
				"network vnet show -g provision -n version --query id",
				"network vnet peering create -g status -n vnet-peering-peer-version --vnet-name peer --remote-vnet " + vnetID("provision", "version") + " --allow-vnet-access",
				"network vnet peering create -g provision -n vnet-peering-version-peer --vnet-name version --remote-vnet " + vnetID("status", "peer") + " --allow-vnet-access",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			h.cli.respond = peeringResponder

			if code := h.runLegacy(tt.args...); code != ExitOK {
				t.Fatalf("exit code = %d, want %d; stderr: %s", code, ExitOK, h.stderr.String())
			}
			if diff := cmp.Diff(tt.want, h.cli.commands); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunLegacy_PeerFailure(t *testing.T) {
	h := newHarness(nil)
	h.cli.respond = func(cmd string) (string, error) {
		return "", errors.New("(ResourceNotFound) virtual network not found")
	}

	if code := h.runLegacy("--peer", "rg-a", "vnet-a", "rg-b", "vnet-b"); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if n := len(h.cli.commands); n != 1 {
		t.Errorf("expected to stop after the first lookup, got %v", h.cli.commands)
	}
}

func TestRunLegacy_AzPath(t *testing.T) {
	h := newHarness(map[string]string{EnvAzPath: "/opt/az/bin/az"})
	h.cli.respond = func(cmd string) (string, error) { return "", fmt.Errorf("stop") }

	h.runLegacy()

	if diff := cmp.Diff([]string{"/opt/az/bin/az"}, h.binaries); diff != "" {
		t.Errorf("binary mismatch (-want +got):\n%s", diff)
	}
}
