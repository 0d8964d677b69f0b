package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/nebari-dev/aks-provisioner/pkg/provider/azure"
)

// fakeCLI records commands and answers them with respond.
type fakeCLI struct {
	mu       sync.Mutex
	commands []string
	respond  func(cmd string) (string, error)
}

func (f *fakeCLI) call(cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, strings.Join(strings.Fields(cmd), " "))
	if f.respond == nil {
		return "", fmt.Errorf("no response for %q", cmd)
	}
	return f.respond(cmd)
}

func (f *fakeCLI) JSON(ctx context.Context, cmd string, out any) error {
	resp, err := f.call(cmd)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(resp), out)
}

func (f *fakeCLI) JSONAllowEmpty(ctx context.Context, cmd string, out any) error {
	resp, err := f.call(cmd)
	if err != nil || resp == "" {
		return err
	}
	return json.Unmarshal([]byte(resp), out)
}

func (f *fakeCLI) Text(ctx context.Context, cmd string) (string, error) {
	return f.call(cmd)
}

type testHarness struct {
	app      *App
	cli      *fakeCLI
	binaries []string
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func newHarness(env map[string]string) *testHarness {
	h := &testHarness{
		cli:    &fakeCLI{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.app = &App{
		fs:     afero.NewMemMapFs(),
		getenv: func(k string) string { return env[k] },
		newCLI: func(binary string) azure.CLI {
			h.binaries = append(h.binaries, binary)
			return h.cli
		},
		kubeContexts: func() ([]string, error) { return nil, errors.New("no kubeconfig in tests") },
		stdout:       h.stdout,
		stderr:       h.stderr,
	}
	return h
}

func (h *testHarness) runLegacy(args ...string) int {
	// cobra falls back to os.Args when given nil args, so always pass a non-nil slice.
	return h.app.RunLegacy(context.Background(), append([]string{}, args...))
}

func (h *testHarness) runCtl(args ...string) int {
	return h.app.RunCtl(context.Background(), append([]string{}, args...))
}

func vnetID(rg, vnet string) string {
	return "/subscriptions/s/resourceGroups/" + rg + "/providers/Microsoft.Network/virtualNetworks/" + vnet
}

// peeringResponder answers the lookups and creates of a successful peering.
func peeringResponder(cmd string) (string, error) {
	fields := strings.Fields(cmd)
	if strings.HasPrefix(cmd, "network vnet show") && len(fields) == 9 {
		return vnetID(fields[4], fields[6]), nil
	}
	if strings.HasPrefix(cmd, "network vnet peering create") {
		return `{"id":"peering","peeringState":"Initiated"}`, nil
	}
	return "", fmt.Errorf("unexpected command %q", cmd)
}
