package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nebari-dev/aks-provisioner/pkg/azcli"
)

const testSubscription = "00000000-0000-0000-0000-000000000000"

// cmpIgnoreCommand compares step results without their command text.
func cmpIgnoreCommand() cmp.Option {
	return cmpopts.IgnoreFields(StepResult{}, "Command")
}

// fakeAz is an in-memory stand-in for the az CLI. It understands the commands the
// provisioner issues, keeps resource state between calls and records every command.
type fakeAz struct {
	mu sync.Mutex

	groups   map[string]string            // name -> location
	vnets    map[string]map[string]string // rg -> vnet -> location
	subnets  map[string]map[string]string // rg/vnet -> subnet -> prefix
	clusters map[string]map[string]string // rg -> cluster -> location
	peerings []string

	// vnetCreateArgs keeps the fields of the last network vnet create
	vnetCreateArgs []string

	commands []string

	// FailFunc, when set, can fail any command before it is handled
	FailFunc func(cmd string) error
}

func newFakeAz() *fakeAz {
	return &fakeAz{
		groups:   make(map[string]string),
		vnets:    make(map[string]map[string]string),
		subnets:  make(map[string]map[string]string),
		clusters: make(map[string]map[string]string),
	}
}

// commandLines returns the recorded commands normalised to single spaces.
func (f *fakeAz) commandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// mutations returns the recorded commands that create something or fetch credentials.
func (f *fakeAz) mutations() []string {
	var out []string
	for _, c := range f.commandLines() {
		fields := strings.Fields(c)
		for _, w := range fields {
			if w == "create" || w == "get-credentials" {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (f *fakeAz) addGroup(name, location string) {
	f.groups[name] = location
}

func (f *fakeAz) addVNet(rg, name, location string) {
	if f.vnets[rg] == nil {
		f.vnets[rg] = make(map[string]string)
	}
	f.vnets[rg][name] = location
}

func (f *fakeAz) addSubnet(rg, vnet, name, prefix string) {
	key := rg + "/" + vnet
	if f.subnets[key] == nil {
		f.subnets[key] = make(map[string]string)
	}
	f.subnets[key][name] = prefix
}

func (f *fakeAz) addCluster(rg, name, location string) {
	if f.clusters[rg] == nil {
		f.clusters[rg] = make(map[string]string)
	}
	f.clusters[rg][name] = location
}

func vnetResourceID(rg, vnet string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/virtualNetworks/%s", testSubscription, rg, vnet)
}

func subnetResourceID(rg, vnet, subnet string) string {
	return vnetResourceID(rg, vnet) + "/subnets/" + subnet
}

func clusterResourceID(rg, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.ContainerService/managedClusters/%s", testSubscription, rg, name)
}

// flagValue returns the value following flag, or "".
func flagValue(fields []string, flag string) string {
	for i, f := range fields {
		if f == flag && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// flagValues returns every value following flag up to the next flag.
func flagValues(fields []string, flag string) []string {
	for i, f := range fields {
		if f != flag {
			continue
		}
		var vals []string
		for _, v := range fields[i+1:] {
			if strings.HasPrefix(v, "-") {
				break
			}
			vals = append(vals, v)
		}
		return vals
	}
	return nil
}

func notFound(cmd, what string) error {
	return &azcli.CommandError{
		Args:   strings.Fields(cmd),
		Stderr: fmt.Sprintf("(ResourceNotFound) %s was not found.", what),
		Err:    errors.New("exit status 3"),
	}
}

func (f *fakeAz) record(cmd string) ([]string, error) {
	fields := strings.Fields(cmd)
	f.commands = append(f.commands, strings.Join(fields, " "))
	if f.FailFunc != nil {
		if err := f.FailFunc(cmd); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// JSONAllowEmpty answers like JSON; fakeAz always prints a document.
func (f *fakeAz) JSONAllowEmpty(ctx context.Context, cmd string, out any) error {
	return f.JSON(ctx, cmd, out)
}

func (f *fakeAz) JSON(ctx context.Context, cmd string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields, err := f.record(cmd)
	if err != nil {
		return err
	}

	resp, err := f.handleJSON(cmd, fields)
	if err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeAz) handleJSON(cmd string, fields []string) (any, error) {
	rg := flagValue(fields, "-g")
	name := flagValue(fields, "-n")
	joined := strings.Join(fields, " ")

	switch {
	case joined == "group list":
		items := []map[string]string{}
		for n, loc := range f.groups {
			items = append(items, map[string]string{"name": n, "location": loc})
		}
		return items, nil

	case strings.HasPrefix(joined, "group create"):
		f.groups[name] = flagValue(fields, "-l")
		return map[string]string{"id": "/subscriptions/" + testSubscription + "/resourceGroups/" + name, "name": name}, nil

	case strings.HasPrefix(joined, "network vnet subnet list"):
		vnet := flagValue(fields, "--vnet-name")
		if _, ok := f.vnets[rg][vnet]; !ok {
			return nil, notFound(cmd, "virtual network "+vnet)
		}
		items := []map[string]string{}
		for n, prefix := range f.subnets[rg+"/"+vnet] {
			items = append(items, map[string]string{"name": n, "addressPrefix": prefix})
		}
		return items, nil

	case strings.HasPrefix(joined, "network vnet subnet create"):
		vnet := flagValue(fields, "--vnet-name")
		if _, ok := f.vnets[rg][vnet]; !ok {
			return nil, notFound(cmd, "virtual network "+vnet)
		}
		f.addSubnet(rg, vnet, name, flagValue(fields, "--address-prefixes"))
		return map[string]string{"id": subnetResourceID(rg, vnet, name), "name": name}, nil

	case strings.HasPrefix(joined, "network vnet subnet show"):
		vnet := flagValue(fields, "--vnet-name")
		if _, ok := f.subnets[rg+"/"+vnet][name]; !ok {
			return nil, notFound(cmd, "subnet "+name)
		}
		return map[string]string{"id": subnetResourceID(rg, vnet, name), "name": name}, nil

	case strings.HasPrefix(joined, "network vnet list"):
		if _, ok := f.groups[rg]; !ok {
			return nil, notFound(cmd, "resource group "+rg)
		}
		items := []map[string]string{}
		for n, loc := range f.vnets[rg] {
			items = append(items, map[string]string{"name": n, "location": loc})
		}
		return items, nil

	case strings.HasPrefix(joined, "network vnet create"):
		if _, ok := f.groups[rg]; !ok {
			return nil, notFound(cmd, "resource group "+rg)
		}
		f.addVNet(rg, name, flagValue(fields, "-l"))
		f.vnetCreateArgs = fields
		// az wraps the created network in "newVNet"
		return map[string]any{"newVNet": map[string]string{"id": vnetResourceID(rg, name), "name": name}}, nil

	case strings.HasPrefix(joined, "network vnet peering create"):
		vnet := flagValue(fields, "--vnet-name")
		if _, ok := f.vnets[rg][vnet]; !ok {
			return nil, notFound(cmd, "virtual network "+vnet)
		}
		f.peerings = append(f.peerings, name)
		return map[string]string{"id": vnetResourceID(rg, vnet) + "/virtualNetworkPeerings/" + name, "name": name, "peeringState": "Initiated"}, nil

	case strings.HasPrefix(joined, "aks list"):
		if _, ok := f.groups[rg]; !ok {
			return nil, notFound(cmd, "resource group "+rg)
		}
		items := []map[string]string{}
		for n, loc := range f.clusters[rg] {
			items = append(items, map[string]string{"name": n, "location": loc})
		}
		return items, nil

	case strings.HasPrefix(joined, "aks create"):
		for _, flag := range []string{"--pod-subnet-id", "--vnet-subnet-id"} {
			if flagValue(fields, flag) == "" {
				return nil, fmt.Errorf("aks create missing %s", flag)
			}
		}
		f.addCluster(rg, name, flagValue(fields, "-l"))
		return map[string]string{"id": clusterResourceID(rg, name), "name": name, "location": flagValue(fields, "-l")}, nil
	}

	return nil, fmt.Errorf("fakeAz: unhandled JSON command %q", joined)
}

func (f *fakeAz) Text(ctx context.Context, cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields, err := f.record(cmd)
	if err != nil {
		return "", err
	}

	rg := flagValue(fields, "-g")
	name := flagValue(fields, "-n")
	joined := strings.Join(fields, " ")

	switch {
	case strings.HasPrefix(joined, "network vnet show") && flagValue(fields, "--query") == "id":
		if _, ok := f.vnets[rg][name]; !ok {
			return "", notFound(cmd, "virtual network "+name)
		}
		return vnetResourceID(rg, name), nil

	case strings.HasPrefix(joined, "aks get-credentials"):
		if _, ok := f.clusters[rg][name]; !ok {
			return "", notFound(cmd, "managed cluster "+name)
		}
		return "", nil
	}

	return "", fmt.Errorf("fakeAz: unhandled text command %q", joined)
}

// scriptedCLI answers commands with canned responses keyed by exact command text.
type scriptedCLI struct {
	mu        sync.Mutex
	commands  []string
	responses map[string]string
}

func (s *scriptedCLI) JSONAllowEmpty(ctx context.Context, cmd string, out any) error {
	return s.JSON(ctx, cmd, out)
}

// JSON fails on empty responses the way azcli.Client does.
func (s *scriptedCLI) JSON(ctx context.Context, cmd string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.Join(strings.Fields(cmd), " ")
	s.commands = append(s.commands, key)
	resp, ok := s.responses[key]
	if !ok {
		return fmt.Errorf("scriptedCLI: no response for %q", key)
	}
	if err := json.Unmarshal([]byte(resp), out); err != nil {
		return &azcli.DecodeError{Args: strings.Fields(cmd), Output: resp, Err: err}
	}
	return nil
}

func (s *scriptedCLI) Text(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.Join(strings.Fields(cmd), " ")
	s.commands = append(s.commands, key)
	resp, ok := s.responses[key]
	if !ok {
		return "", fmt.Errorf("scriptedCLI: no response for %q", key)
	}
	return resp, nil
}
