// Package kubeconfig reads the kubeconfig that az aks get-credentials merges into.
package kubeconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// GetPath returns the path to the kubeconfig file kubectl reads first.
// It checks the KUBECONFIG environment variable first, then falls back to DefaultPath.
// When KUBECONFIG holds a list of files, the first one is returned.
func GetPath() string {
	if kubeconfigEnv := os.Getenv("KUBECONFIG"); kubeconfigEnv != "" {
		if paths := filepath.SplitList(kubeconfigEnv); len(paths) > 0 && paths[0] != "" {
			return paths[0]
		}
	}
	return DefaultPath()
}

// DefaultPath returns ~/.kube/config, the file az aks get-credentials writes to when
// --file is not given. KUBECONFIG does not change it.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kube", "config")
	}
	return filepath.Join(homeDir, ".kube", "config")
}

// LoadFromPath loads the kubeconfig from the specified path.
func LoadFromPath(path string) (*clientcmdapi.Config, error) {
	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig from %s: %w", path, err)
	}
	return cfg, nil
}

// ContextNames returns the sorted context names in the kubeconfig.
func ContextNames(config *clientcmdapi.Config) []string {
	names := make([]string, 0, len(config.Contexts))
	for name := range config.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CurrentContext returns the context kubectl would use.
func CurrentContext(config *clientcmdapi.Config) string {
	return config.CurrentContext
}

// ContextLister returns a function that re-reads path on every call and lists its
// contexts. An empty path means DefaultPath at call time, matching where az writes.
func ContextLister(path string) func() ([]string, error) {
	return func() ([]string, error) {
		p := path
		if p == "" {
			p = DefaultPath()
		}
		cfg, err := LoadFromPath(p)
		if err != nil {
			return nil, err
		}
		return ContextNames(cfg), nil
	}
}
