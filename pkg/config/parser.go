package config

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Environment variables that override the naming fields of the configuration.
const (
	EnvName        = "AKSPROV_NAME"
	EnvLocation    = "AKSPROV_LOCATION"
	EnvEnvironment = "AKSPROV_ENVIRONMENT"
	EnvSuffix      = "AKSPROV_SUFFIX"
)

// ParseConfig loads the configuration from a YAML file and fills omitted fields with
// defaults. An empty path yields the default configuration.
func ParseConfig(ctx context.Context, fs afero.Fs, filePath string) (*Config, error) {
	tracer := otel.Tracer("aks-provisioner")
	_, span := tracer.Start(ctx, "config.ParseConfig")
	defer span.End()

	span.SetAttributes(attribute.String("config.file", filePath))

	if filePath == "" {
		return Default(), nil
	}

	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	// custom_headers: "" turns the header off, so an explicit empty value must
	// survive defaulting
	var explicit struct {
		Cluster struct {
			CustomHeaders *string `yaml:"custom_headers"`
		} `yaml:"cluster"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	cfg.ApplyDefaults()
	if explicit.Cluster.CustomHeaders != nil {
		cfg.Cluster.CustomHeaders = *explicit.Cluster.CustomHeaders
	}

	span.SetAttributes(
		attribute.String("config.name", cfg.Name),
		attribute.String("config.location", cfg.Location),
	)

	return &cfg, nil
}

// ApplyEnv overrides the naming fields with non-empty values returned by getenv.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := map[string]*string{
		EnvName:        &c.Name,
		EnvLocation:    &c.Location,
		EnvEnvironment: &c.Environment,
		EnvSuffix:      &c.Suffix,
	}
	for key, field := range overrides {
		if v := getenv(key); v != "" {
			*field = v
		}
	}
}

// Marshal renders the configuration as YAML, used by the validate command.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
