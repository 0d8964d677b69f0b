// Package azcli runs the Azure CLI (az) and decodes its output.
package azcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultBinary is the executable used when no path is configured.
const DefaultBinary = "az"

// Format is the value passed to az's --output flag.
type Format string

const (
	// FormatJSON makes az print a JSON document.
	FormatJSON Format = "json"

	// FormatTSV makes az print tab-separated values, used for scalar queries.
	FormatTSV Format = "tsv"
)

// Runner executes a binary and returns what it wrote to stdout and stderr.
// A non-nil error means the process could not be started or exited non-zero.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Client builds az invocations from command strings.
type Client struct {
	binary string
	runner Runner
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the path of the az executable.
func WithBinary(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithRunner replaces the process runner. Tests use it to record invocations.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// New creates a Client that shells out to az.
func New(opts ...Option) *Client {
	c := &Client{
		binary: DefaultBinary,
		runner: shellRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the az executable the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// Args splits a command string on whitespace and appends the output flag.
// Multi-line command strings are accepted, which keeps long create commands readable.
func Args(command string, format Format) []string {
	if format == "" {
		format = FormatJSON
	}
	args := strings.Fields(command)
	return append(args, "-o", string(format))
}

// Run invokes az with the given command and returns its raw stdout.
func (c *Client) Run(ctx context.Context, command string, format Format) ([]byte, error) {
	tracer := otel.Tracer("aks-provisioner")
	ctx, span := tracer.Start(ctx, "azcli.Run")
	defer span.End()

	args := Args(command, format)
	span.SetAttributes(
		attribute.String("azcli.binary", c.binary),
		attribute.String("azcli.command", strings.Join(args, " ")),
	)

	slog.Debug("Running az", "args", args)

	stdout, stderr, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		cmdErr := &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(string(stderr)),
			Err:    err,
		}
		span.RecordError(cmdErr)
		return nil, cmdErr
	}

	span.SetAttributes(attribute.Int("azcli.stdout_bytes", len(stdout)))
	return stdout, nil
}

// JSON invokes az with JSON output and decodes the result into out. Empty output is
// a *DecodeError: list and show commands always print a document.
func (c *Client) JSON(ctx context.Context, command string, out any) error {
	return c.json(ctx, command, out, false)
}

// JSONAllowEmpty is JSON for create commands, some of which print nothing on success.
// Empty output leaves out untouched.
func (c *Client) JSONAllowEmpty(ctx context.Context, command string, out any) error {
	return c.json(ctx, command, out, true)
}

func (c *Client) json(ctx context.Context, command string, out any, allowEmpty bool) error {
	stdout, err := c.Run(ctx, command, FormatJSON)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(stdout)) == 0 {
		if allowEmpty {
			return nil
		}
		return &DecodeError{
			Args: Args(command, FormatJSON),
			Err:  errEmptyOutput,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(stdout, out); err != nil {
		return &DecodeError{
			Args:   Args(command, FormatJSON),
			Output: string(stdout),
			Err:    err,
		}
	}
	return nil
}

// Text invokes az with TSV output and returns the trimmed text.
func (c *Client) Text(ctx context.Context, command string) (string, error) {
	stdout, err := c.Run(ctx, command, FormatTSV)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// CommandError reports an az invocation that could not run or exited non-zero.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("az %s failed: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

var errEmptyOutput = errors.New("empty output")

// DecodeError reports az output that was expected to be JSON but was not.
type DecodeError struct {
	Args   []string
	Output string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode output of az %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
