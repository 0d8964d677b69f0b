// Package telemetry configures OpenTelemetry tracing for the provisioner.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is the tracer and resource name used throughout the module.
const ServiceName = "aks-provisioner"

const defaultEndpoint = "localhost:4317"

// Setup initializes OpenTelemetry based on environment configuration.
// OTEL_EXPORTER: "none" (default), "console", "otlp", or "both"
// OTEL_ENDPOINT: OTLP endpoint (default: "localhost:4317")
func Setup(ctx context.Context, version string) (trace.Tracer, func(context.Context) error, error) {
	return SetupWithEnv(ctx, version, os.Getenv)
}

// SetupWithEnv is Setup with the environment read through getenv.
func SetupWithEnv(ctx context.Context, version string, getenv func(string) string) (trace.Tracer, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporters, err := newExporters(ctx, getenv("OTEL_EXPORTER"), getenv("OTEL_ENDPOINT"))
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)
	for _, exporter := range exporters {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}

	otel.SetTracerProvider(tp)

	return tp.Tracer(ServiceName), tp.Shutdown, nil
}

// newExporters builds the span exporters for an OTEL_EXPORTER value. With "none"
// spans are still collected but not exported.
func newExporters(ctx context.Context, exporterType, endpoint string) ([]sdktrace.SpanExporter, error) {
	var console, otlp bool
	switch exporterType {
	case "", "none":
	case "console":
		console = true
	case "otlp":
		otlp = true
	case "both":
		console, otlp = true, true
	default:
		return nil, fmt.Errorf("unknown OTEL_EXPORTER %q (want none, console, otlp or both)", exporterType)
	}

	var exporters []sdktrace.SpanExporter
	if console {
		// stderr keeps traces out of command output
		consoleExporter, err := stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		exporters = append(exporters, consoleExporter)
	}
	if otlp {
		if endpoint == "" {
			endpoint = defaultEndpoint
		}
		// TODO: add an OTEL_INSECURE switch once a TLS collector is in use
		otlpExporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporters = append(exporters, otlpExporter)
	}
	return exporters, nil
}
