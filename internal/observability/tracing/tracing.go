// Package tracing configures OpenTelemetry tracing for staffgate.
//
// Custom span attributes use the `staffgate.` prefix and never carry credentials or tokens.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vitalora/staffgate"

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider installs a global tracer provider exporting over OTLP gRPC.
// An empty endpoint leaves the noop provider in place.
// The returned shutdown function flushes pending spans.
func InitTraceProvider(ctx context.Context, endpoint, serviceName, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartLoginSpan creates the span for a login attempt.
func StartLoginSpan(ctx context.Context, mode string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "staff.login",
		trace.WithAttributes(attribute.String("staffgate.auth_mode", mode)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartAuthenticateSpan creates the span for a session token check.
func StartAuthenticateSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "staff.authenticate", trace.WithSpanKind(trace.SpanKindInternal))
}

// StartPruneSpan creates the span for an audit retention run.
func StartPruneSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "staff.audit.prune")
}

// EndSpan records the outcome label and err, then ends span.
func EndSpan(span trace.Span, result string, err error) {
	span.SetAttributes(attribute.String("staffgate.result", result))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	span.End()
}
