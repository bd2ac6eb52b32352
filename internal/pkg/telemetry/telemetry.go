package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InstrumentationName is the tracer and meter name used across the service.
const InstrumentationName = "duesreminder"

// Setup installs a global tracer provider exporting over OTLP/HTTP.
// With an empty endpoint nothing is installed and the no-op providers stay in place.
func Setup(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Instruments holds the counters recorded by the lifecycle actions.
type Instruments struct {
	RemindersSent   metric.Int64Counter
	RemindersFailed metric.Int64Counter
	Kicks           metric.Int64Counter
	RemovalFailures metric.Int64Counter
}

// NewInstruments registers the service counters on the global meter provider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(InstrumentationName)

	sent, err := meter.Int64Counter("reminders_sent_total",
		metric.WithDescription("Payment reminders delivered to members"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("reminders_failed_total",
		metric.WithDescription("Payment reminders that could not be delivered"))
	if err != nil {
		return nil, err
	}
	kicks, err := meter.Int64Counter("kicks_total",
		metric.WithDescription("Members marked kicked for non-payment"))
	if err != nil {
		return nil, err
	}
	removalFailures, err := meter.Int64Counter("group_removal_failures_total",
		metric.WithDescription("Group removals that failed during a kick"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		RemindersSent:   sent,
		RemindersFailed: failed,
		Kicks:           kicks,
		RemovalFailures: removalFailures,
	}, nil
}
