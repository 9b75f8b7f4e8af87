package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Metrics holds all scheduling engine metrics
type Metrics struct {
	AppointmentsCreated   metric.Int64Counter
	AppointmentsCancelled metric.Int64Counter
	ScheduleConflicts     metric.Int64Counter
	RemindersSent         metric.Int64Counter
	NoShowsSwept          metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing and metrics export
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes scheduling engine metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/zatekoja/clinic-scheduling")

	created, err := meter.Int64Counter(
		"scheduler.appointments.created",
		metric.WithDescription("Number of appointments created"),
	)
	if err != nil {
		return nil, err
	}

	cancelled, err := meter.Int64Counter(
		"scheduler.appointments.cancelled",
		metric.WithDescription("Number of appointments cancelled"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter(
		"scheduler.conflicts",
		metric.WithDescription("Number of bookings rejected for schedule conflicts"),
	)
	if err != nil {
		return nil, err
	}

	reminders, err := meter.Int64Counter(
		"scheduler.reminders.sent",
		metric.WithDescription("Number of reminder notifications sent"),
	)
	if err != nil {
		return nil, err
	}

	noShows, err := meter.Int64Counter(
		"scheduler.noshows.swept",
		metric.WithDescription("Number of pending appointments swept to no-show"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AppointmentsCreated:   created,
		AppointmentsCancelled: cancelled,
		ScheduleConflicts:     conflicts,
		RemindersSent:         reminders,
		NoShowsSwept:          noShows,
	}, nil
}
