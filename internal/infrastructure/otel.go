package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "chavost-ventes"
	ServiceVersion = "1.0.0"
	MeterName      = "chavostd"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics. Traces go to stdout in
// development and are disabled otherwise; metrics are always exposed through
// the Prometheus exporter.
func InitializeOTel(development bool, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		semconv.DeploymentEnvironmentName(env),
	)

	providers := &OTelProviders{Logger: logger}

	tracerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if development {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		tracerOpts = append(tracerOpts, sdktrace.WithBatcher(exporter))
	}
	providers.TracerProvider = sdktrace.NewTracerProvider(tracerOpts...)
	otel.SetTracerProvider(providers.TracerProvider)
	providers.Tracer = providers.TracerProvider.Tracer(MeterName)

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	providers.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(providers.MeterProvider)
	providers.Meter = providers.MeterProvider.Meter(MeterName)
	providers.PrometheusHTTP = promhttp.Handler()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", ServiceName),
		slog.String("environment", env),
		slog.Bool("tracing", development))

	return providers, nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DatasetMetrics are the instruments recorded by the dataset service.
type DatasetMetrics struct {
	Loads        metric.Int64Counter
	LoadDuration metric.Float64Histogram
	RowsKept     metric.Int64Counter
	RowsDropped  metric.Int64Counter
	Appends      metric.Int64Counter
	Exports      metric.Int64Counter
}

// CreateDatasetMetrics registers the dataset instruments on the meter.
func CreateDatasetMetrics(meter metric.Meter) (*DatasetMetrics, error) {
	loads, err := meter.Int64Counter("dataset_loads_total",
		metric.WithDescription("Number of dataset loads, including cache hits"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("dataset_load_duration_seconds",
		metric.WithDescription("Time spent parsing and normalizing the dataset"))
	if err != nil {
		return nil, err
	}
	kept, err := meter.Int64Counter("dataset_rows_kept_total",
		metric.WithDescription("Rows surviving normalization"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64Counter("dataset_rows_dropped_total",
		metric.WithDescription("Rows dropped by numeric coercion"))
	if err != nil {
		return nil, err
	}
	appends, err := meter.Int64Counter("dataset_appends_total",
		metric.WithDescription("Append operations against the dataset file"))
	if err != nil {
		return nil, err
	}
	exports, err := meter.Int64Counter("dataset_exports_total",
		metric.WithDescription("Export downloads served"))
	if err != nil {
		return nil, err
	}

	return &DatasetMetrics{
		Loads:        loads,
		LoadDuration: duration,
		RowsKept:     kept,
		RowsDropped:  dropped,
		Appends:      appends,
		Exports:      exports,
	}, nil
}
