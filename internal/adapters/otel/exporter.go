package otel

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/mpylon/internal/ports"
)

const (
	serviceName    = "mpylon"
	serviceVersion = "1.0.0"
)

// Observer exports analyze request metrics to an OTEL Collector.
type Observer struct {
	provider      *sdkmetric.MeterProvider
	requestsTotal metric.Int64Counter
	failuresTotal metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// NewObserver creates an observer that pushes to the configured OTLP endpoint.
func NewObserver(ctx context.Context, cfg Config) (*Observer, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newObserver(provider)
}

func newObserver(provider *sdkmetric.MeterProvider) (*Observer, error) {
	meter := provider.Meter(serviceName)

	requestsTotal, err := meter.Int64Counter(
		"mpylon_analyze_requests_total",
		metric.WithDescription("Analyze requests dispatched"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating requests counter: %w", err)
	}

	failuresTotal, err := meter.Int64Counter(
		"mpylon_analyze_failures_total",
		metric.WithDescription("Analyze requests that ended in error"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"mpylon_analyze_duration_seconds",
		metric.WithDescription("Analyze request round trip in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Observer{
		provider:      provider,
		requestsTotal: requestsTotal,
		failuresTotal: failuresTotal,
		durationHist:  durationHist,
	}, nil
}

// ObserveRequest records one collected request.
func (o *Observer) ObserveRequest(ctx context.Context, out ports.RequestOutcome) {
	opt := metric.WithAttributes(
		attribute.String("analysis_type", string(out.AnalysisType)),
		attribute.String("target", out.Target),
		attribute.String("status", strconv.Itoa(out.StatusCode)),
	)

	o.requestsTotal.Add(ctx, 1, opt)
	if out.Failed {
		o.failuresTotal.Add(ctx, 1, opt)
	}
	o.durationHist.Record(ctx, out.Duration.Seconds(), opt)
}

// Close shuts down the provider and flushes any pending metrics.
func (o *Observer) Close(ctx context.Context) error {
	return o.provider.Shutdown(ctx)
}
