package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/abcompare/logger"
)

// MeterConfig selects the OTLP/HTTP metric exporter.
type MeterConfig struct {
	// Endpoint is host:port of the collector. Empty disables metrics.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// Interval between exports. Zero uses the SDK default.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// Enabled reports whether an exporter endpoint is configured.
func (c MeterConfig) Enabled() bool { return c.Endpoint != "" }

// initMeter installs a periodic OTLP meter provider as the otel global. The
// caller shuts the provider down.
func initMeter(ctx context.Context, svc ServiceInfo, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("metrics enabled", logger.Fields("service", svc.Name, "endpoint", config.Endpoint, "interval", config.Interval.String()))

	return mp, nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by pipeline runs and comparisons.
type Metrics struct {
	stepTotal        metric.Int64Counter
	stepDuration     metric.Float64Histogram
	pipelineTotal    metric.Int64Counter
	pipelineDuration metric.Float64Histogram
	verdictTotal     metric.Int64Counter
	errorTotal       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	stepTotal, err := meter.Int64Counter("pipeline.step.total",
		metric.WithDescription("Steps finished, by pipeline, step and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.step.total counter: %w", err)
	}

	stepDuration, err := meter.Float64Histogram("pipeline.step.duration",
		metric.WithDescription("Duration of step actions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.step.duration histogram: %w", err)
	}

	pipelineTotal, err := meter.Int64Counter("pipeline.run.total",
		metric.WithDescription("Pipeline runs finished, by pipeline and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.run.total counter: %w", err)
	}

	pipelineDuration, err := meter.Float64Histogram("pipeline.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.run.duration histogram: %w", err)
	}

	verdictTotal, err := meter.Int64Counter("compare.verdict.total",
		metric.WithDescription("Quality verdicts, by target and verdict"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compare.verdict.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		stepTotal:        stepTotal,
		stepDuration:     stepDuration,
		pipelineTotal:    pipelineTotal,
		pipelineDuration: pipelineDuration,
		verdictTotal:     verdictTotal,
		errorTotal:       errorTotal,
	}, nil
}

// RecordStep records a finished step.
func (m *Metrics) RecordStep(ctx context.Context, pipeline, step, status string, duration time.Duration) {
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("step", step),
		attribute.String("status", status),
	))
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("step", step),
	))
}

// RecordPipeline records a finished pipeline run.
func (m *Metrics) RecordPipeline(ctx context.Context, pipeline, status string, duration time.Duration) {
	m.pipelineTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("status", status),
	))
	m.pipelineDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
	))
}

// RecordVerdict counts a quality verdict for a target.
func (m *Metrics) RecordVerdict(ctx context.Context, target, verdict string) {
	m.verdictTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("verdict", verdict),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
