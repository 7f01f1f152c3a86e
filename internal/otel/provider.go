// Package otel sets up the OpenTelemetry log and meter providers. Logs are
// written to a local file and optionally shipped over OTLP; metrics are
// snapshotted to a local file.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultMetricInterval = 30 * time.Second

// ErrNoLogOutput is returned when OTel is enabled with neither a log
// writer nor an OTLP endpoint.
var ErrNoLogOutput = errors.New("otel: enabled without a log writer or endpoint")

// Config describes the exporters to build.
type Config struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	LogWriter      io.Writer
	MetricWriter   io.Writer // nil disables metrics
	MetricInterval time.Duration
	Endpoint       string // OTLP/HTTP collector, empty to skip
	Insecure       bool
}

// Provider holds the SDK providers. The zero value is a disabled provider.
type Provider struct {
	logs   *sdklog.LoggerProvider
	meters *sdkmetric.MeterProvider
}

// New builds the providers described by cfg. A disabled config yields a
// provider whose methods are no-ops. The meter provider, when built, is
// also installed as the global one.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	ctx := context.Background()
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	exporters, err := logExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, exp := range exporters {
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout))))
	}
	p := &Provider{logs: sdklog.NewLoggerProvider(opts...)}

	if cfg.MetricWriter != nil {
		if p.meters, err = meterProvider(cfg, res); err != nil {
			_ = p.logs.Shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(p.meters)
	}
	return p, nil
}

func logExporters(ctx context.Context, cfg Config) ([]sdklog.Exporter, error) {
	var out []sdklog.Exporter

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("file log exporter: %w", err)
		}
		out = append(out, exp)
	}

	if cfg.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp log exporter for %s: %w", cfg.Endpoint, err)
		}
		out = append(out, exp)
	}

	if len(out) == 0 {
		return nil, ErrNoLogOutput
	}
	return out, nil
}

func meterProvider(cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.MetricWriter))
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)), nil
}

// Enabled reports whether any provider was built.
func (p *Provider) Enabled() bool {
	return p.logs != nil
}

// LoggerProvider feeds the otelslog bridge. Nil when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logs
}

// Meter returns a named meter, or a no-op meter when metrics are off.
func (p *Provider) Meter(name string) metric.Meter {
	if p.meters == nil {
		return noop.Meter{}
	}
	return p.meters.Meter(name)
}

// Flush exports everything buffered so far.
func (p *Provider) Flush(ctx context.Context) error {
	var errs []error
	if p.logs != nil {
		errs = append(errs, p.logs.ForceFlush(ctx))
	}
	if p.meters != nil {
		errs = append(errs, p.meters.ForceFlush(ctx))
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops both providers. Each is shut down even if the
// other fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.logs != nil {
		errs = append(errs, p.logs.Shutdown(ctx))
	}
	if p.meters != nil {
		errs = append(errs, p.meters.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
