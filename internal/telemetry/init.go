package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Environment variables that enable export.
const (
	EnvMetricsURL = "IOTWB_OTEL_METRICS_URL"
	EnvLogsURL    = "IOTWB_OTEL_LOGS_URL"
)

// Config selects the OTLP HTTP endpoints. Empty URLs disable that signal.
type Config struct {
	MetricsURL     string
	LogsURL        string
	ServiceVersion string
	// ExportInterval is the metric push period (default 30s).
	ExportInterval time.Duration
}

// ConfigFromEnv reads endpoint URLs with getenv.
func ConfigFromEnv(getenv func(string) string, version string) Config {
	return Config{
		MetricsURL:     getenv(EnvMetricsURL),
		LogsURL:        getenv(EnvLogsURL),
		ServiceVersion: version,
	}
}

// Enabled reports whether any signal is exported.
func (c Config) Enabled() bool {
	return c.MetricsURL != "" || c.LogsURL != ""
}

// ShutdownFunc flushes and stops the providers installed by Init.
type ShutdownFunc func(context.Context) error

// Init installs SDK meter and logger providers exporting over OTLP HTTP
// for the configured endpoints. With no endpoints it installs nothing and
// returns a no-op shutdown.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}
	if !cfg.Enabled() {
		return shutdown, nil
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", loggerName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	if cfg.MetricsURL != "" {
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(cfg.MetricsURL))
		if err != nil {
			return shutdown, fmt.Errorf("creating metric exporter: %w", err)
		}
		interval := cfg.ExportInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	if cfg.LogsURL != "" {
		exp, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(cfg.LogsURL))
		if err != nil {
			return shutdown, fmt.Errorf("creating log exporter: %w", err)
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		)
		global.SetLoggerProvider(lp)
		shutdowns = append(shutdowns, lp.Shutdown)
	}

	// Instruments bind to the provider current at first use.
	instOnce = sync.Once{}
	return shutdown, nil
}
