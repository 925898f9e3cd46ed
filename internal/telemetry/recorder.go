// Package telemetry records project operations as OpenTelemetry metrics
// and log events. Each Record function increments a counter and emits one
// log record. Until [Init] installs real providers the global no-op
// providers absorb everything, so callers never check whether telemetry is
// enabled.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterRecorderName = "github.com/iotworkbench/iotwb"
	loggerName        = "iotwb"
)

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	projectLoadTotal   metric.Int64Counter
	projectCreateTotal metric.Int64Counter
	deviceGenTotal     metric.Int64Counter
	configReloadTotal  metric.Int64Counter
	commandTotal       metric.Int64Counter

	projectLoadHist metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     recorderInstruments
)

// initInstruments registers the instruments against the current global
// MeterProvider. Called lazily on first use, so Init must run before the
// first Record call for metrics to reach a real exporter.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterRecorderName)

		inst.projectLoadTotal, _ = m.Int64Counter("iotwb.project.loads.total",
			metric.WithDescription("Total IoT workspace project loads"),
		)
		inst.projectCreateTotal, _ = m.Int64Counter("iotwb.project.creates.total",
			metric.WithDescription("Total IoT workspace project creations"),
		)
		inst.deviceGenTotal, _ = m.Int64Counter("iotwb.device.generations.total",
			metric.WithDescription("Total device metadata files generated"),
		)
		inst.configReloadTotal, _ = m.Int64Counter("iotwb.config.reloads.total",
			metric.WithDescription("Total project reloads triggered by file changes"),
		)
		inst.commandTotal, _ = m.Int64Counter("iotwb.commands.total",
			metric.WithDescription("Total CLI command invocations"),
		)

		inst.projectLoadHist, _ = m.Float64Histogram("iotwb.project.load.duration_ms",
			metric.WithDescription("Project load latency in milliseconds"),
			metric.WithUnit("ms"),
		)
	})
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// emit sends an OTel log event with the given body, the telemetry context,
// and extra key-value attributes.
func emit(ctx context.Context, tc *Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	r.AddAttributes(tc.logKVs()...)
	logger.Emit(ctx, r)
}

// errKV returns a log KeyValue with the error message, or empty string if nil.
func errKV(err error) otellog.KeyValue {
	if err != nil {
		return otellog.String("error", err.Error())
	}
	return otellog.String("error", "")
}

// severity returns SeverityInfo on success, SeverityError on failure.
func severity(err error) otellog.Severity {
	if err != nil {
		return otellog.SeverityError
	}
	return otellog.SeverityInfo
}

// RecordProjectLoad records one project load attempt.
func RecordProjectLoad(ctx context.Context, tc *Context, root, scaffold string, initial bool, durationMs float64, err error) {
	initInstruments()
	status := statusStr(err)
	attrs := metric.WithAttributes(
		attribute.String("scaffold", scaffold),
		attribute.Bool("initial", initial),
		attribute.String("status", status),
	)
	inst.projectLoadTotal.Add(ctx, 1, attrs)
	inst.projectLoadHist.Record(ctx, durationMs, attrs)
	emit(ctx, tc, "project.load", severity(err),
		otellog.String("root", root),
		otellog.String("scaffold", scaffold),
		otellog.Bool("initial", initial),
		otellog.Float64("duration_ms", durationMs),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordProjectCreate records one project creation attempt.
func RecordProjectCreate(ctx context.Context, tc *Context, root, boardID, scaffold string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.projectCreateTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("board", boardID),
			attribute.String("scaffold", scaffold),
			attribute.String("status", status),
		),
	)
	emit(ctx, tc, "project.create", severity(err),
		otellog.String("root", root),
		otellog.String("board", boardID),
		otellog.String("scaffold", scaffold),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordDeviceGenerate records generation of one device metadata file,
// e.g. "c_cpp_properties.json". skipped is true when generation was not
// possible on this host.
func RecordDeviceGenerate(ctx context.Context, tc *Context, boardID, artifact string, skipped bool, err error) {
	initInstruments()
	status := statusStr(err)
	if skipped && err == nil {
		status = "skipped"
	}
	inst.deviceGenTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("board", boardID),
			attribute.String("artifact", artifact),
			attribute.String("status", status),
		),
	)
	emit(ctx, tc, "device.generate", severity(err),
		otellog.String("board", boardID),
		otellog.String("artifact", artifact),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordConfigReload records a reload triggered by a watched file change.
func RecordConfigReload(ctx context.Context, root, changed string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.configReloadTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	emit(ctx, nil, "config.reload", severity(err),
		otellog.String("root", root),
		otellog.String("changed", changed),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordCommand records one CLI command invocation with the telemetry
// context the command accumulated.
func RecordCommand(ctx context.Context, tc *Context, name string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.commandTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", name),
			attribute.String("status", status),
		),
	)
	emit(ctx, tc, "command", severity(err),
		otellog.String("command", name),
		otellog.String("status", status),
		errKV(err),
	)
}
