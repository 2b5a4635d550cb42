// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package monitoring

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/speedforceev/fleetstats/server/config"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
	b3prop "go.opentelemetry.io/contrib/propagators/b3"
	jaegerprop "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TelemetryConfigProvider abstracts the settings telemetry reads, so tests can
// pass a small stub instead of a loaded configuration.
type TelemetryConfigProvider interface {
	GetTracing() config.Tracing
	GetInstanceName() string
	GetServiceName() string
}

// ConfigProvider adapts a loaded *config.Config.
type ConfigProvider struct {
	Cfg *config.Config
}

func (p ConfigProvider) GetTracing() config.Tracing { return p.Cfg.Tracing }
func (p ConfigProvider) GetInstanceName() string    { return p.Cfg.InstanceName }
func (p ConfigProvider) GetServiceName() string     { return p.Cfg.ServiceName }

// Telemetry provides lifecycle management for OpenTelemetry tracing.
type Telemetry struct {
	mu      sync.Mutex
	started bool
	tp      *sdktrace.TracerProvider
	prov    TelemetryConfigProvider
	logger  *slog.Logger
}

// NewTelemetry returns a stopped Telemetry.
func NewTelemetry(prov TelemetryConfigProvider, logger *slog.Logger) *Telemetry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Telemetry{prov: prov, logger: logger}
}

// Start installs the global tracer provider and propagators when tracing is enabled.
// Calling it again is a no-op.
func (t *Telemetry) Start(ctx context.Context, appVersion string) {
	if t.prov == nil {
		return
	}

	cfg := t.prov.GetTracing()
	if !cfg.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return
	}

	svcName := ResolveServiceName(cfg.ServiceName, t.prov.GetServiceName(), t.prov.GetInstanceName())

	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(svcName),
		semconv.ServiceVersionKey.String(appVersion),
		attribute.String("instance", t.prov.GetInstanceName()),
	))

	ratio := cfg.SamplerRatio
	if ratio < 0 {
		ratio = 0
	}

	if ratio > 1 {
		ratio = 1
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
	}

	if exp := t.newExporter(ctx, cfg); exp != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(newLoggingExporter(exp, cfg.LogExportResults, t.logger)))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTextMapPropagator(buildPropagators(cfg.Propagators))
	otel.SetTracerProvider(tp)

	t.tp = tp
	t.started = true

	level.Info(t.logger).Log(definitions.LogKeyMsg, "OpenTelemetry tracing enabled", definitions.LogKeyService, svcName, "exporter", cfg.Exporter)
}

// newExporter returns nil for the "none" exporter or when the exporter cannot be built.
func (t *Telemetry) newExporter(ctx context.Context, cfg config.Tracing) sdktrace.SpanExporter {
	if !strings.EqualFold(cfg.Exporter, "otlphttp") {
		return nil
	}

	var opts []otlptracehttp.Option

	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}

	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		level.Warn(t.logger).Log(definitions.LogKeyMsg, "Failed to initialize OTLP/HTTP exporter", definitions.LogKeyError, err)

		return nil
	}

	return exp
}

// Started reports whether a tracer provider is installed.
func (t *Telemetry) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.started
}

// Shutdown flushes and closes the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || t.tp == nil {
		return
	}

	if err := t.tp.Shutdown(ctx); err != nil {
		level.Warn(t.logger).Log(definitions.LogKeyMsg, "OpenTelemetry shutdown failed", definitions.LogKeyError, err)
	}

	t.started = false
	t.tp = nil
}

// loggingExporter logs export failures at warn level and, optionally, successes at info level.
type loggingExporter struct {
	delegate   sdktrace.SpanExporter
	logSuccess bool
	logger     *slog.Logger
}

func newLoggingExporter(delegate sdktrace.SpanExporter, logSuccess bool, logger *slog.Logger) sdktrace.SpanExporter {
	return &loggingExporter{delegate: delegate, logSuccess: logSuccess, logger: logger}
}

func (l *loggingExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if err := l.delegate.ExportSpans(ctx, spans); err != nil {
		level.Warn(l.logger).Log(
			definitions.LogKeyMsg, "OpenTelemetry trace export failed",
			definitions.LogKeyError, err,
			"span_count", len(spans),
		)

		return err
	}

	if l.logSuccess {
		level.Info(l.logger).Log(definitions.LogKeyMsg, "OpenTelemetry traces exported", "span_count", len(spans))
	}

	return nil
}

func (l *loggingExporter) Shutdown(ctx context.Context) error {
	if err := l.delegate.Shutdown(ctx); err != nil {
		level.Warn(l.logger).Log(definitions.LogKeyMsg, "OpenTelemetry exporter shutdown failed", definitions.LogKeyError, err)

		return err
	}

	return nil
}

func buildPropagators(names []string) propagation.TextMapPropagator {
	var list []propagation.TextMapPropagator

	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "tracecontext":
			list = append(list, propagation.TraceContext{})
		case "baggage":
			list = append(list, propagation.Baggage{})
		case "b3":
			list = append(list, b3prop.New())
		case "b3multi":
			list = append(list, b3prop.New(b3prop.WithInjectEncoding(b3prop.B3MultipleHeader)))
		case "jaeger":
			list = append(list, jaegerprop.Jaeger{})
		}
	}

	if len(list) == 0 {
		list = append(list, propagation.TraceContext{}, propagation.Baggage{})
	}

	return propagation.NewCompositeTextMapPropagator(list...)
}
