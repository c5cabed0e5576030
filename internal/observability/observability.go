// Package observability wires the process-wide slog handler.
//
// Text and JSON formats log to stderr. The otlp format bridges slog into the
// OpenTelemetry log SDK via otelslog, with the exporter protocol chosen by
// OTEL_EXPORTER_OTLP_PROTOCOL (grpc or http/protobuf; a stdout exporter is
// used when unset, for local inspection). Records below the configured level
// are dropped in the processor via minsev, before they reach the exporter.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatOTLP = "otlp"
)

// loggerProvider holds the otel provider for Shutdown when the otlp format is
// active.
var loggerProvider atomic.Pointer[sdklog.LoggerProvider]

// Instrument installs the process-wide slog default handler.
func Instrument(level slog.Level, format string) error {
	switch format {
	case FormatText:
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	case FormatJSON:
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	case FormatOTLP:
		return instrumentOTLP(level)
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}
}

func instrumentOTLP(level slog.Level) error {
	ctx := context.Background()

	exporter, err := newOTLPExporter(ctx)
	if err != nil {
		return fmt.Errorf("creating log exporter: %w", err)
	}

	processor := minsev.NewLogProcessor(
		sdklog.NewBatchProcessor(exporter),
		severityFromLevel(level),
	)
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	loggerProvider.Store(provider)

	slog.SetDefault(otelslog.NewLogger("linearctl", otelslog.WithLoggerProvider(provider)))
	return nil
}

func newOTLPExporter(ctx context.Context) (sdklog.Exporter, error) {
	switch os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") {
	case "grpc":
		return otlploggrpc.New(ctx)
	case "http/protobuf", "http":
		return otlploghttp.New(ctx)
	default:
		return stdoutlog.New()
	}
}

// Shutdown flushes and stops the otel logger provider, if one was installed.
// Safe to call regardless of the active format.
func Shutdown(ctx context.Context) error {
	provider := loggerProvider.Swap(nil)
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// severityFromLevel maps slog levels onto otel log severities.
func severityFromLevel(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.Severity(otellog.SeverityError)
	case level >= slog.LevelWarn:
		return minsev.Severity(otellog.SeverityWarn)
	case level >= slog.LevelInfo:
		return minsev.Severity(otellog.SeverityInfo)
	default:
		return minsev.Severity(otellog.SeverityDebug)
	}
}
