// Package obslog wires up the runtime's structured logging and tracing:
// a zerolog logger configured for console or JSON output, and a thin
// OpenTelemetry span helper around node evaluation and agent calls.
package obslog

import (
	"context"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger: a human-readable console
// writer to stderr when stderr is a terminal, JSON lines otherwise —
// mirroring the condition the pack uses zerolog console writers under.
func Setup(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	log.Logger = logger
	return logger
}

// tracerName identifies this module's spans in the no-op tracer provider
// (or a real one, should the host process install one).
const tracerName = "github.com/agentnodes/nodeflow"

// StartSpan opens a span named name around a node evaluation or agent
// call. Callers must call the returned end function.
func StartSpan(ctx context.Context, name string) (context.Context, func()) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}

// SpanFromContext exposes the active span, for attaching attributes at
// call sites that don't own the span's lifetime.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
