// Package botsyotel wires OpenTelemetry tracing into tool execution. Apply
// Middleware to a Registry with Use; every dispatched call then runs inside
// its own span.
package botsyotel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/botsy"
)

// tracerName identifies this instrumentation library on every span.
const tracerName = "github.com/skosovsky/botsy/ext/botsyotel"

type options struct {
	provider trace.TracerProvider
}

// Option configures the middleware.
type Option func(*options)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.provider = tp
		}
	}
}

// Middleware returns a middleware that runs every Execute call inside a span
// named "tool <name>". A handler error is recorded on the span and sets its
// status to Error; the call's result and error pass through unchanged.
func Middleware(opts ...Option) botsy.Middleware {
	o := options{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	tracer := o.provider.Tracer(tracerName)
	return func(next botsy.Tool) botsy.Tool {
		return &tracingTool{next: next, tracer: tracer}
	}
}

type tracingTool struct {
	next   botsy.Tool
	tracer trace.Tracer
}

func (t *tracingTool) Name() string              { return t.next.Name() }
func (t *tracingTool) Description() string       { return t.next.Description() }
func (t *tracingTool) Parameters() *botsy.Schema { return t.next.Parameters() }

// Metadata passes through so the registry still resolves per-tool timeouts
// on wrapped tools.

func (t *tracingTool) Timeout() time.Duration {
	if tm, ok := t.next.(botsy.ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}

func (t *tracingTool) Tags() []string {
	if tm, ok := t.next.(botsy.ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}

func (t *tracingTool) Version() string {
	if tm, ok := t.next.(botsy.ToolMetadata); ok {
		return tm.Version()
	}
	return ""
}

func (t *tracingTool) IsDangerous() bool {
	if tm, ok := t.next.(botsy.ToolMetadata); ok {
		return tm.IsDangerous()
	}
	return false
}

func (t *tracingTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	name := t.next.Name()
	attrs := []attribute.KeyValue{attribute.String("tool.name", name)}
	if tm, ok := t.next.(botsy.ToolMetadata); ok {
		if v := tm.Version(); v != "" {
			attrs = append(attrs, attribute.String("tool.version", v))
		}
		if tm.IsDangerous() {
			attrs = append(attrs, attribute.Bool("tool.dangerous", true))
		}
	}
	ctx, span := t.tracer.Start(ctx, "tool "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	res, err := t.next.Execute(ctx, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(attribute.Int("tool.result_chars", len(res)))
	return res, nil
}

var (
	_ botsy.Tool         = (*tracingTool)(nil)
	_ botsy.ToolMetadata = (*tracingTool)(nil)
)
