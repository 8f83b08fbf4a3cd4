package oteltrace

import (
	"context"

	"github.com/alxiri/fulfillment/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns an observability.Tracer backed by the global OTel provider.
// Exporter setup (sdktrace.TracerProvider + otel.SetTracerProvider) is the
// deployment's responsibility; without it spans are no-ops.
func New(name string) observability.Tracer {
	if name == "" {
		name = "fulfillment"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
