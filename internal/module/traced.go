package module

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracedLoader records a span around every load issued to Next.
type TracedLoader struct {
	Next   Loader
	tracer oteltrace.Tracer
}

// NewTracedLoader wraps next with spans from tp.
func NewTracedLoader(next Loader, tp oteltrace.TracerProvider) *TracedLoader {
	return &TracedLoader{
		Next:   next,
		tracer: tp.Tracer("arcshell/module"),
	}
}

// Load implements Loader.
func (t *TracedLoader) Load(ctx context.Context, d Descriptor) error {
	ctx, span := t.tracer.Start(ctx, "module.load",
		oteltrace.WithAttributes(
			attribute.String("arcshell.module.id", d.ID),
			attribute.String("arcshell.module.resource", d.Resource),
			attribute.Bool("arcshell.module.local", d.Local),
		),
	)
	defer span.End()

	err := t.Next.Load(ctx, d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
