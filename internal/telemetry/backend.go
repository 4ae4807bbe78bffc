package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
)

const backendScopeName = "github.com/roach88/structure/backend"

// InstrumentedBackend wraps a backend.Backend with a span per operation and
// structure.backend.* metrics.
type InstrumentedBackend struct {
	inner  backend.Backend
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ backend.Backend = (*InstrumentedBackend)(nil)

// Wrap decorates b using the providers' tracer and meter. When telemetry is
// disabled b is returned as-is.
func (p *Providers) Wrap(b backend.Backend) backend.Backend {
	if !p.enabled {
		return b
	}
	return WrapWith(b, p.tracer, p.meter)
}

// WrapWith decorates b with explicit providers. An instrument the meter
// fails to create is reported to otel.Handle and replaced by a no-op, so
// the backend keeps working without that metric.
func WrapWith(b backend.Backend, tp trace.TracerProvider, mp metric.MeterProvider) *InstrumentedBackend {
	m := mp.Meter(backendScopeName)
	fallback := metricnoop.Meter{}

	ops, err := m.Int64Counter("structure.backend.operations",
		metric.WithDescription("Total backend operations executed"),
	)
	if err != nil || ops == nil {
		otel.Handle(instrumentError("structure.backend.operations", err))
		ops, _ = fallback.Int64Counter("structure.backend.operations")
	}
	dur, err := m.Float64Histogram("structure.backend.operation.duration",
		metric.WithDescription("Backend operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil || dur == nil {
		otel.Handle(instrumentError("structure.backend.operation.duration", err))
		dur, _ = fallback.Float64Histogram("structure.backend.operation.duration")
	}
	errs, err := m.Int64Counter("structure.backend.errors",
		metric.WithDescription("Total backend operation errors"),
	)
	if err != nil || errs == nil {
		otel.Handle(instrumentError("structure.backend.errors", err))
		errs, _ = fallback.Int64Counter("structure.backend.errors")
	}

	return &InstrumentedBackend{
		inner:  b,
		tracer: tp.Tracer(backendScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

func instrumentError(name string, err error) error {
	if err == nil {
		err = errors.New("meter returned no instrument")
	}
	return fmt.Errorf("create instrument %s: %w", name, err)
}

// Unwrap returns the decorated backend.
func (b *InstrumentedBackend) Unwrap() backend.Backend {
	return b.inner
}

func (b *InstrumentedBackend) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time, []attribute.KeyValue) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := b.tracer.Start(ctx, "backend."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	b.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now(), all
}

func (b *InstrumentedBackend) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs []attribute.KeyValue) {
	ms := float64(time.Since(start).Microseconds()) / 1000
	b.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		attrs = append(attrs, attribute.String("structure.error.code", string(backend.CodeOf(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (b *InstrumentedBackend) ListProjects(ctx context.Context) ([]model.Project, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpListProjects)
	v, err := b.inner.ListProjects(ctx)
	span.SetAttributes(attribute.Int("structure.result.count", len(v)))
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) CreateProject(ctx context.Context, fields model.ProjectFields) (model.Project, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpCreateProject)
	v, err := b.inner.CreateProject(ctx, fields)
	span.SetAttributes(attribute.String("structure.project.id", v.ID))
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) EditProject(ctx context.Context, id string, fields model.ProjectFields) (model.Project, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpEditProject, attribute.String("structure.project.id", id))
	v, err := b.inner.EditProject(ctx, id, fields)
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) DeleteProject(ctx context.Context, id string) (bool, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpDeleteProject, attribute.String("structure.project.id", id))
	v, err := b.inner.DeleteProject(ctx, id)
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) RegenerateSecret(ctx context.Context, id string) (string, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpRegenerateSecret, attribute.String("structure.project.id", id))
	v, err := b.inner.RegenerateSecret(ctx, id)
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) ListCategories(ctx context.Context) ([]model.Category, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpListCategories)
	v, err := b.inner.ListCategories(ctx)
	span.SetAttributes(attribute.Int("structure.result.count", len(v)))
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) CreateCategory(ctx context.Context, projectID string, fields model.CategoryFields) (model.Category, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpCreateCategory, attribute.String("structure.project.id", projectID))
	v, err := b.inner.CreateCategory(ctx, projectID, fields)
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) EditCategory(ctx context.Context, id string, fields model.CategoryFields) (model.Category, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpEditCategory, attribute.String("structure.category.id", id))
	v, err := b.inner.EditCategory(ctx, id, fields)
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) DeleteCategory(ctx context.Context, projectID, name string) (bool, error) {
	ctx, span, t, attrs := b.op(ctx, backend.OpDeleteCategory,
		attribute.String("structure.project.id", projectID),
		attribute.String("structure.category.name", name),
	)
	v, err := b.inner.DeleteCategory(ctx, projectID, name)
	b.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBackend) Close() error {
	return b.inner.Close()
}
