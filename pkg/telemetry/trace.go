// Package telemetry envuelve OpenTelemetry para los casos de uso.
// Sin SDK configurado los proveedores globales son noop y el costo es despreciable.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerPrefix = "github.com/jhoicas/pos-inventario-api/"

// StartSpan abre un span interno con el tracer del componente (ej. "application/sales").
func StartSpan(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.Tracer(tracerPrefix+component).Start(ctx, operation, opts...)
}

// EndSpan cierra el span registrando el error apuntado por errPtr, si lo hay.
func EndSpan(span trace.Span, errPtr *error) {
	defer span.End()
	if errPtr == nil || *errPtr == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(*errPtr)
	span.SetStatus(codes.Error, (*errPtr).Error())
}
