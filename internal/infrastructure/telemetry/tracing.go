package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for service spans
const TracerName = "stocksync"

// Span attribute keys shared by sync spans
const (
	AttrCompanyID = attribute.Key("stocksync.company_id")
	AttrStoreID   = attribute.Key("stocksync.store_id")
	AttrProductID = attribute.Key("stocksync.product_id")
	AttrMasterSKU = attribute.Key("stocksync.master_sku")
	AttrEvent     = attribute.Key("stocksync.event")
	AttrTargets   = attribute.Key("stocksync.targets")
)

// StartSpan starts an internal span on the global tracer provider.
// The caller must end it, usually through EndSpan.
//
//	ctx, span := telemetry.StartSpan(ctx, "stock_sync.webhook", telemetry.AttrStoreID.String(id))
//	defer func() { telemetry.EndSpan(span, err) }()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err, if any, sets the span status and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the active trace ID or "" when there is none
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
