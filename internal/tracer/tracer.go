// Package tracer provides distributed tracing abstractions for wee.
// It supports OpenTelemetry and allows custom tracer implementations.
package tracer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by wee.
const InstrumentationName = "github.com/coregx/wee"

// Tracer starts a span around one statement execution.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span is an in-flight statement span. End records the statement metadata
// and completes the span; it must be called exactly once.
type Span interface {
	End(meta *Metadata)
}

// Metadata describes an executed statement. Attribute names follow the
// OpenTelemetry database semantic conventions.
type Metadata struct {
	System       string // postgres, mysql, sqlite
	Statement    string
	Operation    string // SELECT, INSERT, UPDATE, DELETE
	Table        string
	Duration     time.Duration
	RowsAffected int64
	Err          error
}

// Attributes converts the metadata to span attributes.
func (m *Metadata) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", m.System),
		attribute.String("db.statement", m.Statement),
		attribute.String("db.operation", m.Operation),
		attribute.Float64("db.duration_ms", float64(m.Duration.Microseconds())/1000.0),
	}
	if m.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", m.Table))
	}
	if m.RowsAffected > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", m.RowsAffected))
	}
	return attrs
}

// NoopTracer is the default tracer; it records nothing.
type NoopTracer struct{}

// Start returns ctx unchanged with a span that does nothing.
func (NoopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(*Metadata) {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a tracer from an OpenTelemetry tracer provider.
func NewOtelTracer(provider trace.TracerProvider) *OtelTracer {
	return &OtelTracer{tracer: provider.Tracer(InstrumentationName)}
}

// Start starts a client span.
func (t *OtelTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(meta *Metadata) {
	if meta != nil {
		s.span.SetAttributes(meta.Attributes()...)
		if meta.Err != nil {
			s.span.RecordError(meta.Err)
			s.span.SetStatus(codes.Error, meta.Err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
	}
	s.span.End()
}

// DetectOperation returns the leading SQL verb: SELECT, INSERT, UPDATE,
// DELETE or UNKNOWN.
func DetectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	if strings.HasPrefix(sql, "WITH") {
		return "SELECT"
	}
	return "UNKNOWN"
}
