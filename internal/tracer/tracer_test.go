package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	return recorder, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	gotCtx, span := NoopTracer{}.Start(ctx, "wee.query")

	assert.Equal(t, ctx, gotCtx)
	assert.NotPanics(t, func() { span.End(&Metadata{Err: errors.New("ignored")}) })
	assert.NotPanics(t, func() { span.End(nil) })
}

func TestOtelTracer_Success(t *testing.T) {
	recorder, tp := newRecorder()
	tr := NewOtelTracer(tp)

	_, span := tr.Start(context.Background(), "wee.query")
	span.End(&Metadata{
		System:       "sqlite",
		Statement:    `UPDATE "users" SET "name" = ? WHERE "id" = ?`,
		Operation: "UPDATE",
		Table:        "users",
		Duration:     1500 * time.Microsecond,
		RowsAffected: 1,
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "wee.query", s.Name())
	assert.Equal(t, trace.SpanKindClient, s.SpanKind())
	assert.Equal(t, codes.Ok, s.Status().Code)
	assert.Equal(t, InstrumentationName, s.InstrumentationScope().Name)

	attrs := attrMap(s.Attributes())
	assert.Equal(t, "sqlite", attrs["db.system"].AsString())
	assert.Equal(t, "UPDATE", attrs["db.operation"].AsString())
	assert.Equal(t, "users", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(1), attrs["db.rows_affected"].AsInt64())
	assert.InDelta(t, 1.5, attrs["db.duration_ms"].AsFloat64(), 0.001)
}

func TestOtelTracer_Error(t *testing.T) {
	recorder, tp := newRecorder()
	tr := NewOtelTracer(tp)

	_, span := tr.Start(context.Background(), "wee.query")
	span.End(&Metadata{System: "mysql", Statement: "SELECT", Operation: "SELECT", Err: errors.New("connection lost")})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection lost", spans[0].Status().Description)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)

	attrs := attrMap(spans[0].Attributes())
	_, hasTable := attrs["db.sql.table"]
	assert.False(t, hasTable)
	_, hasRows := attrs["db.rows_affected"]
	assert.False(t, hasRows)
}

func TestDetectOperation(t *testing.T) {
	tests := map[string]string{
		`SELECT * FROM "users"`:            "SELECT",
		"  select 1":                       "SELECT",
		"WITH t AS (SELECT 1) SELECT *":    "SELECT",
		`INSERT INTO "users" ("a") VALUES`: "INSERT",
		`UPDATE "users" SET "a" = ?`:       "UPDATE",
		`delete from "users"`:              "DELETE",
		"PRAGMA foreign_keys = ON":         "UNKNOWN",
		"":                                 "UNKNOWN",
	}
	for sql, want := range tests {
		assert.Equal(t, want, DetectOperation(sql), sql)
	}
}
