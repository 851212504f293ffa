package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// installRecorder swaps the global tracer provider for one backed by a span
// recorder, restoring the previous provider when the test ends.
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(span sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(span.Attributes()))
	for _, kv := range span.Attributes() {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "cleanup.sweep")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cleanup.sweep", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, TracerName, spans[0].InstrumentationScope().Name)
}

func TestStartSpan_WithOptions(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "hold.claim",
		WithAttribute(SpanAttrShortCode, "483921"),
		WithAttribute(SpanAttrQuantity, 3),
		WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())

	attrs := attrMap(spans[0])
	assert.Equal(t, "483921", attrs[SpanAttrShortCode].AsString())
	assert.Equal(t, int64(3), attrs[SpanAttrQuantity].AsInt64())
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartServiceSpan(context.Background(), "settings", "update")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "settings.update", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	SetAttributes(span,
		SpanAttrRestoredCount, 7,
		SpanAttrRunMode, "manual",
		42, "skipped: non-string key",
		"dangling", // odd trailing element is ignored
	)
	span.End()

	attrs := attrMap(recorder.Ended()[0])
	assert.Equal(t, int64(7), attrs[SpanAttrRestoredCount].AsInt64())
	assert.Equal(t, "manual", attrs[SpanAttrRunMode].AsString())
	assert.Len(t, attrs, 2)
}

func TestSetAttribute(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	SetAttribute(span, SpanAttrPharmacyID, "pharmacy-123")
	span.End()

	attrs := attrMap(recorder.Ended()[0])
	assert.Equal(t, "pharmacy-123", attrs[SpanAttrPharmacyID].AsString())
}

func TestNilSpanHelpersAreSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "key", "value")
		SetAttribute(nil, "key", "value")
		RecordError(nil, errors.New("boom"))
		SetOK(nil)
		AddEvent(nil, "event", "key", "value")
	})
}

func TestRecordError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	RecordError(span, errors.New("store unavailable"))
	span.End()

	got := recorder.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "store unavailable", got.Status().Description)

	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestRecordError_NilErrorLeavesSpanUntouched(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	RecordError(span, nil)
	span.End()

	got := recorder.Ended()[0]
	assert.Equal(t, codes.Unset, got.Status().Code)
	assert.Empty(t, got.Events())
}

func TestSetOK(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	SetOK(span)
	span.End()

	assert.Equal(t, codes.Ok, recorder.Ended()[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	AddEvent(span, "transaction_reconciled",
		SpanAttrTransactionID, "tx-1",
		SpanAttrQuantity, int64(12),
	)
	span.End()

	events := recorder.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "transaction_reconciled", events[0].Name)

	m := make(map[string]attribute.Value, len(events[0].Attributes))
	for _, kv := range events[0].Attributes {
		m[string(kv.Key)] = kv.Value
	}
	assert.Equal(t, "tx-1", m[SpanAttrTransactionID].AsString())
	assert.Equal(t, int64(12), m[SpanAttrQuantity].AsInt64())
}

func TestTraceAndSpanIDs(t *testing.T) {
	installRecorder(t)

	background := context.Background()
	assert.Empty(t, GetTraceID(background))
	assert.Empty(t, GetSpanID(background))

	ctx, span := StartSpan(background, "sweep")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), GetSpanID(ctx))
}

func TestContextWithSpanRoundTrip(t *testing.T) {
	installRecorder(t)

	_, span := StartSpan(context.Background(), "sweep")
	defer span.End()

	ctx := ContextWithSpan(context.Background(), span)
	assert.Equal(t, span, SpanFromContext(ctx))
}

type stringerValue struct{}

func (stringerValue) String() string { return "stringer" }

func TestToAttribute(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  attribute.KeyValue
	}{
		{"string", "abc", attribute.String("k", "abc")},
		{"int", 7, attribute.Int("k", 7)},
		{"int64", int64(7), attribute.Int64("k", 7)},
		{"float64", 1.5, attribute.Float64("k", 1.5)},
		{"bool", true, attribute.Bool("k", true)},
		{"string slice", []string{"a", "b"}, attribute.StringSlice("k", []string{"a", "b"})},
		{"int slice", []int{1, 2}, attribute.IntSlice("k", []int{1, 2})},
		{"stringer", stringerValue{}, attribute.String("k", "stringer")},
		{"fallback", struct{ X int }{X: 1}, attribute.String("k", "{1}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toAttribute("k", tt.value))
		})
	}
}
