package kafkax

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEventMessageMeta(t *testing.T) {
	msg := NewEventMessage(EventMeta{EventID: "evt-1", EventType: "booking.appointment.requested.v1"}, "appt-1", []byte(`{}`))
	if msg.Topic != "booking.appointment.requested.v1" || string(msg.Key) != "appt-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != msg.Topic {
		t.Fatalf("unexpected meta %+v", meta)
	}

	msg.Headers = nil
	meta = ExtractEventMeta(msg)
	if meta.EventID != "appt-1" || meta.EventType != msg.Topic {
		t.Fatalf("expected fallbacks to key and topic, got %+v", meta)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" a:9092, ,b:9092,")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	msg := NewEventMessage(EventMeta{EventID: "e", EventType: "t"}, "k", nil)
	msg.Headers = InjectTraceHeaders(ctx, msg.Headers)
	if HeaderValue(msg.Headers, "traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msg))
	if got.TraceID() != traceID {
		t.Fatalf("trace id mismatch: %s", got.TraceID())
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error without brokers")
	}
}
