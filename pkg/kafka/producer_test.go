package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	return headerCarrier{headers: &msg.Headers}.Get(key)
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("user.registered", "u-1", "user", "microblog", map[string]string{"email": "a@b.io"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, 1, e.Version)
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, 2*time.Second)
	assert.JSONEq(t, `{"email":"a@b.io"}`, string(e.Data))

	_, err = NewEvent("x", "y", "z", "s", make(chan int))
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, []string{"localhost:9092"}, discardLogger())

	e, err := NewEvent("user.verified", "u-1", "user", "microblog", map[string]string{"id": "u-1"})
	require.NoError(t, err)
	e.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), "microblog.users", e))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "microblog.users", msg.Topic)
	assert.Equal(t, "u-1", string(msg.Key))
	assert.Equal(t, "user.verified", header(msg, "event_type"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.EventID, decoded.EventID)
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{err: errors.New("leader not available")}, nil, discardLogger())

	e, err := NewEvent("user.verified", "u-1", "user", "microblog", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "microblog.users", e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, discardLogger())
	e, _ := NewEvent("user.registered", "u-1", "user", "microblog", nil)
	require.NoError(t, p.Publish(ctx, "microblog.users", e))

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := headerCarrier{headers: &headers}

	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "3", c.Get("b"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{}, nil, discardLogger())
	assert.Error(t, p.Ping(context.Background()))
}
