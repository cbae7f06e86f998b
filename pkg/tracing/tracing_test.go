package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_DisabledStillInstallsPropagator(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "microblog"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestInitTracer_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracer(context.Background(), Config{
		ServiceName:  "microblog",
		Environment:  "test",
		OTLPEndpoint: "localhost:4318",
		SampleRate:   1,
		Enabled:      true,
	})
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	// Shutdown may fail to flush without a collector; it must not hang.
	_ = shutdown(context.Background())
}

func TestSamplerFor(t *testing.T) {
	assert.True(t, strings.Contains(samplerFor(1).Description(), "AlwaysOnSampler"))
	assert.True(t, strings.Contains(samplerFor(0).Description(), "AlwaysOffSampler"))
	assert.True(t, strings.Contains(samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}"))
	assert.True(t, strings.HasPrefix(samplerFor(0.5).Description(), "ParentBased"))
}
