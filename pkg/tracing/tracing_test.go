package tracing

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_NoExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	require.NoError(t, os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT"))

	assert.False(t, Enabled())

	tp, shutdown := Init(context.Background())
	defer shutdown()

	require.NotNil(t, tp)
	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := tp.Tracer("test").Start(context.Background(), "span")
	span.End()
	assert.True(t, span.SpanContext().IsValid())
}
