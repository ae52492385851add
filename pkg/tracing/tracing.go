package tracing

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Enabled reports whether an OTLP endpoint is configured
func Enabled() bool {
	_, present := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT")
	return present
}

// Init registers a global tracer provider. Spans are exported over OTLP gRPC
// only when an endpoint is configured.
func Init(ctx context.Context) (tp *sdktrace.TracerProvider, shutdown func()) {
	tp = sdktrace.NewTracerProvider()
	shutdown = func() { _ = tp.Shutdown(ctx) }

	if Enabled() {
		log.Info().Msg("initializing OpenTelemetry with OTLP exporter")

		exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
		if err != nil {
			log.Error().Err(err).Msg("failed to create OTLP exporter, tracing disabled")
		} else {
			tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
			shutdown = func() {
				_ = tp.ForceFlush(ctx)
				_ = tp.Shutdown(ctx)
			}
		}
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetTracerProvider(tp)

	return tp, shutdown
}
