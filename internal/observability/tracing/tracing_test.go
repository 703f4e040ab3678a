package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTraceProvider_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTraceProvider(context.Background(), "", "staffgate", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSpanHelpers(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartLoginSpan(context.Background(), "code")
	EndSpan(span, "invalid", errors.New("invalid credentials"))

	_, span = StartAuthenticateSpan(context.Background())
	EndSpan(span, "success", nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "staff.login", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "staff.authenticate", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}
