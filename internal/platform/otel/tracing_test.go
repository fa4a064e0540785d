package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("model-selector-test", "v0.0.0", zap.NewNop(), &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "registry.populate")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "registry.populate")
	assert.Contains(t, buf.String(), "model-selector-test")
}
