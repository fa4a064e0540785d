package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestShouldEnableColor(t *testing.T) {
	t.Setenv("LOG_COLOR", "0")
	assert.False(t, shouldEnableColor())

	t.Setenv("LOG_COLOR", "true")
	assert.True(t, shouldEnableColor())

	t.Setenv("NO_COLOR", "")
	assert.False(t, shouldEnableColor())
}

func TestNew_RespectsLevel(t *testing.T) {
	l := New(Config{Level: "warn", Format: "json"})
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestColoredConsoleEncoder_HighlightsFields(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	cfg := zap.NewProductionEncoderConfig()
	enc := NewColoredConsoleEncoder(cfg)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "Fetched model metadata", Time: time.Unix(0, 0)},
		[]zapcore.Field{zap.Int("models_count", 3)})
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, "Fetched model metadata")
	assert.Contains(t, line, `"models_count"`)
}
