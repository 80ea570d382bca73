package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestNewDefaultWriter(t *testing.T) {
	// nil writer should default to stderr console writer
	log := New(nil, "info", "")
	require.NotNil(t, log)
}

func TestJSONStyle(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Info().Str("relay", "wss://r.example.com").Msg("connected")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "connected", line["message"])
	assert.Equal(t, "wss://r.example.com", line["relay"])
}

func TestConsoleStyle(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "console")

	log.Info().Msg("plain text")
	out := buf.String()
	assert.Contains(t, out, "plain text")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	sub := log.Sub("compose")
	require.NotNil(t, sub)

	sub.Info().Msg("sub message")
	output := buf.String()
	assert.Contains(t, output, "sub message")
	assert.Contains(t, output, "compose")
}

func TestSubChain(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	sub1 := log.Sub("level1")
	sub2 := sub1.Sub("level2")

	sub2.Info().Msg("deep message")
	output := buf.String()
	assert.Contains(t, output, "deep message")
	assert.Contains(t, output, "level2")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")

	log.With("group", "grp-1").Info().Msg("scoped")
	output := buf.String()
	assert.Contains(t, output, "scoped")
	assert.Contains(t, output, "grp-1")
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")

	buf.Reset()
	log.Error().Msg("error msg")
	assert.Contains(t, buf.String(), "error msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel}, // case-sensitive, defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	log.Error().Msg("discarded")
}

func TestZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")
	zl := log.Zerolog()
	assert.NotZero(t, zl)

	zl.Info().Msg("direct zerolog")
	assert.Contains(t, buf.String(), "direct zerolog")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent", "json")

	log.Debug().Msg("should not appear")
	log.Info().Msg("should not appear")
	log.Warn().Msg("should not appear")
	log.Error().Msg("should not appear")

	assert.Empty(t, buf.String())
}
