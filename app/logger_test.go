package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogLevelToZero(t *testing.T) {
	cases := map[Level]zerolog.Level{
		TRACE:   zerolog.TraceLevel,
		"debug": zerolog.DebugLevel,
		WARN:    zerolog.WarnLevel,
		ERROR:   zerolog.ErrorLevel,
		PANIC:   zerolog.PanicLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, logLevelToZero(in), in)
	}
}

func TestNewZeroLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newZeroLogger(&buf, WARN)

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	logger.Warn().Str("batch_id", "b1").Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "b1", line["batch_id"])
	require.Equal(t, "medtrack", line["service"])
	require.Contains(t, line, "time")
	require.Contains(t, line, "caller")
}
