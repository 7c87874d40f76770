package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
)

// allowAllLevels lifts the global level New may have raised
func allowAllLevels(t *testing.T) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

// entries decodes one JSON object per line
func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), scanner.Text())
		out = append(out, entry)
	}
	return out
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	allowAllLevels(t)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, log)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_Levels(t *testing.T) {
	allowAllLevels(t)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.Debug("hidden")
	log.Info("batch started")
	log.Warn("cache read failed")
	log.Error("download failed")

	got := entries(t, &buf)
	require.Len(t, got, 3)
	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "batch started", got[0]["message"])
	assert.Equal(t, "warn", got[1]["level"])
	assert.Equal(t, "error", got[2]["level"])
	assert.Contains(t, got[0], "time")
}

func TestWithFields(t *testing.T) {
	allowAllLevels(t)

	var buf bytes.Buffer
	base := NewWithWriter(&buf, "debug")

	base.WithField("rows", 250).Info("one")
	base.WithFields(map[string]interface{}{
		"coverage": 0.98,
		"decision": "KEEP",
	}).Info("two")
	base.WithError(errors.New("status 404")).Warn("three")
	base.Info("four")

	got := entries(t, &buf)
	require.Len(t, got, 4)
	assert.Equal(t, 250.0, got[0]["rows"])
	assert.Equal(t, 0.98, got[1]["coverage"])
	assert.Equal(t, "KEEP", got[1]["decision"])
	assert.Equal(t, "status 404", got[2]["error"])
	assert.NotContains(t, got[3], "rows", "child fields must not leak into the parent")
}

func TestDomainFields(t *testing.T) {
	allowAllLevels(t)

	var buf bytes.Buffer
	base := NewWithWriter(&buf, "debug")

	base.WithModule("fetcher").WithRun("run-1").WithTicker("005930", "naver").Debug("assessed")
	base.WithJob("us_megacaps").Info("job started")

	got := entries(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "fetcher", got[0][FieldModule])
	assert.Equal(t, "run-1", got[0][FieldRunID])
	assert.Equal(t, "005930", got[0][FieldTicker])
	assert.Equal(t, "naver", got[0][FieldSource])
	assert.Equal(t, "us_megacaps", got[1][FieldJob])
	assert.NotContains(t, got[1], FieldRunID)
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithRun("run-1").WithTicker("AAPL", "yahoo").Error("discarded")
	})
}
