package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
		"info":    InfoLevel,
		" warn ":  WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   InfoLevel,
		"":        InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLevel_String(t *testing.T) {
	for _, l := range []Level{DebugLevel, InfoLevel, WarnLevel, ErrorLevel} {
		assert.Equal(t, l, ParseLevel(l.String()))
	}
	assert.Equal(t, "unknown", Level(42).String())
	assert.Equal(t, slog.LevelInfo, Level(-3).slogLevel())
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, DebugLevel, levelOf(slog.LevelDebug-4))
	assert.Equal(t, InfoLevel, levelOf(slog.LevelInfo+1))
	assert.Equal(t, WarnLevel, levelOf(slog.LevelWarn))
	assert.Equal(t, ErrorLevel, levelOf(slog.LevelError+8))
}

func TestLogger_JSONRecord(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, &Config{Level: InfoLevel, Format: "json", Service: "semindex", Version: "1.2.3"})

	l.Info("agent registered", "agent_id", "agent-1")

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "agent registered", rec["message"])
	assert.NotContains(t, rec, "msg")
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "semindex", rec["service"])
	assert.Equal(t, "1.2.3", rec["version"])
	assert.Equal(t, "agent-1", rec["agent_id"])
}

func TestLogger_GroupedKeysUntouched(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, &Config{Level: InfoLevel})

	l.Info("stats", slog.Group("index", slog.String("msg", "kept")))

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"msg": "kept"}, recs[0]["index"])
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, &Config{Level: WarnLevel})
	child := l.With("component", "registry")
	assert.Equal(t, WarnLevel, l.Level())

	l.Info("hidden")
	child.Info("hidden")
	assert.Zero(t, buf.Len())

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, child.Level())
	child.Debug("visible")

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "registry", recs[0]["component"])
	assert.Equal(t, "debug", recs[0]["level"])
}

func TestLogger_TraceCorrelation(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, &Config{Level: InfoLevel}).With("component", "search")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	l.InfoContext(ctx, "traced")
	l.WarnContext(context.Background(), "untraced")
	l.Error("plain")

	recs := records(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, traceID.String(), recs[0]["trace_id"])
	assert.Equal(t, spanID.String(), recs[0]["span_id"])
	assert.Equal(t, "search", recs[0]["component"])
	assert.NotContains(t, recs[1], "trace_id")
	assert.NotContains(t, recs[2], "trace_id")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semindex.log")
	l := New(&Config{Level: InfoLevel, Format: "text", Output: path})

	l.With("k", "v").Info("to file")
	require.NoError(t, l.With("child", true).Close(), "children do not own the file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `message="to file"`)
	assert.Contains(t, string(data), "k=v")
}

func TestNew_UnwritableOutputFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "semindex.log")
	l := New(&Config{Level: ErrorLevel, Output: path})
	require.NotNil(t, l)
	assert.NoError(t, l.Close())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNew_Defaults(t *testing.T) {
	l := New(nil)
	assert.Equal(t, InfoLevel, l.Level())
	assert.NoError(t, l.Close())
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("discarded")
	l.With("a", 1).ErrorContext(context.Background(), "discarded")
	assert.Equal(t, ErrorLevel, l.Level())
	assert.NoError(t, l.Close())
}

func TestSetGlobal(t *testing.T) {
	orig := Global()
	origDefault := slog.Default()
	require.NotNil(t, orig)
	t.Cleanup(func() {
		SetGlobal(orig)
		slog.SetDefault(origDefault)
	})

	var buf bytes.Buffer
	replacement := build(&buf, &Config{Level: InfoLevel})
	SetGlobal(replacement)
	assert.Same(t, replacement, Global())

	slog.Info("through slog")
	assert.True(t, strings.Contains(buf.String(), `"message":"through slog"`))

	SetGlobal(nil)
	assert.Same(t, replacement, Global())
}
