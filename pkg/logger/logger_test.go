package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Writer: &buf})

	ctx := WithRequestID(context.Background(), "req-123")
	l.InfoContext(ctx, "loan borrowed", "book_id", 7)
	l.DebugContext(ctx, "filtered out")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loan borrowed", entry["msg"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, float64(7), entry["book_id"])
	assert.NotContains(t, buf.String(), "filtered out")
}

func TestNew_TextWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Writer: &buf}).With("component", "loan")

	l.Info("ready")
	assert.Contains(t, buf.String(), "component=loan")
	assert.Contains(t, buf.String(), "msg=ready")
}
