package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Keep assertions independent of whether the test runner has a TTY.
	color.NoColor = true
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Info("tag deleted", "tag_id", "tag-9")

	assert.Contains(t, buf.String(), `"msg":"tag deleted"`)
	assert.Contains(t, buf.String(), `"tag_id":"tag-9"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	var prod, dev bytes.Buffer
	New(Config{Environment: "production", Writer: &prod}).Info("hello")
	New(Config{Environment: "development", Writer: &dev}).Info("hello")

	assert.Contains(t, prod.String(), `"msg":"hello"`)
	assert.Contains(t, dev.String(), "INF hello")
}

func TestPrettyHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelDebug, Format: "pretty", Writer: &buf})

	log.With("component", "bulk").WithGroup("req").Debug("bulk finished", "succeeded", 2, "note", "two words")

	out := buf.String()
	assert.Contains(t, out, "DBG bulk finished")
	assert.Contains(t, out, "component=bulk")
	assert.Contains(t, out, "req.succeeded=2")
	assert.Contains(t, out, `req.note="two words"`)
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelWarn, Format: "pretty", Writer: &buf})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WRN shown")
	assert.False(t, log.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Writer: &buf})

	log.WithError(errors.New("boom")).WithComponent("parity").Error("check failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"component":"parity"`)
}
