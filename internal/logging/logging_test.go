package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNew_Formats(t *testing.T) {
	var text bytes.Buffer
	New(Options{Level: "info", Output: &text}).Info("hello", "k", "v")
	assert.Contains(t, text.String(), "msg=hello")
	assert.Contains(t, text.String(), "k=v")

	var js bytes.Buffer
	log := New(Options{Level: "warn", JSON: true, Output: &js})
	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, js.String(), "dropped")
	assert.Contains(t, js.String(), `"msg":"kept"`)
}
