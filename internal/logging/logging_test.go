package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/agentflow/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "json", "info")

	log.Debug("hidden")
	log.Info("upload distributed", "total", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "upload distributed", line["msg"])
	assert.Equal(t, float64(3), line["total"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "text", "debug")

	log.Debug("agent created", "agent_id", "abc")
	assert.Contains(t, buf.String(), "agent created")
	assert.Contains(t, buf.String(), "abc")
}
