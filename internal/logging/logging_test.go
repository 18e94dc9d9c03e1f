package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ielts-coach/internal/config"
)

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "coach.log")
	log, err := New(config.LogConfig{Level: "info", File: path}, FormatJSON)
	require.NoError(t, err)

	log.Info("evaluation finished")
	log.Debug("hidden")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "evaluation finished", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "ts")
}

func TestNew_ConfigFormatOverridesFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.log")
	log, err := New(config.LogConfig{Level: "debug", Format: FormatConsole, File: path}, FormatJSON)
	require.NoError(t, err)

	log.Debug("tick")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(string(data)))))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"}, FormatJSON)
	assert.Error(t, err)

	_, err = New(config.LogConfig{Level: "info", Format: "xml"}, FormatJSON)
	assert.Error(t, err)
}
