package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		debug     bool
		checkFunc func(t *testing.T, output string)
	}{
		{
			name:   "Text Logger Info Level",
			config: Config{Level: "info", Format: "text"},
			checkFunc: func(t *testing.T, output string) {
				assert.Contains(t, output, "level=INFO")
				assert.Contains(t, output, `msg="test message"`)
				assert.Contains(t, output, "project=demo")
			},
		},
		{
			name:   "JSON Logger Debug Level",
			config: Config{Level: "debug", Format: "json"},
			debug:  true,
			checkFunc: func(t *testing.T, output string) {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(output), &entry), "output: %s", output)
				assert.Equal(t, "DEBUG", entry["level"])
				assert.Equal(t, "test message", entry["msg"])
				assert.Equal(t, "demo", entry["project"])
			},
		},
		{
			name:   "Invalid level falls back to info",
			config: Config{Level: "loud", Format: "text"},
			debug:  true,
			checkFunc: func(t *testing.T, output string) {
				assert.Empty(t, output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.config, &buf)

			if tt.debug {
				logger.Debug("test message", "project", "demo")
			} else {
				logger.Info("test message", "project", "demo")
			}

			tt.checkFunc(t, buf.String())
		})
	}
}

func TestOpenOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "warden.log")

	w, closeFn, err := OpenOutput(Config{Output: "file", FilePath: path})
	require.NoError(t, err)

	logger := NewLogger(Config{Level: "info"}, w)
	logger.Info("written to file")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
