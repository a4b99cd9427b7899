package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

func TestJSONOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := newWithConsole(Config{Level: "warn"}, &buf)
	be.Err(t, err, nil)

	l.Info("dropped")
	l.Warn("sms read failed", zap.String("code", "SMS_READ_ERROR"))
	be.Err(t, l.Sync(), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	be.Equal(t, len(lines), 1)

	var entry map[string]any
	be.Err(t, json.Unmarshal([]byte(lines[0]), &entry), nil)
	be.Equal(t, entry["msg"], "sms read failed")
	be.Equal(t, entry["level"], "warn")
	be.Equal(t, entry["code"], "SMS_READ_ERROR")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := newWithConsole(Config{Level: "chatty"}, &buf)
	be.Err(t, err, nil)

	l.Debug("hidden")
	l.Info("shown")
	be.True(t, !strings.Contains(buf.String(), "hidden"))
	be.True(t, strings.Contains(buf.String(), "shown"))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "smskit.log")
	var console bytes.Buffer
	l, err := newWithConsole(Config{Level: "info", File: path}, &console)
	be.Err(t, err, nil)

	l.Info("sent", zap.Int("segments", 2))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(data), `"segments":2`))
	be.True(t, strings.Contains(console.String(), `"segments":2`))
}
