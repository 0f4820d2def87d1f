package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l := NewIsolatedLogger(path)

	l.Info("chat", "prompt assembled", map[string]interface{}{"messages": 3})
	l.Error("chat", "generation failed", map[string]interface{}{"error": errors.New("boom").Error()})
	require.NoError(t, l.Sync())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "chat", lines[0]["module"])
	assert.Equal(t, "prompt assembled", lines[0]["message"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error_ref"])
}

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("m", "d", nil)
		l.Info("m", "i", nil)
		l.Warn("m", "w", nil)
		l.Error("m", "e", nil)
	})
}

func TestZapLoggerHonoursLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewZapLogger(path, "warn", true)

	l.Debug("note", "dropped", nil)
	l.Info("note", "dropped", nil)
	l.Warn("note", "kept", map[string]interface{}{"id": 7})
	_ = l.Sync() // stdout sync fails on some platforms; the file is written synchronously


	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, lines[0]["details"])
	assert.NotContains(t, lines[0], "error_ref")
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, "info", parseLevel("").String())
	assert.Equal(t, "info", parseLevel("loud").String())
	assert.Equal(t, "debug", parseLevel("debug").String())
}
