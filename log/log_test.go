package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModuleGating(t *testing.T) {
	var buf bytes.Buffer
	old := Root()
	defer SetDefault(old)
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, false)))

	DisableModule(GemdosMonitoring)
	Debug(GemdosMonitoring, "hidden")
	require.Empty(t, buf.String())

	EnableModules("gemdos, bios")
	defer DisableModule(GemdosMonitoring)
	defer DisableModule(BiosMonitoring)
	Debug(GemdosMonitoring, "Fopen", "name", "A:\\X.TXT")
	require.Contains(t, buf.String(), "Fopen")
	require.Contains(t, buf.String(), "module=gemdos")

	buf.Reset()
	Info(XbiosMonitoring, "always")
	require.Contains(t, buf.String(), "always")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	require.Equal(t, LevelTrace, lvl)
	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestRecordedLogs(t *testing.T) {
	old := Root()
	defer SetDefault(old)
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&bytes.Buffer{}, LevelInfo, false)))
	RecordLogs()
	Warn(TrapMonitoring, "unmapped", "selector", 99)
	out, err := GetRecordedLogs()
	require.NoError(t, err)
	require.True(t, strings.Contains(string(out), "unmapped"), string(out))
	require.Contains(t, string(out), "selector=99")
}

func TestEmitEventOrder(t *testing.T) {
	var buf bytes.Buffer
	old := Root()
	defer SetDefault(old)
	SetDefault(NewLoggerWithEvents(DiscardHandler(), NewWriterSink(&buf)))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	Emit("exit", "p1", map[string]int{"traps": 3}, "exit_code", 0, "time", ts)

	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, `{"time":"2024-01-02T03:04:05Z","process_id":"p1","kind":"exit"`), line)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	require.Equal(t, "0", m["exit_code"])
	require.NotContains(t, m, "detail")
}
