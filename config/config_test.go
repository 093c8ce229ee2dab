package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tosemu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2, cfg.Drive())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
log_level: debug
log_modules: gemdos,trap
slice_cycles: 5000
arena_size: 2097152
address_bits: 32
drives:
  c: `+dir+`
default_drive: "C:"
console_timeout: 50ms
trace:
  enabled: true
  path: /tmp/trace.jsonl
disassemble_text: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gemdos,trap", cfg.LogModules)
	assert.Equal(t, "interpreter", cfg.Backend, "unset fields keep their default")
	assert.Equal(t, 5000, cfg.SliceCycles)
	assert.Equal(t, uint32(2<<20), cfg.ArenaSize)
	assert.Equal(t, 50*time.Millisecond, cfg.ConsoleTimeout)
	assert.True(t, cfg.Trace.Enabled)
	assert.True(t, cfg.DisassembleText)
	assert.Equal(t, 2, cfg.Drive())

	drives, err := cfg.Mount()
	require.NoError(t, err)
	assert.True(t, drives.Mounted(2))
}

func TestLoadRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown field": "colour: blue\n",
		"backend":       "backend: z80\n",
		"slice":         "slice_cycles: 0\n",
		"address bits":  "address_bits: 20\n",
		"drive letter":  "drives:\n  '9': /tmp\n",
		"default drive": "default_drive: ZZ\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSetDrive(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.SetDrive("d:", t.TempDir()))
	assert.Contains(t, cfg.Drives, "D")
	assert.Error(t, cfg.SetDrive("?", "/"))
}
