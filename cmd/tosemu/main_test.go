package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alirzasahb/PumpkinOS/config"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// moveq #7,d0; rts
var exitSeven = []uint16{0x7007, 0x4E75}

func writeProgram(t *testing.T, dir, name string, words []uint16) string {
	t.Helper()
	text := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(text[2*i:], w)
	}
	img := make([]byte, 28, 28+len(text)+4)
	binary.BigEndian.PutUint16(img[0:], 0x601A)
	binary.BigEndian.PutUint32(img[2:], uint32(len(text)))
	img = append(img, text...)
	img = append(img, 0, 0, 0, 0)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, img, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIsTOSPath(t *testing.T) {
	cases := map[string]bool{
		`C:\GAMES\TETRIS.PRG`: true,
		`c:\x.tos`:            true,
		`Q:\X`:                false,
		`prog.tos`:            false,
		`/tmp/prog.tos`:       false,
		`C`:                   false,
	}
	for in, want := range cases {
		if got := isTOSPath(in); got != want {
			t.Errorf("isTOSPath(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Games"), 0o755))
	writeProgram(t, filepath.Join(root, "Games"), "TETRIS.PRG", exitSeven)

	cfg := config.Default()
	require.NoError(t, cfg.SetDrive("C", root))
	drives, err := cfg.Mount()
	require.NoError(t, err)

	prog, err := locate(cfg, drives, `C:\GAMES\tetris.prg`)
	require.NoError(t, err)
	assert.Equal(t, 2, prog.drive)
	assert.Equal(t, `\GAMES`, prog.dir)
	assert.Equal(t, "tetris.prg", prog.name)
	assert.Len(t, prog.image, 28+4+4)

	prog, err = locate(cfg, drives, `C:\GAMES\..\GAMES\TETRIS.PRG`)
	require.NoError(t, err)
	assert.Equal(t, `\GAMES\..\GAMES`, prog.dir)

	_, err = locate(cfg, drives, `D:\X.PRG`)
	assert.ErrorContains(t, err, "not mounted")

	host := writeProgram(t, t.TempDir(), "host.tos", exitSeven)
	prog, err = locate(cfg, drives, host)
	require.NoError(t, err)
	assert.Equal(t, "host.tos", prog.name)
	assert.Equal(t, cfg.Drive(), prog.drive)
}

func TestMachineFlags(t *testing.T) {
	cfg := config.Default()
	m := machineFlags{drives: []string{"D=/tmp"}, slice: 500, bits: 32, timeout: "5ms", trace: "t.jsonl"}
	require.NoError(t, m.apply(cfg))
	assert.Equal(t, "/tmp", cfg.Drives["D"])
	assert.Equal(t, 500, cfg.SliceCycles)
	assert.Equal(t, 32, cfg.AddressBits)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "5ms", cfg.ConsoleTimeout.String())

	assert.Error(t, (&machineFlags{drives: []string{"nodir"}}).apply(config.Default()))
	assert.Error(t, (&machineFlags{backend: "jit"}).apply(config.Default()))
	assert.Error(t, (&machineFlags{timeout: "soon"}).apply(config.Default()))
}

func TestRunCommand(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "seven.tos", exitSeven)

	out, err := execute(t, "run", "--stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "reason sentinel_pc_reached, exit 7")

	_, err = execute(t, "run", "--exit-status", path)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, int32(7), ee.code)
	assert.Equal(t, 7, exitCode(err))
	assert.Equal(t, 1, exitCode(errors.New("other")))
}

func TestInfoAndDisasm(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "seven.tos", exitSeven)

	out, err := execute(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "xxh3")
	assert.Contains(t, out, "text        4 bytes")
	assert.Contains(t, out, "relocation  4 bytes, 0 fixups")

	out, err = execute(t, "disasm", path)
	require.NoError(t, err)
	assert.Contains(t, out, "moveq")
	assert.Contains(t, out, "rts")

	out, err = execute(t, "disasm", "--tree", path)
	require.NoError(t, err)
	assert.Contains(t, out, "region")
	assert.Contains(t, out, "2 instructions")
}

func TestTraceDiffCommand(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, d0 uint32) string {
		path := filepath.Join(dir, name)
		w, err := trace.NewJSONLWriterFile(path)
		require.NoError(t, err)
		s0 := trace.NewStep(0, 0x1000, "7007", "moveq   #$7, D0")
		s1 := trace.NewStep(1, 0x1002, "4E75", "rts")
		s1.SetRegisters([8]uint32{d0}, [8]uint32{}, 0)
		require.NoError(t, w.WriteStep(s0))
		require.NoError(t, w.WriteStep(s1))
		require.NoError(t, w.Close())
		return path
	}
	good, bad := write("good.jsonl", 7), write("bad.jsonl", 8)

	out, err := execute(t, "tracediff", good, good)
	require.NoError(t, err)
	assert.Contains(t, out, "traces match (2 steps)")

	out, err = execute(t, "tracediff", good, bad)
	assert.ErrorIs(t, err, errTracesDiffer)
	assert.Contains(t, out, "first divergence at step 1")
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeProgram(t, dir, "a.tos", exitSeven)
	b := writeProgram(t, dir, "b.tos", []uint16{0x7000, 0x4E75})

	out, err := execute(t, "batch", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "a.tos  exit 7 (sentinel_pc_reached)")
	assert.Contains(t, out, "b.tos  exit 0 (sentinel_pc_reached)")
}

func TestDebugScript(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "seven.tos", exitSeven)
	cfg := config.Default()
	drives, err := cfg.Mount()
	require.NoError(t, err)
	prog, err := locate(cfg, drives, path)
	require.NoError(t, err)
	p, _, err := build(cfg, drives, prog, nil, nil, nil, nil)
	require.NoError(t, err)
	defer p.Close()

	var out bytes.Buffer
	vm, err := newScript(p, &out)
	require.NoError(t, err)

	v, err := vm.RunString(`dis(pc(), 1)`)
	require.NoError(t, err)
	assert.Contains(t, v.String(), "moveq")

	v, err = vm.RunString(`step(1)`)
	require.NoError(t, err)
	assert.Equal(t, "budget_exhausted", v.String())
	v, err = vm.RunString(`regs().D0`)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.ToInteger())

	_, err = vm.RunString(`setreg("d1", 0x1234)`)
	require.NoError(t, err)
	v, err = vm.RunString(`regs().D1`)
	require.NoError(t, err)
	assert.Equal(t, int64(0x1234), v.ToInteger())

	v, err = vm.RunString(`tos.Tgetdate() > 0`)
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
	_, err = vm.RunString(`tos.Nonesuch()`)
	assert.Error(t, err)

	_, err = vm.RunString(`print("pc", pc())`)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pc ")

	v, err = vm.RunString(`cont()`)
	require.NoError(t, err)
	assert.Equal(t, "sentinel_pc_reached", v.String())
}
