package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alirzasahb/PumpkinOS/config"
	"github.com/alirzasahb/PumpkinOS/hostfs"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/alirzasahb/PumpkinOS/tos"
	"github.com/spf13/cobra"
)

// machineFlags override the settings file for commands that build a process.
type machineFlags struct {
	drives   []string
	backend  string
	slice    int
	arena    uint32
	bits     int
	trace    string
	disasm   bool
	timeout  string
	defDrive string
}

func (m *machineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&m.drives, "drive", "d", nil, "Mount a host directory as a drive, LETTER=DIR (repeatable)")
	cmd.Flags().StringVar(&m.backend, "backend", "", "CPU backend (interpreter, unicorn)")
	cmd.Flags().IntVar(&m.slice, "slice", 0, "Cycles per scheduling slice")
	cmd.Flags().Uint32Var(&m.arena, "arena", 0, "Guest memory size in bytes")
	cmd.Flags().IntVar(&m.bits, "address-bits", 0, "Guest address width (24 or 32)")
	cmd.Flags().StringVar(&m.trace, "trace", "", "Write an instruction trace as JSON lines to this file")
	cmd.Flags().BoolVar(&m.disasm, "disasm-text", false, "Log a disassembly of the text segment at load")
	cmd.Flags().StringVar(&m.timeout, "console-timeout", "", "How long a console read waits before yielding, e.g. 20ms")
	cmd.Flags().StringVar(&m.defDrive, "default-drive", "", "Drive a host path program starts on")
}

func (m *machineFlags) apply(cfg *config.Config) error {
	for _, mapping := range m.drives {
		letter, dir, ok := strings.Cut(mapping, "=")
		if !ok {
			return fmt.Errorf("bad --drive %q, want LETTER=DIR", mapping)
		}
		if err := cfg.SetDrive(letter, dir); err != nil {
			return err
		}
	}
	if m.backend != "" {
		cfg.Backend = m.backend
	}
	if m.slice > 0 {
		cfg.SliceCycles = m.slice
	}
	if m.arena > 0 {
		cfg.ArenaSize = m.arena
	}
	if m.bits > 0 {
		cfg.AddressBits = m.bits
	}
	if m.trace != "" {
		cfg.Trace = config.Trace{Enabled: true, Path: m.trace}
	}
	if m.disasm {
		cfg.DisassembleText = true
	}
	if m.timeout != "" {
		d, err := time.ParseDuration(m.timeout)
		if err != nil {
			return err
		}
		cfg.ConsoleTimeout = d
	}
	if m.defDrive != "" {
		cfg.DefaultDrive = m.defDrive
	}
	return cfg.Validate()
}

// program is an executable located either on a mounted drive or on the host.
type program struct {
	image []byte
	name  string
	drive int
	dir   string
}

// isTOSPath reports whether arg names a file on a TOS drive, as in
// C:\GAMES\TETRIS.PRG.
func isTOSPath(arg string) bool {
	if len(arg) < 2 || arg[1] != ':' {
		return false
	}
	_, ok := hostfs.DriveNumber(arg[0])
	return ok
}

// locate reads the program named by arg. A TOS path is resolved through
// drives and the process starts in the program's directory; anything else
// is a host path and the process starts at the root of the default drive.
func locate(cfg *config.Config, drives *hostfs.Drives, arg string) (*program, error) {
	if !isTOSPath(arg) {
		image, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return &program{image: image, name: filepath.Base(arg), drive: cfg.Drive()}, nil
	}
	drive, _ := hostfs.DriveNumber(arg[0])
	if !drives.Mounted(drive) {
		return nil, fmt.Errorf("%s: drive %c is not mounted", arg, hostfs.Letter(drive))
	}
	host, err := drives.Resolve(arg)
	if err != nil {
		return nil, err
	}
	image, err := os.ReadFile(host)
	if err != nil {
		return nil, err
	}
	rest := arg[2:]
	dir := `\`
	name := rest
	if i := strings.LastIndexByte(rest, '\\'); i >= 0 {
		name = rest[i+1:]
		if i > 0 {
			dir = rest[:i]
		}
	}
	return &program{image: image, name: name, drive: drive, dir: dir}, nil
}

// build creates a process from cfg. The returned tracer, if any, is owned
// by the caller and must be closed after the process.
func build(cfg *config.Config, drives *hostfs.Drives, prog *program, args []string, stdin io.Reader, stdout io.Writer, display *surface.Display) (*tos.Process, *trace.JSONLWriter, error) {
	var tracer *trace.JSONLWriter
	if cfg.Trace.Enabled {
		var err error
		if cfg.Trace.Path == "" || cfg.Trace.Path == "-" {
			tracer = trace.NewJSONLWriterStdout()
		} else if tracer, err = trace.NewJSONLWriterFile(cfg.Trace.Path); err != nil {
			return nil, nil, err
		}
	}
	argv := append([]string{prog.name}, args...)
	p, err := tos.New(prog.image, argv, tos.Options{
		Name:            prog.name,
		Backend:         cfg.Backend,
		MemorySize:      cfg.ArenaSize,
		AddressBits:     cfg.AddressBits,
		SliceCycles:     cfg.SliceCycles,
		Drives:          drives,
		Drive:           prog.drive,
		Dir:             prog.dir,
		Stdin:           stdin,
		Stdout:          stdout,
		Aux:             os.Stderr,
		ConsoleTimeout:  cfg.ConsoleTimeout,
		Trace:           tracer,
		DisassembleText: cfg.DisassembleText,
		Display:         display,
	})
	if err != nil {
		if tracer != nil {
			tracer.Close()
		}
		return nil, nil, err
	}
	return p, tracer, nil
}

func screenshot(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := surface.Shared().WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
