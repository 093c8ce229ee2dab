// Package tos implements the Atari TOS personalities (GEMDOS, BIOS, XBIOS,
// GEM and Line-A) on top of the trap bridge, and the process that ties a
// loaded program to its host resources.
package tos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alirzasahb/PumpkinOS/api"
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/heap"
	"github.com/alirzasahb/PumpkinOS/hostfs"
	"github.com/alirzasahb/PumpkinOS/loader"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/alirzasahb/PumpkinOS/trap"
	"github.com/google/uuid"
)

// ErrAborted is returned by Run when the process was stopped from the host.
var ErrAborted = errors.New("process aborted")

// Options configures a process.
type Options struct {
	Name            string
	Backend         string
	MemorySize      uint32
	AddressBits     int
	SliceCycles     int
	Drives          *hostfs.Drives
	Drive           int    // initial drive, 0 for A:
	Dir             string // initial directory on Drive, "\" when empty
	Stdin           io.Reader
	Stdout          io.Writer
	Aux             io.Writer
	Printer         io.Writer
	ConsoleTimeout  time.Duration
	Trace           *trace.JSONLWriter // owned by the caller, who closes it after the process
	DisassembleText bool
	Display         *surface.Display
}

// Result summarizes a finished run.
type Result struct {
	ExitCode int32
	Reason   m68k.StopReason
	Slices   int
	Cycles   uint64
	Calls    uint64
	Elapsed  time.Duration
	Err      error // why the process was terminated, if not by itself
}

// Process is one loaded TOS program and everything it owns.
type Process struct {
	ID   string
	Name string

	img     *loader.Image
	cpu     m68k.Engine
	mem     *guest.Memory
	heap    *heap.Allocator
	bridge  *trap.Bridge[*Process]
	drives  *hostfs.Drives
	console *Console
	files   *Files
	screen  *surface.Mono
	display *surface.Display
	aux     io.Writer
	prn     io.Writer
	tracer  *trace.JSONLWriter
	slice   int

	dta      uint32
	find     *findState
	physbase uint32
	logbase  uint32
	kbdvbase uint32
	mpb      uint32
	kbshift  uint8
	clock    time.Duration // offset applied by Tsetdate and friends
	linea    lineaState
	vdi      vdiState
	aes      aesState
	xbios    xbiosState

	closeOnce sync.Once
	closeErr  error
}

// New loads image and prepares it to run with argv as its command line.
func New(image []byte, argv []string, opts Options) (*Process, error) {
	img, err := loader.Load(image, argv, loader.Options{
		Backend:     opts.Backend,
		MemorySize:  opts.MemorySize,
		AddressBits: opts.AddressBits,
	})
	if err != nil {
		return nil, err
	}

	p := &Process{
		ID:      uuid.NewString(),
		Name:    opts.Name,
		img:     img,
		cpu:     img.CPU,
		mem:     img.Mem,
		heap:    img.Heap,
		drives:  opts.Drives,
		console: NewConsole(opts.Stdin, opts.Stdout, opts.ConsoleTimeout),
		files:   NewFiles(),
		aux:     writerOr(opts.Aux),
		prn:     writerOr(opts.Printer),
		tracer:  opts.Trace,
		slice:   opts.SliceCycles,
		dta:     img.BasePage.DTA,
	}
	if p.Name == "" && len(argv) > 0 {
		p.Name = argv[0]
	}
	if p.drives == nil {
		p.drives = hostfs.New()
	}
	if p.slice <= 0 {
		p.slice = m68k.DefaultSlice
	}
	p.xbios.init()
	p.bridge = trap.NewBridge(p, p.cpu, p.mem, Personalities()...)
	p.bridge.Install()

	if err := p.allocate(); err != nil {
		p.Close()
		return nil, err
	}
	if opts.Display != nil {
		if err := opts.Display.Acquire(p.ID, p.screen); err != nil {
			log.Warn(log.TOSMonitoring, "running headless", "process", p.ID, "err", err)
		} else {
			p.display = opts.Display
		}
	}
	if p.drives.Mounted(opts.Drive) {
		if err := p.chdir(opts.Drive, opts.Dir); err != nil {
			p.Close()
			return nil, err
		}
	}
	if p.tracer != nil || log.IsModuleEnabled(log.CPUMonitoring) {
		p.cpu.SetInstructionTrace(p.traceStep)
	}
	if opts.DisassembleText {
		p.disassembleText()
	}
	return p, nil
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// allocate reserves the blocks the OS keeps in the program heap, in the
// order the ST places them: keyboard vectors, screen, Line-A variables.
func (p *Process) allocate() error {
	var err error
	if p.kbdvbase, err = p.img.Reserve(kbdvbaseSize); err != nil {
		return err
	}
	p.initKbdvbase()
	if p.physbase, err = p.img.Reserve(surface.Size); err != nil {
		return err
	}
	p.logbase = p.physbase
	p.screen = surface.NewMono(p.mem, p.physbase)
	if err := p.initLineA(); err != nil {
		return err
	}

	w := p.mem.IO()
	w.Define(guest.RegVideoBaseHi, &guest.Register{Name: "video_base_hi",
		Read: func() uint8 { return uint8(p.physbase >> 16) }})
	w.Define(guest.RegVideoBaseMid, &guest.Register{Name: "video_base_mid",
		Read: func() uint8 { return uint8(p.physbase >> 8) }})

	log.Info(log.TOSMonitoring, "system blocks", "kbdvbase", fmt.Sprintf("0x%08X", p.kbdvbase),
		"screen", fmt.Sprintf("0x%08X", p.physbase), "linea", fmt.Sprintf("0x%08X", p.linea.vars))
	return nil
}

// chdir selects the initial drive and directory through the guest's own
// GEMDOS entry points.
func (p *Process) chdir(drive int, dir string) error {
	if dir == "" {
		dir = `\`
	}
	if _, err := api.Dsetdrv(p, uint16(drive)); err != nil {
		return err
	}
	rc, err := api.Dsetpath(p, dir)
	if err != nil {
		return err
	}
	if rc != EOK {
		return fmt.Errorf("Dsetpath(%q) returned %d", dir, rc)
	}
	log.Info(log.TOSMonitoring, "working directory", "drive", string(hostfs.Letter(drive)), "dir", dir)
	return nil
}

func (p *Process) traceStep(s *trace.Step) {
	if p.tracer == nil {
		return
	}
	s.SetMemViolations(p.mem.Violations())
	if err := p.tracer.WriteStep(s); err != nil {
		log.Warn(log.CPUMonitoring, "trace write failed", "err", err)
		p.tracer = nil
	}
}

func (p *Process) disassembleText() {
	l := p.img.Layout
	listing := m68k.DisassembleRange(l.TextStart, l.DataStart, p.mem.Read16)
	var sb strings.Builder
	listing.WriteTo(&sb)
	log.Info(log.TOSMonitoring, "text disassembly begin")
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		log.Info(log.TOSMonitoring, line)
	}
	log.Info(log.TOSMonitoring, "text disassembly end")
}

// Invoke calls a trap function from the host. It implements api.Invoker.
func (p *Process) Invoke(vector uint32, selector uint16, args ...trap.Arg) (uint32, error) {
	return p.bridge.Invoke(vector, selector, args...)
}

func (p *Process) CPU() m68k.Engine { return p.cpu }

func (p *Process) Memory() *guest.Memory { return p.mem }

func (p *Process) Image() *loader.Image { return p.img }

func (p *Process) Bridge() *trap.Bridge[*Process] { return p.bridge }

func (p *Process) Screen() *surface.Mono { return p.screen }

func (p *Process) Drives() *hostfs.Drives { return p.drives }

// Abort asks the process to stop at the next slice boundary.
func (p *Process) Abort() { p.cpu.Abort() }

// Step executes one instruction for interactive use.
func (p *Process) Step() m68k.StopReason { return p.cpu.Step() }

// Run executes slices until the program returns to the sentinel, exits,
// faults, or ctx is cancelled.
func (p *Process) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	log.Emit("start", p.ID, map[string]interface{}{
		"name":    p.Name,
		"backend": p.cpu.Backend(),
		"text":    p.img.Layout.TextStart,
		"xxh3":    fmt.Sprintf("%016x", p.img.Fingerprint),
	})
	stop := context.AfterFunc(ctx, p.cpu.Abort)
	defer stop()

	var res Result
	for {
		if p.cpu.GetRegister(m68k.RegPC) == 0 {
			res.Reason = m68k.StopSentinel
			break
		}
		reason := p.cpu.Run(p.slice)
		res.Slices++
		if reason == m68k.StopBudget || reason == m68k.StopYield {
			continue
		}
		res.Reason = reason
		break
	}
	res.Cycles = p.cpu.Cycles()
	res.Calls = p.bridge.Calls()

	var err error
	switch res.Reason {
	case m68k.StopSentinel:
		res.ExitCode = int32(p.cpu.GetRegister(m68k.RegD0))
	case m68k.StopTerminated:
		res.ExitCode, _ = p.bridge.Exited()
		res.Err = p.bridge.Err()
	case m68k.StopAborted:
		res.ExitCode = -1
		err = ErrAborted
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
	case m68k.StopFatal:
		res.ExitCode = -1
		err = p.cpu.Err()
		res.Err = err
	}
	res.Elapsed = time.Since(start)

	kv := []interface{}{"elapsed", res.Elapsed.Milliseconds(), "exit_code", res.ExitCode}
	if res.Err != nil {
		kv = append(kv, "detail", res.Err.Error())
	}
	log.Emit("exit", p.ID, map[string]interface{}{
		"reason": res.Reason.String(),
		"slices": res.Slices,
		"cycles": res.Cycles,
		"calls":  res.Calls,
	}, kv...)
	log.Info(log.TOSMonitoring, "process finished", "process", p.ID, "reason", res.Reason.String(),
		"exit", res.ExitCode, "cycles", res.Cycles, "calls", res.Calls)
	return res, err
}

// Close releases files, the console, the display and the arena. The trace
// writer is left to the caller. Closing twice is a no-op.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		errs := []error{p.files.CloseAll()}
		p.console.Close()
		if p.display != nil {
			p.display.Release(p.ID)
		}
		p.tracer = nil
		errs = append(errs, p.img.Close())
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
