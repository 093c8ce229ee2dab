package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alirzasahb/PumpkinOS/api"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/alirzasahb/PumpkinOS/tos"
	"github.com/chzyer/readline"
	"github.com/dop251/goja"
	"github.com/spf13/cobra"
)

const debugHelp = `step(n)          execute n instructions (default 1)
cont()           run slices until the program stops
regs()           register file as an object
pc()             program counter
setreg(r, v)     write a register, e.g. setreg("D0", 5)
peek(a, n)       n bytes at a, as hex
peekw(a) peekl(a) read a word or long
poke(a, b)       write a byte
dis(a, n)        disassemble n instructions from a (default PC)
tos.Name(...)    call a TOS function through the trap bridge, e.g. tos.Dgetdrv()
print(...)       print values
exit             leave the console`

func newDebugCmd(g *globals) *cobra.Command {
	var (
		m       machineFlags
		history string
	)
	debugCmd := &cobra.Command{
		Use:   "debug PROGRAM [ARGS...]",
		Short: "Load a program and inspect it from a JavaScript console",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := g.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			if err := m.apply(cfg); err != nil {
				return err
			}
			drives, err := cfg.Mount()
			if err != nil {
				return err
			}
			prog, err := locate(cfg, drives, args[0])
			if err != nil {
				return err
			}
			// the console owns stdin, so the guest reads nothing
			p, tracer, err := build(cfg, drives, prog, args[1:], nil, os.Stdout, surface.Shared())
			if err != nil {
				return err
			}
			if tracer != nil {
				defer tracer.Close()
			}
			defer p.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "tos> ",
				HistoryFile: history,
			})
			if err != nil {
				return fmt.Errorf("start readline: %w", err)
			}
			defer rl.Close()

			vm, err := newScript(p, rl.Stdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(rl.Stdout(), "%s loaded at 0x%06X, type help for commands\n", prog.name, p.Image().Layout.TextStart)
			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				case "help":
					fmt.Fprintln(rl.Stdout(), debugHelp)
					continue
				}
				v, err := vm.RunString(line)
				if err != nil {
					fmt.Fprintln(rl.Stdout(), "error:", err)
					continue
				}
				if v != nil && !goja.IsUndefined(v) {
					fmt.Fprintln(rl.Stdout(), v.String())
				}
			}
		},
	}
	m.register(debugCmd)
	debugCmd.Flags().StringVar(&history, "history", filepath.Join(os.TempDir(), "tosemu_history"), "Console history file")
	debugCmd.Flags().SetInterspersed(false)
	return debugCmd
}

// newScript binds the process to a JavaScript runtime.
func newScript(p *tos.Process, out io.Writer) (*goja.Runtime, error) {
	vm := goja.New()
	cpu, mem := p.CPU(), p.Memory()

	vm.Set("print", func(args ...goja.Value) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprint(a.Export())
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	})
	vm.Set("step", func(n int) string {
		if n <= 0 {
			n = 1
		}
		reason := m68k.StopBudget
		for i := 0; i < n; i++ {
			if cpu.GetRegister(m68k.RegPC) == 0 {
				return m68k.StopSentinel.String()
			}
			if reason = p.Step(); reason != m68k.StopBudget {
				break
			}
		}
		return reason.String()
	})
	vm.Set("cont", func() string {
		for {
			if cpu.GetRegister(m68k.RegPC) == 0 {
				return m68k.StopSentinel.String()
			}
			reason := cpu.Run(m68k.DefaultSlice)
			if reason != m68k.StopBudget && reason != m68k.StopYield {
				if err := cpu.Err(); err != nil {
					return reason.String() + ": " + err.Error()
				}
				return reason.String()
			}
		}
	})
	vm.Set("regs", func() map[string]interface{} {
		r := m68k.Snapshot(cpu)
		regs := make(map[string]interface{}, 20)
		for i := 0; i < 8; i++ {
			regs[fmt.Sprintf("D%d", i)] = r.D[i]
			regs[fmt.Sprintf("A%d", i)] = r.A[i]
		}
		regs["PC"] = r.PC
		regs["SR"] = r.SR
		regs["USP"] = r.USP
		regs["SSP"] = r.SSP
		return regs
	})
	vm.Set("pc", func() uint32 { return cpu.GetRegister(m68k.RegPC) })
	vm.Set("setreg", func(name string, v int64) error {
		for r := m68k.RegD0; r <= m68k.RegSSP; r++ {
			if strings.EqualFold(r.String(), name) {
				cpu.SetRegister(r, uint32(v))
				return nil
			}
		}
		return fmt.Errorf("unknown register %q", name)
	})
	vm.Set("peek", func(addr uint32, n int) string {
		if n <= 0 {
			n = 16
		}
		var b strings.Builder
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%02X", mem.Read8(addr+uint32(i)))
		}
		return b.String()
	})
	vm.Set("peekw", func(addr uint32) uint16 { return mem.Read16(addr) })
	vm.Set("peekl", func(addr uint32) uint32 { return mem.Read32(addr) })
	vm.Set("poke", func(addr uint32, v uint8) { mem.Write8(addr, v) })
	vm.Set("dis", func(call goja.FunctionCall) goja.Value {
		addr := cpu.GetRegister(m68k.RegPC)
		n := 8
		if a := call.Argument(0); !goja.IsUndefined(a) {
			addr = uint32(a.ToInteger())
		}
		if c := call.Argument(1); !goja.IsUndefined(c) {
			n = int(c.ToInteger())
		}
		lines := make([]string, 0, n)
		for i := 0; i < n; i++ {
			text, size := m68k.Disassemble(addr, mem.Read16)
			lines = append(lines, fmt.Sprintf("0x%06X  %-20s %s", addr, m68k.MakeHex(mem.Read16, addr, size), text))
			addr += size
		}
		return vm.ToValue(strings.Join(lines, "\n"))
	})
	vm.Set("shim_call", func(name string, args ...goja.Value) (int64, error) {
		shim, ok := api.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("no TOS function %q", name)
		}
		values := make([]interface{}, len(args))
		for i, a := range args {
			values[i] = a.Export()
		}
		return shim.Call(p, values...)
	})

	_, err := vm.RunString(`
		var tos = new Proxy({}, {
			get: function(target, name) {
				return function(...args) {
					return shim_call(name, ...args);
				};
			}
		});
		var help = ` + "`" + debugHelp + "`" + `;
	`)
	if err != nil {
		return nil, fmt.Errorf("console bindings: %w", err)
	}
	return vm, nil
}
