package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alirzasahb/PumpkinOS/loader"
	"github.com/spf13/cobra"
)

func newInfoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info PROGRAM",
		Short: "Show the header, memory layout and fingerprint of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := g.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := loader.Load(image, []string{args[0]}, loader.Options{
				Backend:     cfg.Backend,
				MemorySize:  cfg.ArenaSize,
				AddressBits: cfg.AddressBits,
			})
			if err != nil {
				return err
			}
			defer img.Close()
			printInfo(cmd.OutOrStdout(), args[0], img)
			return nil
		},
	}
}

func printInfo(w io.Writer, name string, img *loader.Image) {
	h, l := img.Header, img.Layout
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  xxh3        %016x\n", img.Fingerprint)
	fmt.Fprintf(w, "  text        %d bytes\n", h.TextSize)
	fmt.Fprintf(w, "  data        %d bytes\n", h.DataSize)
	fmt.Fprintf(w, "  bss         %d bytes\n", h.BssSize)
	fmt.Fprintf(w, "  symbols     %d bytes\n", h.SymSize)
	fmt.Fprintf(w, "  relocation  %d bytes, %d fixups\n", h.RelocSize, img.Fixups)
	fmt.Fprintf(w, "  flags       0x%08X absolute=%d\n", h.ProgFlags, h.AbsFlag)
	fmt.Fprintf(w, "layout (%d bytes)\n", l.MemorySize)
	region := func(name string, start, size uint32) {
		fmt.Fprintf(w, "  %-10s  0x%06X-0x%06X  %d\n", name, start, start+size, size)
	}
	region("base page", l.BasePage, loader.BasePageSize)
	region("text", l.TextStart, l.TextSize)
	region("data", l.DataStart, l.DataSize)
	region("bss", l.BssStart, l.BssSize)
	region("heap", l.HeapStart, l.HeapSize)
	region("stack", l.StackStart, l.StackTop-l.StackStart)
	fmt.Fprintf(w, "  command     %q\n", img.BasePage.CmdLine)
}
