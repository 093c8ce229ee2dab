package main

import (
	"fmt"
	"os"

	"github.com/alirzasahb/PumpkinOS/loader"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/spf13/cobra"
)

func newDisasmCmd(g *globals) *cobra.Command {
	var (
		tree  bool
		entry uint32
	)
	disasmCmd := &cobra.Command{
		Use:   "disasm PROGRAM",
		Short: "Disassemble the relocated text segment, following control flow from the entry point",
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
				MemorySize:  cfg.ArenaSize,
				AddressBits: cfg.AddressBits,
			})
			if err != nil {
				return err
			}
			defer img.Close()

			start := img.Layout.TextStart
			end := start + img.Layout.TextSize
			if entry >= img.Layout.TextSize && entry > 0 {
				return fmt.Errorf("entry offset 0x%X is outside the %d byte text segment", entry, img.Layout.TextSize)
			}
			listing := m68k.DisassembleRange(start+entry, end, img.Mem.Read16)
			out := cmd.OutOrStdout()
			if tree {
				fmt.Fprint(out, listing.Tree().String())
				return nil
			}
			_, err = listing.WriteTo(out)
			return err
		},
	}
	disasmCmd.Flags().BoolVar(&tree, "tree", false, "Group the listing into straight-line regions")
	disasmCmd.Flags().Uint32Var(&entry, "entry", 0, "Start decoding at this offset into the text segment")
	return disasmCmd
}
