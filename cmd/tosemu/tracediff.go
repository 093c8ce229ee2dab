package main

import (
	"errors"
	"fmt"

	"github.com/alirzasahb/PumpkinOS/m68k/trace"
	"github.com/spf13/cobra"
)

var errTracesDiffer = errors.New("traces differ")

func newTraceDiffCmd() *cobra.Command {
	var color bool
	diffCmd := &cobra.Command{
		Use:   "tracediff EXPECTED ACTUAL",
		Short: "Report the first instruction where two JSON lines traces diverge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := trace.ReadStepsFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			actual, err := trace.ReadStepsFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			d, err := trace.Diff(expected, actual, color)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if d == nil {
				fmt.Fprintf(out, "traces match (%d steps)\n", len(expected))
				return nil
			}
			fmt.Fprintf(out, "first divergence at step %d\n", d.Index)
			if d.Expected != nil {
				fmt.Fprintf(out, "  expected 0x%08X %s\n", d.Expected.PC, d.Expected.Text)
			}
			if d.Actual != nil {
				fmt.Fprintf(out, "  actual   0x%08X %s\n", d.Actual.PC, d.Actual.Text)
			}
			fmt.Fprintln(out, d.Report)
			return errTracesDiffer
		},
	}
	diffCmd.Flags().BoolVar(&color, "color", false, "Color the report")
	return diffCmd
}
