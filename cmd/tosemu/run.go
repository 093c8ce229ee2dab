package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/spf13/cobra"
)

// exitError carries the guest's exit code out of a command.
type exitError struct {
	code int32
}

func (e *exitError) Error() string { return fmt.Sprintf("program exited with %d", e.code) }

func newRunCmd(g *globals) *cobra.Command {
	var (
		m          machineFlags
		shot       string
		showStats  bool
		exitStatus bool
	)
	runCmd := &cobra.Command{
		Use:   `run PROGRAM [ARGS...]`,
		Short: `Run a program, given as a host path or a drive path like C:\DIR\PROG.PRG`,
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
			if shot != "" {
				cfg.Screenshot = shot
			}
			drives, err := cfg.Mount()
			if err != nil {
				return err
			}
			prog, err := locate(cfg, drives, args[0])
			if err != nil {
				return err
			}
			p, tracer, err := build(cfg, drives, prog, args[1:], os.Stdin, os.Stdout, surface.Shared())
			if err != nil {
				return err
			}
			if tracer != nil {
				defer tracer.Close()
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			res, runErr := p.Run(ctx)

			if cfg.Screenshot != "" {
				if err := screenshot(cfg.Screenshot); err != nil {
					log.Warn(log.HostMonitoring, "screenshot failed", "path", cfg.Screenshot, "err", err)
				}
			}
			if showStats {
				out := cmd.ErrOrStderr()
				fmt.Fprintf(out, "reason %s, exit %d, %d slices, %d cycles, %d calls in %s\n",
					res.Reason, res.ExitCode, res.Slices, res.Cycles, res.Calls, res.Elapsed)
				for _, s := range p.Bridge().Stats() {
					fmt.Fprintf(out, "  %-6s 0x%04X %-12s %d\n", s.Personality, s.Selector, s.Name, s.Count)
				}
			}
			if runErr != nil {
				return runErr
			}
			if res.Err != nil {
				return res.Err
			}
			if exitStatus && res.ExitCode != 0 {
				return &exitError{code: res.ExitCode}
			}
			return nil
		},
	}
	m.register(runCmd)
	runCmd.Flags().StringVar(&shot, "screenshot", "", "Save the screen as PNG when the program ends")
	runCmd.Flags().BoolVar(&showStats, "stats", false, "Print run statistics and per-call counts")
	runCmd.Flags().BoolVar(&exitStatus, "exit-status", false, "Fail when the program exits with a nonzero code")
	runCmd.Flags().SetInterspersed(false)
	return runCmd
}

// exitCode maps a command error to a process exit status.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return int(ee.code & 0xFF)
	}
	return 1
}
