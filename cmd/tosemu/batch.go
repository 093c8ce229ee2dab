package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alirzasahb/PumpkinOS/host"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
	"github.com/alirzasahb/PumpkinOS/tos"
	"github.com/spf13/cobra"
)

func newBatchCmd(g *globals) *cobra.Command {
	var (
		m       machineFlags
		timeout time.Duration
		quiet   bool
	)
	batchCmd := &cobra.Command{
		Use:   "batch PROGRAM...",
		Short: "Run several programs concurrently, headless, and report how each ended",
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

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			mgr := host.NewManager[tos.Result]()
			outputs := make(map[string]*bytes.Buffer)
			var tracers []*trace.JSONLWriter
			defer func() {
				for _, t := range tracers {
					t.Close()
				}
			}()
			basePath := cfg.Trace.Path
			if basePath == "" || basePath == "-" {
				basePath = "trace.jsonl"
			}
			for i, arg := range args {
				// each process gets its own drive table, so current
				// directories stay private
				drives, err := cfg.Mount()
				if err != nil {
					return err
				}
				prog, err := locate(cfg, drives, arg)
				if err != nil {
					mgr.AbortAll()
					mgr.WaitAll()
					return err
				}
				if cfg.Trace.Enabled {
					cfg.Trace.Path = fmt.Sprintf("%s.%d", basePath, i)
				}
				out := &bytes.Buffer{}
				p, tracer, err := build(cfg, drives, prog, nil, nil, out, nil)
				if err != nil {
					mgr.AbortAll()
					mgr.WaitAll()
					return fmt.Errorf("%s: %w", arg, err)
				}
				if tracer != nil {
					tracers = append(tracers, tracer)
				}
				id := mgr.Start(ctx, arg, p)
				outputs[id] = out
			}

			failed := 0
			w := cmd.OutOrStdout()
			for _, o := range mgr.WaitAll() {
				status := fmt.Sprintf("exit %d (%s)", o.Result.ExitCode, o.Result.Reason)
				switch {
				case o.Err != nil:
					status = "error: " + o.Err.Error()
					failed++
				case o.Result.Err != nil:
					status += ": " + o.Result.Err.Error()
					failed++
				}
				fmt.Fprintf(w, "%s  %s  %s  %d cycles, %d calls, %s\n",
					o.ID[:8], o.Label, status, o.Result.Cycles, o.Result.Calls, o.Elapsed.Round(time.Millisecond))
				if !quiet && outputs[o.ID].Len() > 0 {
					fmt.Fprintf(w, "%s\n", outputs[o.ID].String())
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d programs failed", failed, len(args))
			}
			return nil
		},
	}
	m.register(batchCmd)
	batchCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort every program still running after this long")
	batchCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print console output")
	return batchCmd
}
