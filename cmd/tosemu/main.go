// tosemu runs Atari ST TOS programs on the host.
//
//	tosemu run -d C=./disk 'C:\GAMES\TETRIS.PRG'
//	tosemu info prog.tos
//	tosemu disasm --tree prog.tos
//	tosemu debug prog.tos
//	tosemu tracediff good.jsonl bad.jsonl
//	tosemu batch a.tos b.tos c.tos
package main

import (
	"fmt"
	"os"

	"github.com/alirzasahb/PumpkinOS/config"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logModules string
	events     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:           "tosemu",
		Short:         "Run Atari TOS programs on a 68000 emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML settings file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, crit)")
	rootCmd.PersistentFlags().StringVar(&g.logModules, "log-modules", "", "Comma separated modules to enable for debug and trace output, e.g. gemdos,m68k")
	rootCmd.PersistentFlags().StringVar(&g.events, "events", "", "Append process lifecycle events as JSON lines to this file")

	rootCmd.AddCommand(
		newRunCmd(g),
		newInfoCmd(g),
		newDisasmCmd(g),
		newDebugCmd(g),
		newTraceDiffCmd(),
		newBatchCmd(g),
	)
	return rootCmd
}

// setup loads the settings file, applies the logging flags over it and
// installs the root logger. The returned cleanup closes the event file.
func (g *globals) setup() (*config.Config, func(), error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logModules != "" {
		cfg.LogModules = g.logModules
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)
	cleanup := func() {}
	if g.events != "" {
		f, err := os.OpenFile(g.events, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open events file: %w", err)
		}
		log.SetDefault(log.NewLoggerWithEvents(handler, log.NewWriterSink(f)))
		cleanup = func() { f.Close() }
	} else {
		log.SetDefault(log.NewLogger(handler))
	}
	if cfg.LogModules != "" {
		log.EnableModules(cfg.LogModules)
	}
	return cfg, cleanup, nil
}
