package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ace/internal/prof"
)

var rootCmd = &cobra.Command{
	Use:           "ace",
	Short:         "Compose IR fragments into one program",
	Long:          `ace merges independently produced IR fragments, resolving symbol conflicts and sharing equal constants`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorFlag(cmd); err != nil {
			return err
		}
		p, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profiler = p
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		finish(cmd)
	},
}

var (
	// traceCleanup flushes the tracer installed for the running command.
	traceCleanup func()
	profiler     *prof.Profiler
)

// finish flushes tracing and stops profiling; later calls do nothing.
func finish(cmd *cobra.Command) {
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if err := profiler.Stop(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
	}
}

// main registers subcommands and persistent flags and executes the root
// command. Any error exits with status code 1.
func main() {
	rootCmd.Version = versionString()

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(versionCmd)

	addGlobalFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRun is skipped when RunE fails.
		finish(rootCmd)
		reportError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	cmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().Bool("timings", false, "show timing information")
	cmd.PersistentFlags().String("trace", "", "write trace events to a file (- for stderr)")
	cmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	cmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	cmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	cmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	cmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	cmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
