package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ace/internal/merge"
	"ace/internal/observ"
	"ace/internal/version"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	noteColor  = color.New(color.FgCyan)
	aliasColor = color.New(color.FgYellow)
)

// applyColorFlag sets the global color mode from --color.
func applyColorFlag(cmd *cobra.Command) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color %q (expected auto|on|off)", colorFlag)
	}
	return nil
}

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}

// statusf prints a progress line to stderr unless --quiet is set.
func statusf(cmd *cobra.Command, format string, args ...any) {
	if quiet(cmd) {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", noteColor.Sprint(":"), fmt.Sprintf(format, args...))
}

// printMergeResult reports the renames and aliases of one merge.
func printMergeResult(cmd *cobra.Command, input string, res *merge.Result) {
	if quiet(cmd) || res == nil {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%s merged %s: %d globals, %d initializers, %d functions\n",
		okColor.Sprint("ok"), input, res.Globals, res.Initializers, res.Functions)
	for _, a := range res.Aliases {
		fmt.Fprintf(out, "  %s @%s -> @%s\n", aliasColor.Sprint("alias"), a.From, a.To)
	}
	for _, r := range res.Renames.Pairs() {
		if isAlias(res, r.From) {
			continue
		}
		fmt.Fprintf(out, "  rename @%s -> @%s\n", r.From, r.To)
	}
	for _, name := range res.UnusedRenames {
		fmt.Fprintf(out, "  %s rename of @%s matched nothing\n", noteColor.Sprint("note"), name)
	}
}

func isAlias(res *merge.Result, name string) bool {
	for _, a := range res.Aliases {
		if a.From == name {
			return true
		}
	}
	return false
}

// printTimings writes the timer summary when --timings is set.
func printTimings(cmd *cobra.Command, timer *observ.Timer) {
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !show || timer == nil || timer.Len() == 0 {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}

// reportError prints err, spelling out which names clashed for rename
// conflicts.
func reportError(w io.Writer, err error) {
	var conflict *merge.RenameConflictError
	if errors.As(err, &conflict) {
		fmt.Fprintf(w, "%s cannot rename @%s to @%s: the name is already taken", errColor.Sprint("error:"), conflict.Original, conflict.Requested)
		if conflict.Holder != "" {
			fmt.Fprintf(w, " by @%s from the same input", conflict.Holder)
		}
		fmt.Fprintln(w)
		return
	}
	// Joined errors carry one problem per line.
	fmt.Fprintf(w, "%s %s\n", errColor.Sprint("error:"), strings.ReplaceAll(err.Error(), "\n", "\n  "))
}

func versionString() string {
	return version.Version
}
