package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ace/internal/ir"
	"ace/internal/irfile"
	"ace/internal/workspace"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.irf>",
	Short: "Print a fragment as text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbolsOnly, _ := cmd.Flags().GetBool("symbols")
		f, err := irfile.Read(args[0])
		if err != nil {
			return err
		}
		return ir.Dump(cmd.OutOrStdout(), f, ir.DumpOptions{SymbolsOnly: symbolsOnly})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file.irf>...",
	Short: "Check fragments for structural problems",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			f, err := irfile.Read(path)
			if err == nil {
				err = ir.Verify(f)
			}
			if err != nil {
				failed++
				reportError(cmd.ErrOrStderr(), fmt.Errorf("%s: %w", path, err))
				continue
			}
			statusf(cmd, "%s %s: %d definitions", okColor.Sprint("ok"), path, f.Len())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d fragment(s) failed verification", failed, len(args))
		}
		return nil
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions <file.irf>",
	Short: "List the public functions of a fragment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := irfile.Read(args[0])
		if err != nil {
			return err
		}
		for _, fn := range f.PublicFunctions() {
			fmt.Fprintf(cmd.OutOrStdout(), "@%s%s\n", fn.Name(), fn.Signature)
		}
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file.irf>",
	Short: "Outline constants into globals and drop dead symbols",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = args[0]
		}
		ctx := cmd.Context()
		ws := workspace.New()
		defer printTimings(cmd, ws.Timer())

		in, err := ws.OpenInput(ctx, args[0], "")
		if err != nil {
			return err
		}
		if err := in.Normalize(ctx); err != nil {
			return err
		}
		out := ws.CreateEmpty(in.Fragment.Name)
		if _, err := in.MergeTo(ctx, out.Ident, nil); err != nil {
			return err
		}
		if err := ws.Save(ctx, out.Ident, outPath); err != nil {
			return err
		}
		statusf(cmd, "wrote %s", outPath)
		return nil
	},
}

func init() {
	dumpCmd.Flags().Bool("symbols", false, "print definition headers only")
	normalizeCmd.Flags().StringP("output", "o", "", "output file (default: rewrite the input)")
}
