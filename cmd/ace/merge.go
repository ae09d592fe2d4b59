package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ace/internal/plan"
	"ace/internal/workspace"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] <input.irf>...",
	Short: "Merge fragments into one output fragment",
	Long: `Merge moves every definition of each input, in order, into a single output.
Conflicting names are made unique with a $N suffix, immutable globals whose
value already exists in the output are shared, and references are rewritten.

Renames are written from=to and apply to every input, or input:from=to to
target one input by identifier (input0, input1, ... in argument order).`,
	Args: func(cmd *cobra.Command, args []string) error {
		planPath, _ := cmd.Flags().GetString("plan")
		if planPath != "" {
			if len(args) > 0 {
				return fmt.Errorf("--plan cannot be combined with input files")
			}
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("at least one input file is required")
		}
		return nil
	},
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "", "output fragment file")
	mergeCmd.Flags().String("into", "", "existing fragment to merge the inputs into")
	mergeCmd.Flags().String("name", workspace.DefaultOutput, "identifier of the output module")
	mergeCmd.Flags().StringArray("rename", nil, "requested rename [input:]from=to (repeatable)")
	mergeCmd.Flags().Bool("normalize", false, "outline constants and drop dead symbols before merging")
	mergeCmd.Flags().String("plan", "", "merge plan file (.toml or .yaml)")
}

// renameSet holds --rename requests: global ones under "" and per-input
// ones under the input identifier.
type renameSet map[string]map[string]string

func parseRenames(values []string) (renameSet, error) {
	set := renameSet{}
	for _, v := range values {
		lhs, to, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --rename %q (expected [input:]from=to)", v)
		}
		ident, from := "", lhs
		if i := strings.IndexByte(lhs, ':'); i >= 0 {
			ident, from = strings.TrimSpace(lhs[:i]), lhs[i+1:]
		}
		from, to = strings.TrimPrefix(strings.TrimSpace(from), "@"), strings.TrimPrefix(strings.TrimSpace(to), "@")
		if from == "" || to == "" {
			return nil, fmt.Errorf("invalid --rename %q: empty symbol name", v)
		}
		if set[ident] == nil {
			set[ident] = make(map[string]string)
		}
		if prev, dup := set[ident][from]; dup && prev != to {
			return nil, fmt.Errorf("conflicting --rename for @%s: @%s and @%s", from, prev, to)
		}
		set[ident][from] = to
	}
	return set, nil
}

// forInput returns the renames applying to the input named ident.
func (s renameSet) forInput(ident string) map[string]string {
	out := make(map[string]string, len(s[""])+len(s[ident]))
	for from, to := range s[""] {
		out[from] = to
	}
	for from, to := range s[ident] {
		out[from] = to
	}
	return out
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws := workspace.New()
	defer printTimings(cmd, ws.Timer())

	if planPath, _ := cmd.Flags().GetString("plan"); planPath != "" {
		p, err := plan.Load(planPath)
		if err != nil {
			return err
		}
		report, err := plan.Execute(ctx, ws, p)
		if report != nil {
			for i, res := range report.Results {
				printMergeResult(cmd, report.Inputs[i].Ident, res)
			}
		}
		if err != nil {
			return err
		}
		statusf(cmd, "wrote %s", p.Output.Path)
		return nil
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		return fmt.Errorf("missing --output")
	}
	into, _ := cmd.Flags().GetString("into")
	name, _ := cmd.Flags().GetString("name")
	normalize, _ := cmd.Flags().GetBool("normalize")
	renameFlags, _ := cmd.Flags().GetStringArray("rename")
	renames, err := parseRenames(renameFlags)
	if err != nil {
		return err
	}

	specs := make([]workspace.InputSpec, len(args))
	for i, path := range args {
		specs[i] = workspace.InputSpec{Path: path}
	}
	inputs, err := ws.OpenInputs(ctx, specs)
	if err != nil {
		return err
	}
	for ident := range renames {
		if ident == "" {
			continue
		}
		if _, err := ws.Input(ident); err != nil {
			return fmt.Errorf("--rename: %w", err)
		}
	}

	out := ws.CreateEmpty(name)
	if into != "" {
		// Merging into an empty output moves every definition unchanged.
		base, err := ws.OpenInput(ctx, into, "base")
		if err != nil {
			return err
		}
		if _, err := base.MergeTo(ctx, out.Ident, nil); err != nil {
			return err
		}
		statusf(cmd, "loaded %s as the merge target", into)
	}

	for _, in := range inputs {
		if normalize {
			if err := in.Normalize(ctx); err != nil {
				return err
			}
		}
		res, err := in.MergeTo(ctx, out.Ident, renames.forInput(in.Ident))
		if err != nil {
			return err
		}
		printMergeResult(cmd, fmt.Sprintf("%s (%s)", in.Ident, in.Path), res)
	}
	if err := ws.Save(ctx, out.Ident, outPath); err != nil {
		return err
	}
	statusf(cmd, "wrote %s", outPath)
	return nil
}
