package plan

import (
	"context"
	"fmt"

	"ace/internal/merge"
	"ace/internal/trace"
	"ace/internal/workspace"
)

// Report is the outcome of executing a plan.
type Report struct {
	Output  *workspace.Module
	Inputs  []*workspace.Module
	Results []*merge.Result
}

// Execute opens every input of p, normalizes those that ask for it, merges
// them into a fresh output in plan order and saves the output.
func Execute(ctx context.Context, ws *workspace.Workspace, p *Plan) (*Report, error) {
	ctx, span := trace.BeginCtx(ctx, trace.ScopeSession, "plan")
	span.WithExtra("plan", p.Path)

	specs := make([]workspace.InputSpec, len(p.Inputs))
	for i, in := range p.Inputs {
		specs[i] = workspace.InputSpec{Path: in.Path, Ident: in.Ident}
	}
	mods, err := ws.OpenInputs(ctx, specs)
	if err != nil {
		span.End("error")
		return nil, err
	}
	out := ws.CreateEmpty(p.Output.Name)
	report := &Report{Output: out, Inputs: mods}

	for i, m := range mods {
		if p.Inputs[i].Normalize {
			if err := m.Normalize(ctx); err != nil {
				span.End("error")
				return report, err
			}
		}
		res, err := m.MergeTo(ctx, out.Ident, p.Inputs[i].Renames)
		if err != nil {
			span.End("error")
			return report, fmt.Errorf("plan input %d: %w", i, err)
		}
		report.Results = append(report.Results, res)
	}
	if err := ws.Save(ctx, out.Ident, p.Output.Path); err != nil {
		span.End("error")
		return report, err
	}
	span.End("")
	return report, nil
}
