package workspace

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"ace/internal/ir"
	"ace/internal/irfile"
	"ace/internal/trace"
)

// InputSpec names one fragment file to open.
type InputSpec struct {
	Path  string
	Ident string
}

// OpenInput reads the fragment at path and registers it as an input.
func (ws *Workspace) OpenInput(ctx context.Context, path, ident string) (*Module, error) {
	mods, err := ws.OpenInputs(ctx, []InputSpec{{Path: path, Ident: ident}})
	if err != nil {
		return nil, err
	}
	return mods[0], nil
}

// OpenInputs reads several fragment files in parallel. Identifiers are
// reserved up front in argument order, so the result does not depend on which
// file finishes first. On any failure no input is registered.
func (ws *Workspace) OpenInputs(ctx context.Context, specs []InputSpec) ([]*Module, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	ws.mu.Lock()
	idents := make([]string, len(specs))
	for i, spec := range specs {
		idents[i] = ws.inputs.reserve(NormalizeIdent(spec.Ident, DefaultInput))
		ws.inputs.hold(idents[i])
	}
	ws.mu.Unlock()

	frags := make([]*ir.Fragment, len(specs))
	err := ws.timed(fmt.Sprintf("open %d input(s)", len(specs)), func() error {
		ctx, span := spanFor(ctx, trace.ScopeSession, "open")
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, spec := range specs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				f, err := irfile.Read(spec.Path)
				if err != nil {
					return fmt.Errorf("open %s as %s: %w", spec.Path, idents[i], err)
				}
				trace.Pointf(trace.FromContext(gctx), trace.ScopeStep, "open", trace.CurrentSpan(gctx),
					"opened %s as %s (%d definitions)", spec.Path, idents[i], f.Len())
				frags[i] = f
				return nil
			})
		}
		err := g.Wait()
		if err != nil {
			span.End("error")
		} else {
			span.End("")
		}
		return err
	})

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err != nil {
		for _, ident := range idents {
			ws.inputs.release(ident)
		}
		return nil, err
	}
	mods := make([]*Module, len(specs))
	for i, f := range frags {
		mods[i] = &Module{ws: ws, Ident: idents[i], Role: RoleInput, Path: specs[i].Path, Fragment: f}
		ws.inputs.add(mods[i])
	}
	return mods, nil
}

// Save writes the output module named ident to path.
func (ws *Workspace) Save(ctx context.Context, ident, path string) error {
	out, err := ws.Output(ident)
	if err != nil {
		return err
	}
	return ws.timed("save "+out.Ident, func() error {
		_, span := spanFor(ctx, trace.ScopeSession, "save", "module", out.Ident, "path", path)
		if err := irfile.Write(path, out.Fragment); err != nil {
			span.End("error")
			return fmt.Errorf("save %s: %w", out.Ident, err)
		}
		out.Path = path
		span.End("")
		return nil
	})
}
