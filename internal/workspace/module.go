package workspace

import (
	"context"
	"fmt"

	"ace/internal/ir"
	"ace/internal/merge"
	"ace/internal/passes"
	"ace/internal/trace"
)

// NormalizePipeline turns eligible inline constants into globals and drops
// what became unreachable, so later merges can alias them.
const NormalizePipeline = "outline-constants, symbol-dce"

// Module is one fragment held by a workspace.
type Module struct {
	ws *Workspace

	Ident    string
	Role     Role
	Path     string
	Fragment *ir.Fragment
}

func (m *Module) String() string {
	return fmt.Sprintf("%s(%s)", m.Role, m.Ident)
}

// PublicFunctions returns the public functions of the module in body order.
func (m *Module) PublicFunctions() []*ir.Def {
	return m.Fragment.PublicFunctions()
}

// Normalize runs NormalizePipeline over the module.
func (m *Module) Normalize(ctx context.Context) error {
	return m.ws.timed("normalize "+m.Ident, func() error {
		ctx, span := spanFor(ctx, trace.ScopeSession, "normalize", "module", m.Ident)
		if err := passes.RunPipeline(ctx, m.Fragment, NormalizePipeline); err != nil {
			span.End("error")
			return fmt.Errorf("normalize %s: %w", m.Ident, err)
		}
		span.End("")
		return nil
	})
}

// MergeTo destructively merges m into the output named output and verifies
// the output afterwards. renames maps original names in m to requested
// final names. The merge runs on copies of both fragments; on any failure
// neither m nor the output changes.
func (m *Module) MergeTo(ctx context.Context, output string, renames map[string]string) (*merge.Result, error) {
	out, err := m.ws.Output(output)
	if err != nil {
		return nil, err
	}
	return m.mergeInto(ctx, out, renames)
}

func (m *Module) mergeInto(ctx context.Context, out *Module, renames map[string]string) (*merge.Result, error) {
	var res *merge.Result
	err := m.ws.timed(fmt.Sprintf("merge %s -> %s", m.Ident, out.Ident), func() error {
		ctx, span := spanFor(ctx, trace.ScopeSession, "merge_to", "input", m.Ident, "output", out.Ident)
		source, target := ir.Clone(m.Fragment), ir.Clone(out.Fragment)
		var err error
		res, err = merge.Merge(ctx, source, target, renames)
		if err != nil {
			span.End("error")
			return fmt.Errorf("merge %s into %s: %w", m.Ident, out.Ident, err)
		}
		if err := ir.Verify(target); err != nil {
			span.End("invalid")
			return fmt.Errorf("verify %s after merging %s: %w", out.Ident, m.Ident, err)
		}
		m.Fragment, out.Fragment = source, target
		span.End("")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
