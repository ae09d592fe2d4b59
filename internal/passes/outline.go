package passes

import (
	"context"
	"fmt"
	"strings"

	"ace/internal/ir"
	"ace/internal/merge"
	"ace/internal/trace"
)

var typeMangler = strings.NewReplacer("<", "_", ">", "", "?", "D", ", ", "_")

// constantName returns the stem used for a global outlined from a value of
// type t, e.g. __constant_tensor_4xf32.
func constantName(t ir.Type) string {
	return "__constant_" + typeMangler.Replace(t.String())
}

// OutlineConstants hoists every dense arith.constant into a private
// immutable global and replaces the op with a load of that global. The
// result value keeps its id, so no operand needs rewriting. Constants with
// identical values share one global. Outlined globals can then be aliased
// by later merges.
func OutlineConstants(ctx context.Context, f *ir.Fragment) error {
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	var outlined []*ir.Def
	// keyed by canonical encoding
	byValue := make(map[string]*ir.Def)
	for _, d := range f.Defs() {
		if d.Kind == ir.DefGlobal {
			continue
		}
		var err error
		ir.WalkOps(&d.Body, func(op *ir.Op) {
			if err != nil || op.Name != ir.OpConstant || len(op.Results) != 1 {
				return
			}
			value, ok := op.Attr(ir.AttrNameValue)
			if !ok || value.Kind != ir.AttrDense {
				return
			}
			key := string(value.AppendCanonical(nil))
			g, shared := byValue[key]
			if !shared {
				name := merge.Uniquify(constantName(value.Type), f.Symbols)
				g = ir.NewGlobal(name, value.Type, false, &value)
				if err = f.Prepend(g); err != nil {
					return
				}
				byValue[key] = g
				outlined = append(outlined, g)
			}
			op.Name = ir.OpGlobalLoad
			op.Attrs = []ir.NamedAttr{{Name: ir.AttrNameGlobal, Value: ir.SymbolRef(g.Name())}}
			trace.Pointf(tr, trace.ScopeDef, "outline", parent, "%v: %s -> @%s", d, value.Type, g.Name())
		})
		if err != nil {
			return fmt.Errorf("outline constants in %v: %w", d, err)
		}
	}
	trace.Pointf(tr, trace.ScopeStep, "outline", parent, "%d constants outlined", len(outlined))
	return nil
}
