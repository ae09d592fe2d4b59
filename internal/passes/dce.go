package passes

import (
	"context"

	"ace/internal/ir"
	"ace/internal/trace"
)

// SymbolDCE erases private globals and functions that no live definition
// references. Public symbols and initializers are the roots; anything only
// reachable from dead code is dead too.
func SymbolDCE(ctx context.Context, f *ir.Fragment) error {
	live := make(map[*ir.Def]bool)
	var work []*ir.Def
	mark := func(d *ir.Def) {
		if d != nil && !live[d] {
			live[d] = true
			work = append(work, d)
		}
	}
	for _, d := range f.Defs() {
		if d.Kind == ir.DefInitializer || d.Visibility == ir.Public {
			mark(d)
		}
	}
	for len(work) > 0 {
		d := work[len(work)-1]
		work = work[:len(work)-1]
		for _, use := range ir.SymbolUses(d) {
			if ref, ok := f.Lookup(use.Name); ok {
				mark(ref)
			}
		}
	}

	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	erased := 0
	for _, d := range f.Defs() {
		if live[d] {
			continue
		}
		if err := f.Erase(d); err != nil {
			return err
		}
		erased++
		trace.Pointf(tr, trace.ScopeDef, "dce", parent, "erased %v", d)
	}
	trace.Pointf(tr, trace.ScopeStep, "dce", parent, "%d definitions erased", erased)
	return nil
}
