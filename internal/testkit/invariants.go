// Package testkit holds invariant checkers shared by tests.
package testkit

import (
	"errors"
	"fmt"

	"ace/internal/ir"
)

// CheckUniqueNames verifies that no two named definitions of f share a name
// and that the symbol table indexes exactly those names.
func CheckUniqueNames(f *ir.Fragment) error {
	if f == nil {
		return fmt.Errorf("nil fragment")
	}
	seen := make(map[string]*ir.Def)
	var errs []error
	for _, d := range f.Defs() {
		if !d.IsSymbol() {
			continue
		}
		if prev, ok := seen[d.Name()]; ok {
			errs = append(errs, fmt.Errorf("@%s defined twice (%v, %v)", d.Name(), prev.Kind, d.Kind))
			continue
		}
		seen[d.Name()] = d
		if got, ok := f.Lookup(d.Name()); !ok || got != d {
			errs = append(errs, fmt.Errorf("@%s missing from the symbol table", d.Name()))
		}
	}
	if len(seen) != f.Symbols.Len() {
		errs = append(errs, fmt.Errorf("symbol table has %d names, fragment has %d named definitions", f.Symbols.Len(), len(seen)))
	}
	return errors.Join(errs...)
}

// CheckNoDangling verifies that every symbol reference inside defs resolves
// to a definition of f. With no defs given, every definition of f is checked.
func CheckNoDangling(f *ir.Fragment, defs ...*ir.Def) error {
	if f == nil {
		return fmt.Errorf("nil fragment")
	}
	if len(defs) == 0 {
		defs = f.Defs()
	}
	var errs []error
	for _, d := range defs {
		for _, use := range ir.SymbolUses(d) {
			if _, ok := f.Lookup(use.Name); !ok {
				errs = append(errs, fmt.Errorf("%v: %s references missing @%s", d, use.Op.Name, use.Name))
			}
		}
	}
	return errors.Join(errs...)
}

// CheckMerged runs every post-merge invariant on target: unique names, no
// dangling references, and a clean structural verification.
func CheckMerged(target *ir.Fragment) error {
	return errors.Join(
		CheckUniqueNames(target),
		CheckNoDangling(target),
		ir.Verify(target),
	)
}

// References returns the symbol names referenced by d in walk order.
func References(d *ir.Def) []string {
	uses := ir.SymbolUses(d)
	names := make([]string, len(uses))
	for i, u := range uses {
		names[i] = u.Name
	}
	return names
}
