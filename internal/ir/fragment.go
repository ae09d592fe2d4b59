package ir

import (
	"errors"
	"fmt"
	"slices"

	"ace/internal/symbols"
)

var (
	// ErrOwned reports an attach of a definition still held by a fragment.
	ErrOwned = errors.New("definition is owned by another fragment")
	// ErrNotOwner reports a detach from a fragment that does not hold the definition.
	ErrNotOwner = errors.New("definition is not owned by this fragment")
)

// Fragment is a self-contained program unit: ordered top-level definitions
// plus the symbol table over their names.
type Fragment struct {
	Name    string
	Symbols *symbols.Table

	defs []*Def
}

// NewFragment creates an empty fragment.
func NewFragment(name string) *Fragment {
	return &Fragment{Name: name, Symbols: symbols.NewTable(symbols.Hints{})}
}

// Defs returns a snapshot of all definitions in body order.
func (f *Fragment) Defs() []*Def {
	if f == nil {
		return nil
	}
	return slices.Clone(f.defs)
}

// Len reports the number of definitions.
func (f *Fragment) Len() int {
	if f == nil {
		return 0
	}
	return len(f.defs)
}

// OfKind returns a snapshot of the definitions of one kind in body order.
func (f *Fragment) OfKind(kind DefKind) []*Def {
	if f == nil {
		return nil
	}
	var out []*Def
	for _, d := range f.defs {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Globals returns the global definitions in body order.
func (f *Fragment) Globals() []*Def { return f.OfKind(DefGlobal) }

// Initializers returns the initializers in body order.
func (f *Fragment) Initializers() []*Def { return f.OfKind(DefInitializer) }

// Functions returns the functions in body order.
func (f *Fragment) Functions() []*Def { return f.OfKind(DefFunction) }

// PublicFunctions returns the public functions in body order.
func (f *Fragment) PublicFunctions() []*Def {
	var out []*Def
	for _, d := range f.Functions() {
		if d.Visibility == Public {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the definition named name.
func (f *Fragment) Lookup(name string) (*Def, bool) {
	if f == nil {
		return nil, false
	}
	sym, ok := f.Symbols.Lookup(name)
	if !ok {
		return nil, false
	}
	d, ok := sym.(*Def)
	return d, ok
}

// Append attaches an unowned definition at the end of the body.
func (f *Fragment) Append(d *Def) error {
	if err := f.attach(d); err != nil {
		return err
	}
	f.defs = append(f.defs, d)
	return nil
}

// Prepend attaches an unowned definition at the start of the body.
func (f *Fragment) Prepend(d *Def) error {
	if err := f.attach(d); err != nil {
		return err
	}
	f.defs = slices.Insert(f.defs, 0, d)
	return nil
}

func (f *Fragment) attach(d *Def) error {
	if d == nil {
		return fmt.Errorf("attach to %s: nil definition", f.Name)
	}
	if d.owner != nil {
		return fmt.Errorf("attach %v to %s: %w (%s)", d, f.Name, ErrOwned, d.owner.Name)
	}
	if d.IsSymbol() {
		if err := f.Symbols.Insert(d); err != nil {
			return fmt.Errorf("attach to %s: %w", f.Name, err)
		}
	}
	d.owner = f
	return nil
}

// Detach removes d from the fragment and returns it unowned. The returned
// definition may be attached to exactly one other fragment or dropped.
func (f *Fragment) Detach(d *Def) (*Def, error) {
	if d == nil || d.owner != f {
		return nil, fmt.Errorf("detach %v from %s: %w", d, f.Name, ErrNotOwner)
	}
	idx := slices.Index(f.defs, d)
	if idx < 0 {
		return nil, fmt.Errorf("detach %v from %s: %w", d, f.Name, ErrNotOwner)
	}
	if d.IsSymbol() {
		if err := f.Symbols.Remove(d); err != nil {
			return nil, fmt.Errorf("detach from %s: %w", f.Name, err)
		}
	}
	f.defs = slices.Delete(f.defs, idx, idx+1)
	d.owner = nil
	return d, nil
}

// Erase detaches d and drops it.
func (f *Fragment) Erase(d *Def) error {
	_, err := f.Detach(d)
	return err
}

// Clear detaches and drops every definition.
func (f *Fragment) Clear() {
	for _, d := range f.defs {
		d.owner = nil
	}
	f.defs = nil
	f.Symbols = symbols.NewTable(symbols.Hints{})
}
