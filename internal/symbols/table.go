package symbols

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Hints provide optional capacity suggestions for a table.
type Hints struct{ Symbols uint }

// Table is the name index of one fragment. It maps every occupied name to
// the symbol holding it; iteration order is not meaningful.
type Table struct {
	byName map[string]Symbol
}

// NewTable builds an empty table with an optional capacity hint.
func NewTable(h Hints) *Table {
	capacity, err := safecast.Conv[int](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	return &Table{byName: make(map[string]Symbol, capacity)}
}

// Exists reports whether name is occupied.
func (t *Table) Exists(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byName[name]
	return ok
}

// Lookup returns the symbol registered under name.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if t == nil {
		return nil, false
	}
	sym, ok := t.byName[name]
	return sym, ok
}

// Insert registers sym under its current name.
func (t *Table) Insert(sym Symbol) error {
	name := sym.SymbolName()
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := t.byName[name]; ok {
		return fmt.Errorf("insert @%s: %w", name, ErrDuplicate)
	}
	t.byName[name] = sym
	return nil
}

// Rename moves sym's index entry from its current name to newName. The
// caller updates the symbol's own name after a successful call.
func (t *Table) Rename(sym Symbol, newName string) error {
	oldName := sym.SymbolName()
	if cur, ok := t.byName[oldName]; !ok || cur != sym {
		return fmt.Errorf("rename @%s: %w", oldName, ErrNotRegistered)
	}
	if newName == "" {
		return ErrEmptyName
	}
	if newName == oldName {
		return nil
	}
	if _, ok := t.byName[newName]; ok {
		return fmt.Errorf("rename @%s -> @%s: %w", oldName, newName, ErrDuplicate)
	}
	delete(t.byName, oldName)
	t.byName[newName] = sym
	return nil
}

// Remove drops sym from the table. Removing an unregistered symbol is an error.
func (t *Table) Remove(sym Symbol) error {
	name := sym.SymbolName()
	if cur, ok := t.byName[name]; !ok || cur != sym {
		return fmt.Errorf("remove @%s: %w", name, ErrNotRegistered)
	}
	delete(t.byName, name)
	return nil
}

// Len reports the number of occupied names.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}

// Names returns the occupied names in sorted order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
