package symbols

import (
	"errors"
	"slices"
	"testing"
)

type namedSym struct{ name string }

func (s *namedSym) SymbolName() string { return s.name }

func TestTableInsertAndLookup(t *testing.T) {
	table := NewTable(Hints{Symbols: 4})
	a := &namedSym{name: "a"}
	if err := table.Insert(a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !table.Exists("a") {
		t.Fatalf("expected @a to exist")
	}
	if table.Exists("b") {
		t.Fatalf("did not expect @b to exist")
	}
	got, ok := table.Lookup("a")
	if !ok || got != a {
		t.Fatalf("lookup returned %v, %v", got, ok)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTableInsertDuplicate(t *testing.T) {
	table := NewTable(Hints{})
	if err := table.Insert(&namedSym{name: "x"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := table.Insert(&namedSym{name: "x"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", table.Len())
	}
	if err := table.Insert(&namedSym{}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestTableRename(t *testing.T) {
	table := NewTable(Hints{})
	a := &namedSym{name: "a"}
	b := &namedSym{name: "b"}
	for _, s := range []*namedSym{a, b} {
		if err := table.Insert(s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := table.Rename(a, "b"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate renaming onto @b, got %v", err)
	}
	if err := table.Rename(a, "c"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	a.name = "c"
	if table.Exists("a") || !table.Exists("c") {
		t.Fatalf("rename did not move the index entry: %v", table.Names())
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	stranger := &namedSym{name: "c"}
	if err := table.Rename(stranger, "d"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestTableRemoveAndNames(t *testing.T) {
	table := NewTable(Hints{})
	syms := []*namedSym{{name: "z"}, {name: "m"}, {name: "a"}}
	for _, s := range syms {
		if err := table.Insert(s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if want := []string{"a", "m", "z"}; !slices.Equal(table.Names(), want) {
		t.Fatalf("names = %v, want %v", table.Names(), want)
	}
	if err := table.Remove(syms[1]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := table.Remove(syms[1]); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered on second remove, got %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}
}

func TestValidateDetectsStaleName(t *testing.T) {
	table := NewTable(Hints{})
	s := &namedSym{name: "old"}
	if err := table.Insert(s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.name = "new"
	if err := table.Validate(); err == nil {
		t.Fatalf("expected validate to flag the stale entry")
	}
}
