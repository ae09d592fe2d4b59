package symbols

import "errors"

// Symbol is anything that can occupy a name in a Table.
// The name reported by SymbolName must stay stable while the symbol is
// registered; renames go through Table.Rename.
type Symbol interface {
	SymbolName() string
}

var (
	// ErrDuplicate reports an insert or rename onto an occupied name.
	ErrDuplicate = errors.New("symbol already exists")
	// ErrNotRegistered reports an operation on a symbol the table does not hold.
	ErrNotRegistered = errors.New("symbol not registered")
	// ErrEmptyName reports an attempt to register an unnamed symbol.
	ErrEmptyName = errors.New("empty symbol name")
)
