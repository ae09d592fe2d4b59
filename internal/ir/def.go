package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// DefKind distinguishes top-level definitions.
type DefKind uint8

const (
	// DefGlobal is a named, typed storage slot.
	DefGlobal DefKind = iota + 1
	// DefInitializer is an anonymous procedure run once at program start.
	DefInitializer
	// DefFunction is a named callable procedure.
	DefFunction
)

func (k DefKind) String() string {
	switch k {
	case DefGlobal:
		return "global"
	case DefInitializer:
		return "initializer"
	case DefFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Visibility controls whether a symbol is part of a fragment's interface.
type Visibility uint8

const (
	// Public symbols are visible to the embedding runtime.
	Public Visibility = iota
	// Private symbols are internal to their fragment.
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Def is a top-level definition. A Def belongs to at most one Fragment; its
// name changes only through Rename so the owner's symbol table stays in step.
type Def struct {
	Kind       DefKind
	Visibility Visibility

	// Global slot.
	Type    Type
	Mutable bool
	Initial *Attr

	// Function signature.
	Signature FuncType

	// Body of initializers and functions.
	Body Region

	name      string
	owner     *Fragment
	nextValue ValueID
}

// NewGlobal creates an unowned global definition. initial may be nil.
func NewGlobal(name string, t Type, mutable bool, initial *Attr) *Def {
	d := &Def{Kind: DefGlobal, Visibility: Private, Type: t, Mutable: mutable, name: name}
	if initial != nil {
		v := *initial
		d.Initial = &v
	}
	return d
}

// NewFunction creates an unowned function with an empty entry block whose
// arguments match the signature inputs.
func NewFunction(name string, sig FuncType, vis Visibility) *Def {
	d := &Def{Kind: DefFunction, Visibility: vis, Signature: sig, name: name}
	entry := Block{Args: make([]Value, len(sig.Inputs))}
	for i, t := range sig.Inputs {
		entry.Args[i] = d.NewValue(t)
	}
	d.Body.Blocks = []Block{entry}
	return d
}

// NewInitializer creates an unowned initializer with an empty entry block.
func NewInitializer() *Def {
	return &Def{Kind: DefInitializer, Visibility: Private, Body: Region{Blocks: []Block{{}}}}
}

// Name returns the current symbol name; initializers have none.
func (d *Def) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// SymbolName implements symbols.Symbol.
func (d *Def) SymbolName() string { return d.Name() }

// Owner returns the fragment holding d, or nil once detached.
func (d *Def) Owner() *Fragment {
	if d == nil {
		return nil
	}
	return d.owner
}

// IsSymbol reports whether d occupies a name in its fragment.
func (d *Def) IsSymbol() bool { return d != nil && d.Kind != DefInitializer }

// IsImmutableInitialized reports whether d is a global that can never change
// after program start, so two such globals with equal initial values are
// interchangeable.
func (d *Def) IsImmutableInitialized() bool {
	return d != nil && d.Kind == DefGlobal && !d.Mutable && d.Initial != nil
}

// Rename changes d's name, updating the owner's symbol table when attached.
func (d *Def) Rename(name string) error {
	if !d.IsSymbol() {
		return fmt.Errorf("cannot rename %s definition", d.Kind)
	}
	if name == d.name {
		return nil
	}
	if d.owner != nil {
		if err := d.owner.Symbols.Rename(d, name); err != nil {
			return err
		}
	}
	d.name = name
	return nil
}

// NewValue allocates a fresh SSA value in d's body.
func (d *Def) NewValue(t Type) Value {
	v := Value{ID: d.nextValue, Type: t}
	d.nextValue++
	return v
}

// EntryBlock returns the first block of the body, or nil.
func (d *Def) EntryBlock() *Block {
	if d == nil || len(d.Body.Blocks) == 0 {
		return nil
	}
	return &d.Body.Blocks[0]
}

// SyncValues resets the value allocator above every id used in the body.
// Call it after constructing a body by hand.
func (d *Def) SyncValues() {
	maxID := NoValueID
	WalkValues(&d.Body, func(v Value) {
		if v.ID > maxID {
			maxID = v.ID
		}
	})
	d.nextValue = maxID + 1
}

// ValueCount reports how many value ids have been allocated.
func (d *Def) ValueCount() int {
	n, err := safecast.Conv[int](d.nextValue)
	if err != nil {
		return 0
	}
	return n
}

func (d *Def) String() string {
	if d == nil {
		return "<nil>"
	}
	if d.Kind == DefInitializer {
		return "initializer"
	}
	return fmt.Sprintf("%s @%s", d.Kind, d.name)
}
