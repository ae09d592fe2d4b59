package ir

import (
	"errors"
	"fmt"
)

// ErrMalformed is the sentinel behind every structural verification failure.
var ErrMalformed = errors.New("malformed fragment")

// MalformedError describes one structural problem in a definition.
type MalformedError struct {
	Def    string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Def == "" {
		return fmt.Sprintf("malformed fragment: %s", e.Reason)
	}
	return fmt.Sprintf("malformed %s: %s", e.Def, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *MalformedError) Unwrap() error { return ErrMalformed }

func malformed(d *Def, format string, args ...any) error {
	return &MalformedError{Def: d.String(), Reason: fmt.Sprintf(format, args...)}
}

// Verify checks fragment invariants. It returns the joined list of every
// violation found, or nil.
func Verify(f *Fragment) error {
	if f == nil {
		return nil
	}
	var errs []error
	if err := verifySymbols(f); err != nil {
		errs = append(errs, err)
	}
	for _, d := range f.defs {
		if err := verifyDef(f, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// verifySymbols checks that the symbol table and the body agree.
func verifySymbols(f *Fragment) error {
	var errs []error
	if err := f.Symbols.Validate(); err != nil {
		errs = append(errs, &MalformedError{Reason: err.Error()})
	}
	named := 0
	for _, d := range f.defs {
		if d.owner != f {
			errs = append(errs, malformed(d, "listed in %s but owned elsewhere", f.Name))
		}
		if !d.IsSymbol() {
			continue
		}
		named++
		if d.name == "" {
			errs = append(errs, malformed(d, "missing symbol name"))
			continue
		}
		sym, ok := f.Symbols.Lookup(d.name)
		if !ok {
			errs = append(errs, malformed(d, "not registered in the symbol table"))
		} else if sym != d {
			errs = append(errs, malformed(d, "name shared with another definition"))
		}
	}
	if named != f.Symbols.Len() {
		errs = append(errs, &MalformedError{Reason: fmt.Sprintf("symbol table holds %d names for %d named definitions", f.Symbols.Len(), named)})
	}
	return errors.Join(errs...)
}

func verifyDef(f *Fragment, d *Def) error {
	switch d.Kind {
	case DefGlobal:
		return verifyGlobal(d)
	case DefInitializer:
		return verifyBody(f, d, 0)
	case DefFunction:
		var errs []error
		entry := d.EntryBlock()
		if entry == nil {
			return malformed(d, "function has no body")
		}
		if len(entry.Args) != len(d.Signature.Inputs) {
			errs = append(errs, malformed(d, "entry block has %d arguments, signature has %d inputs", len(entry.Args), len(d.Signature.Inputs)))
		}
		for i := range entry.Args {
			if i < len(d.Signature.Inputs) && !entry.Args[i].Type.Equal(d.Signature.Inputs[i]) {
				errs = append(errs, malformed(d, "argument %d has type %s, signature says %s", i, entry.Args[i].Type, d.Signature.Inputs[i]))
			}
		}
		if err := verifyBody(f, d, len(d.Signature.Results)); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	default:
		return malformed(d, "unknown definition kind %d", d.Kind)
	}
}

func verifyGlobal(d *Def) error {
	var errs []error
	if !d.Type.IsValid() {
		errs = append(errs, malformed(d, "global has no resolvable type"))
	}
	if !d.Body.Empty() {
		errs = append(errs, malformed(d, "global carries a body"))
	}
	if d.Initial != nil && d.Type.IsValid() {
		switch d.Initial.Kind {
		case AttrInt, AttrFloat, AttrDense:
			if !d.Initial.Type.Equal(d.Type) {
				errs = append(errs, malformed(d, "initial value type %s does not match %s", d.Initial.Type, d.Type))
			}
		case AttrNone:
			errs = append(errs, malformed(d, "empty initial value"))
		}
	}
	return errors.Join(errs...)
}

func verifyBody(f *Fragment, d *Def, results int) error {
	if d.Body.Empty() {
		return malformed(d, "missing body")
	}
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, malformed(d, format, args...))
	}
	verifyRegion(f, d, &d.Body, make(map[ValueID]bool), results, report)
	return errors.Join(errs...)
}

func verifyRegion(f *Fragment, d *Def, r *Region, visible map[ValueID]bool, results int, report func(string, ...any)) {
	scope := make(map[ValueID]bool, len(visible))
	for id := range visible {
		scope[id] = true
	}
	for bi := range r.Blocks {
		b := &r.Blocks[bi]
		for _, v := range b.Args {
			scope[v.ID] = true
		}
		// Nested regions carry straight-line bodies without terminators.
		if results >= 0 && (len(b.Ops) == 0 || !b.Ops[len(b.Ops)-1].IsTerminator()) {
			report("block %d is not terminated", bi)
		}
		for oi, op := range b.Ops {
			if op.IsTerminator() && (results < 0 || oi != len(b.Ops)-1) {
				report("block %d: %s before the end of the block", bi, op.Name)
			}
			for _, id := range op.Operands {
				if !scope[id] {
					report("block %d: %s uses undefined value %%%d", bi, op.Name, id)
				}
			}
			verifyOp(f, d, op, results, report)
			for ri := range op.Regions {
				verifyRegion(f, d, &op.Regions[ri], scope, -1, report)
			}
			for _, v := range op.Results {
				if scope[v.ID] {
					report("block %d: value %%%d defined twice", bi, v.ID)
				}
				scope[v.ID] = true
			}
		}
	}
}

func verifyOp(f *Fragment, d *Def, op *Op, results int, report func(string, ...any)) {
	for i := range op.Attrs {
		collectSymbols(op.Attrs[i].Value, func(name string) {
			if _, ok := f.Lookup(name); !ok {
				report("%s references unknown symbol @%s", op.Name, name)
			}
		})
	}
	switch op.Name {
	case OpGlobalLoad, OpGlobalStore:
		target, ok := symbolTarget(f, op, AttrNameGlobal)
		if !ok {
			if _, has := op.Attr(AttrNameGlobal); !has {
				report("%s without a %q attribute", op.Name, AttrNameGlobal)
			}
			return
		}
		if target.Kind != DefGlobal {
			report("%s targets %v, not a global", op.Name, target)
			return
		}
		if op.Name == OpGlobalStore && !target.Mutable {
			report("%s to immutable global @%s", op.Name, target.Name())
		}
		if op.Name == OpGlobalLoad && len(op.Results) == 1 && !op.Results[0].Type.Equal(target.Type) {
			report("%s of @%s yields %s, global holds %s", op.Name, target.Name(), op.Results[0].Type, target.Type)
		}
	case OpCall:
		target, ok := symbolTarget(f, op, AttrNameCallee)
		if !ok {
			if _, has := op.Attr(AttrNameCallee); !has {
				report("%s without a %q attribute", op.Name, AttrNameCallee)
			}
			return
		}
		if target.Kind != DefFunction {
			report("%s targets %v, not a function", op.Name, target)
			return
		}
		if len(op.Operands) != len(target.Signature.Inputs) || len(op.Results) != len(target.Signature.Results) {
			report("%s @%s arity mismatch: %d/%d operands/results, callee has %s",
				op.Name, target.Name(), len(op.Operands), len(op.Results), target.Signature)
		}
	case OpFuncReturn:
		if d.Kind != DefFunction {
			report("%s inside %s", op.Name, d.Kind)
		} else if results >= 0 && len(op.Operands) != results {
			report("%s returns %d values, signature has %d results", op.Name, len(op.Operands), results)
		}
	case OpReturn:
		if d.Kind != DefInitializer {
			report("%s inside %s", op.Name, d.Kind)
		}
	}
}

func symbolTarget(f *Fragment, op *Op, attr string) (*Def, bool) {
	a, ok := op.Attr(attr)
	if !ok || a.Kind != AttrSymbol {
		return nil, false
	}
	return f.Lookup(a.Str)
}
