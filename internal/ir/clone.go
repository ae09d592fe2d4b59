package ir

import "slices"

// Clone returns a deep copy of f. The copy shares nothing with f, so it can
// serve as a disposable working copy for a merge that may fail half-way.
func Clone(f *Fragment) *Fragment {
	if f == nil {
		return nil
	}
	out := NewFragment(f.Name)
	for _, d := range f.defs {
		// Names are unique in f, so attaching cannot fail.
		if err := out.Append(CloneDef(d)); err != nil {
			panic(err)
		}
	}
	return out
}

// CloneDef returns an unowned deep copy of d.
func CloneDef(d *Def) *Def {
	c := &Def{
		Kind:       d.Kind,
		Visibility: d.Visibility,
		Type:       cloneType(d.Type),
		Mutable:    d.Mutable,
		Signature: FuncType{
			Inputs:  cloneTypes(d.Signature.Inputs),
			Results: cloneTypes(d.Signature.Results),
		},
		Body:      cloneRegion(d.Body),
		name:      d.name,
		nextValue: d.nextValue,
	}
	if d.Initial != nil {
		a := cloneAttr(*d.Initial)
		c.Initial = &a
	}
	return c
}

func cloneType(t Type) Type {
	out := t
	out.Shape = slices.Clone(t.Shape)
	if t.Elem != nil {
		e := cloneType(*t.Elem)
		out.Elem = &e
	}
	return out
}

func cloneTypes(ts []Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = cloneType(t)
	}
	return out
}

func cloneValues(vs []Value) []Value {
	if vs == nil {
		return nil
	}
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Value{ID: v.ID, Type: cloneType(v.Type)}
	}
	return out
}

func cloneAttr(a Attr) Attr {
	out := a
	out.Type = cloneType(a.Type)
	out.Bytes = slices.Clone(a.Bytes)
	if a.Elems != nil {
		out.Elems = make([]Attr, len(a.Elems))
		for i := range a.Elems {
			out.Elems[i] = cloneAttr(a.Elems[i])
		}
	}
	return out
}

func cloneRegion(r Region) Region {
	if r.Blocks == nil {
		return Region{}
	}
	out := Region{Blocks: make([]Block, len(r.Blocks))}
	for i := range r.Blocks {
		b := &r.Blocks[i]
		nb := Block{Args: cloneValues(b.Args)}
		if b.Ops != nil {
			nb.Ops = make([]*Op, len(b.Ops))
			for j, op := range b.Ops {
				nb.Ops[j] = cloneOp(op)
			}
		}
		out.Blocks[i] = nb
	}
	return out
}

func cloneOp(op *Op) *Op {
	c := &Op{
		Name:     op.Name,
		Operands: slices.Clone(op.Operands),
		Results:  cloneValues(op.Results),
	}
	if op.Attrs != nil {
		c.Attrs = make([]NamedAttr, len(op.Attrs))
		for i := range op.Attrs {
			c.Attrs[i] = NamedAttr{Name: op.Attrs[i].Name, Value: cloneAttr(op.Attrs[i].Value)}
		}
	}
	if op.Regions != nil {
		c.Regions = make([]Region, len(op.Regions))
		for i := range op.Regions {
			c.Regions[i] = cloneRegion(op.Regions[i])
		}
	}
	return c
}
