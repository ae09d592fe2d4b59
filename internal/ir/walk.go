package ir

// WalkOps visits every op in r in pre-order, descending into nested regions.
func WalkOps(r *Region, fn func(*Op)) {
	if r == nil {
		return
	}
	for bi := range r.Blocks {
		for _, op := range r.Blocks[bi].Ops {
			fn(op)
			for ri := range op.Regions {
				WalkOps(&op.Regions[ri], fn)
			}
		}
	}
}

// WalkValues visits every value defined in r: block arguments and op results.
func WalkValues(r *Region, fn func(Value)) {
	if r == nil {
		return
	}
	for bi := range r.Blocks {
		b := &r.Blocks[bi]
		for _, v := range b.Args {
			fn(v)
		}
		for _, op := range b.Ops {
			for _, v := range op.Results {
				fn(v)
			}
			for ri := range op.Regions {
				WalkValues(&op.Regions[ri], fn)
			}
		}
	}
}

// SymbolUse is one reference to a top-level definition.
type SymbolUse struct {
	Op   *Op
	Attr string
	Name string
}

// SymbolUses lists every symbol reference inside d's body, in walk order.
func SymbolUses(d *Def) []SymbolUse {
	if d == nil {
		return nil
	}
	var uses []SymbolUse
	WalkOps(&d.Body, func(op *Op) {
		for i := range op.Attrs {
			collectSymbols(op.Attrs[i].Value, func(name string) {
				uses = append(uses, SymbolUse{Op: op, Attr: op.Attrs[i].Name, Name: name})
			})
		}
	})
	return uses
}

func collectSymbols(a Attr, fn func(string)) {
	switch a.Kind {
	case AttrSymbol:
		fn(a.Str)
	case AttrArray:
		for i := range a.Elems {
			collectSymbols(a.Elems[i], fn)
		}
	}
}

// RemapSymbolUses rewrites every reference inside d's body whose name is a
// key of mapping. Each reference is looked up once, so chains in mapping
// (a->b, b->c) do not compose.
func RemapSymbolUses(d *Def, mapping map[string]string) int {
	if d == nil || len(mapping) == 0 {
		return 0
	}
	n := 0
	WalkOps(&d.Body, func(op *Op) {
		for i := range op.Attrs {
			n += remapAttr(&op.Attrs[i].Value, mapping)
		}
	})
	return n
}

func remapAttr(a *Attr, mapping map[string]string) int {
	switch a.Kind {
	case AttrSymbol:
		if to, ok := mapping[a.Str]; ok && to != a.Str {
			a.Str = to
			return 1
		}
	case AttrArray:
		n := 0
		for i := range a.Elems {
			n += remapAttr(&a.Elems[i], mapping)
		}
		return n
	}
	return 0
}
