package ir

// Op names understood by the verifier and the builder.
const (
	OpConstant     = "arith.constant"
	OpAddI         = "arith.addi"
	OpIndexCast    = "arith.index_cast"
	OpGlobalLoad   = "util.global.load"
	OpGlobalStore  = "util.global.store"
	OpReturn       = "util.return"
	OpCall         = "func.call"
	OpFuncReturn   = "func.return"
	OpTensorDim    = "tensor.dim"
	OpTensorSlice  = "flow.tensor.slice"
	OpTensorUpdate = "flow.tensor.update"
)

// Attribute names with fixed meaning.
const (
	AttrNameValue  = "value"
	AttrNameGlobal = "global"
	AttrNameCallee = "callee"
)

// ValueID identifies an SSA value inside one definition body.
type ValueID int32

// NoValueID marks the absence of a value.
const NoValueID ValueID = -1

// Value is a typed SSA value produced by an op or bound as a block argument.
type Value struct {
	ID   ValueID
	Type Type
}

// NamedAttr is one entry of an op's attribute dictionary.
type NamedAttr struct {
	Name  string
	Value Attr
}

// Op is a single operation. Nested regions make ops trees; references to
// other top-level definitions are AttrSymbol attributes, resolved by name.
type Op struct {
	Name     string
	Attrs    []NamedAttr
	Operands []ValueID
	Results  []Value
	Regions  []Region
}

// Region is an ordered list of blocks.
type Region struct {
	Blocks []Block
}

// Block is a straight-line sequence of ops with typed arguments.
type Block struct {
	Args []Value
	Ops  []*Op
}

// Empty reports whether the region holds no blocks.
func (r *Region) Empty() bool { return r == nil || len(r.Blocks) == 0 }

// Attr returns the attribute named name.
func (op *Op) Attr(name string) (Attr, bool) {
	if op == nil {
		return Attr{}, false
	}
	for i := range op.Attrs {
		if op.Attrs[i].Name == name {
			return op.Attrs[i].Value, true
		}
	}
	return Attr{}, false
}

// SetAttr replaces or appends the attribute named name.
func (op *Op) SetAttr(name string, value Attr) {
	for i := range op.Attrs {
		if op.Attrs[i].Name == name {
			op.Attrs[i].Value = value
			return
		}
	}
	op.Attrs = append(op.Attrs, NamedAttr{Name: name, Value: value})
}

// IsTerminator reports whether op ends a block.
func (op *Op) IsTerminator() bool {
	return op != nil && (op.Name == OpReturn || op.Name == OpFuncReturn)
}

// Result returns the single result of op, or NoValueID.
func (op *Op) Result() ValueID {
	if op == nil || len(op.Results) != 1 {
		return NoValueID
	}
	return op.Results[0].ID
}
