package builder

import (
	"errors"
	"fmt"

	"ace/internal/ir"
)

// FunctionBuilder appends ops to the entry block of a function or
// initializer. The first failure sticks: later calls are no-ops returning
// ir.NoValueID, and Return reports the error.
type FunctionBuilder struct {
	def   *ir.Def
	types map[ir.ValueID]ir.Type
	err   error
}

func newFunctionBuilder(d *ir.Def) *FunctionBuilder {
	fb := &FunctionBuilder{def: d, types: make(map[ir.ValueID]ir.Type)}
	for _, v := range d.EntryBlock().Args {
		fb.types[v.ID] = v.Type
	}
	return fb
}

// Def returns the definition being built.
func (fb *FunctionBuilder) Def() *ir.Def { return fb.def }

// Err returns the first error recorded by the builder.
func (fb *FunctionBuilder) Err() error { return fb.err }

// Arguments returns the entry block arguments.
func (fb *FunctionBuilder) Arguments() []ir.ValueID {
	args := fb.def.EntryBlock().Args
	ids := make([]ir.ValueID, len(args))
	for i, v := range args {
		ids[i] = v.ID
	}
	return ids
}

// TypeOf returns the type of a value created by this builder.
func (fb *FunctionBuilder) TypeOf(id ir.ValueID) (ir.Type, bool) {
	t, ok := fb.types[id]
	return t, ok
}

func (fb *FunctionBuilder) fail(format string, args ...any) {
	if fb.err == nil {
		fb.err = fmt.Errorf("%v: %s", fb.def, fmt.Sprintf(format, args...))
	}
}

func (fb *FunctionBuilder) operandTypes(ids ...ir.ValueID) ([]ir.Type, bool) {
	out := make([]ir.Type, len(ids))
	for i, id := range ids {
		t, ok := fb.types[id]
		if !ok {
			fb.fail("unknown value %%%d", id)
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

func (fb *FunctionBuilder) emit(name string, attrs []ir.NamedAttr, operands []ir.ValueID, results ...ir.Type) []ir.ValueID {
	op := &ir.Op{Name: name, Attrs: attrs, Operands: append([]ir.ValueID(nil), operands...)}
	ids := make([]ir.ValueID, len(results))
	for i, t := range results {
		v := fb.def.NewValue(t)
		op.Results = append(op.Results, v)
		fb.types[v.ID] = t
		ids[i] = v.ID
	}
	entry := fb.def.EntryBlock()
	entry.Ops = append(entry.Ops, op)
	return ids
}

func (fb *FunctionBuilder) emit1(name string, attrs []ir.NamedAttr, operands []ir.ValueID, result ir.Type) ir.ValueID {
	return fb.emit(name, attrs, operands, result)[0]
}

// Constant materializes an integer, float or dense attribute.
func (fb *FunctionBuilder) Constant(value ir.Attr) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	switch value.Kind {
	case ir.AttrInt, ir.AttrFloat, ir.AttrDense:
	default:
		fb.fail("cannot materialize %s attribute as a constant", value.Kind)
		return ir.NoValueID
	}
	return fb.emit1(ir.OpConstant, []ir.NamedAttr{{Name: ir.AttrNameValue, Value: value}}, nil, value.Type)
}

// ConstantInt materializes a signless integer constant.
func (fb *FunctionBuilder) ConstantInt(value int64, bits uint16) ir.ValueID {
	return fb.Constant(ir.IntAttr(ir.Int(bits), value))
}

// ConstantIndex materializes an index constant.
func (fb *FunctionBuilder) ConstantIndex(value int64) ir.ValueID {
	return fb.Constant(ir.IntAttr(ir.Index(), value))
}

// AddIImm adds an immediate to an integer or index value.
func (fb *FunctionBuilder) AddIImm(input ir.ValueID, imm int64) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	ts, ok := fb.operandTypes(input)
	if !ok {
		return ir.NoValueID
	}
	t := ts[0]
	if t.Kind != ir.TypeInt && t.Kind != ir.TypeIndex {
		fb.fail("addi on %s", t)
		return ir.NoValueID
	}
	immValue := fb.Constant(ir.IntAttr(t, imm))
	return fb.emit1(ir.OpAddI, nil, []ir.ValueID{input, immValue}, t)
}

// CastToIndex converts an integer value to index.
func (fb *FunctionBuilder) CastToIndex(input ir.ValueID) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	if _, ok := fb.operandTypes(input); !ok {
		return ir.NoValueID
	}
	return fb.emit1(ir.OpIndexCast, nil, []ir.ValueID{input}, ir.Index())
}

// LoadGlobal reads a global.
func (fb *FunctionBuilder) LoadGlobal(g *ir.Def) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	if g == nil || g.Kind != ir.DefGlobal {
		fb.fail("load from %v, not a global", g)
		return ir.NoValueID
	}
	attrs := []ir.NamedAttr{{Name: ir.AttrNameGlobal, Value: ir.SymbolRef(g.Name())}}
	return fb.emit1(ir.OpGlobalLoad, attrs, nil, g.Type)
}

// StoreGlobal writes update into a mutable global.
func (fb *FunctionBuilder) StoreGlobal(g *ir.Def, update ir.ValueID) {
	if fb.err != nil {
		return
	}
	if g == nil || g.Kind != ir.DefGlobal {
		fb.fail("store to %v, not a global", g)
		return
	}
	if !g.Mutable {
		fb.fail("store to immutable global @%s", g.Name())
		return
	}
	if _, ok := fb.operandTypes(update); !ok {
		return
	}
	attrs := []ir.NamedAttr{{Name: ir.AttrNameGlobal, Value: ir.SymbolRef(g.Name())}}
	fb.emit(ir.OpGlobalStore, attrs, []ir.ValueID{update})
}

// Call invokes callee and returns its results.
func (fb *FunctionBuilder) Call(callee *ir.Def, operands ...ir.ValueID) []ir.ValueID {
	if fb.err != nil {
		return nil
	}
	if callee == nil || callee.Kind != ir.DefFunction {
		fb.fail("call to %v, not a function", callee)
		return nil
	}
	if len(operands) != len(callee.Signature.Inputs) {
		fb.fail("call @%s with %d operands, expected %d", callee.Name(), len(operands), len(callee.Signature.Inputs))
		return nil
	}
	if _, ok := fb.operandTypes(operands...); !ok {
		return nil
	}
	attrs := []ir.NamedAttr{{Name: ir.AttrNameCallee, Value: ir.SymbolRef(callee.Name())}}
	return fb.emit(ir.OpCall, attrs, operands, callee.Signature.Results...)
}

// TensorDim returns the size of dimension dim of a tensor value.
func (fb *FunctionBuilder) TensorDim(input, dim ir.ValueID) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	ts, ok := fb.operandTypes(input, dim)
	if !ok {
		return ir.NoValueID
	}
	if ts[0].Kind != ir.TypeTensor {
		fb.fail("tensor.dim on %s", ts[0])
		return ir.NoValueID
	}
	return fb.emit1(ir.OpTensorDim, nil, []ir.ValueID{input, dim}, ir.Index())
}

// TensorSlice extracts a slice of source starting at offsets with the given
// lengths. resultDims supplies the dynamic dimensions of result.
func (fb *FunctionBuilder) TensorSlice(source ir.ValueID, offsets, lengths, resultDims []ir.ValueID, result ir.Type) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	if err := fb.checkSegments(source, offsets, lengths); err != nil {
		fb.fail("tensor slice: %v", err)
		return ir.NoValueID
	}
	if result.Kind != ir.TypeTensor || len(resultDims) != result.DynamicDims() {
		fb.fail("tensor slice: result %s needs %d dynamic dims, got %d", result, result.DynamicDims(), len(resultDims))
		return ir.NoValueID
	}
	operands := []ir.ValueID{source}
	operands = append(operands, offsets...)
	operands = append(operands, lengths...)
	operands = append(operands, resultDims...)
	attrs := []ir.NamedAttr{segmentsAttr(1, len(offsets), len(lengths), len(resultDims))}
	return fb.emit1(ir.OpTensorSlice, attrs, operands, result)
}

// TensorUpdate writes update into target at offsets and returns the new tensor.
func (fb *FunctionBuilder) TensorUpdate(target, update ir.ValueID, offsets []ir.ValueID) ir.ValueID {
	if fb.err != nil {
		return ir.NoValueID
	}
	if err := fb.checkSegments(target, offsets, nil); err != nil {
		fb.fail("tensor update: %v", err)
		return ir.NoValueID
	}
	ts, ok := fb.operandTypes(update)
	if !ok {
		return ir.NoValueID
	}
	if ts[0].Kind != ir.TypeTensor {
		fb.fail("tensor update with %s", ts[0])
		return ir.NoValueID
	}
	operands := []ir.ValueID{target}
	operands = append(operands, offsets...)
	operands = append(operands, update)
	attrs := []ir.NamedAttr{segmentsAttr(1, len(offsets), 1)}
	return fb.emit1(ir.OpTensorUpdate, attrs, operands, fb.types[target])
}

func (fb *FunctionBuilder) checkSegments(tensor ir.ValueID, offsets, lengths []ir.ValueID) error {
	ts, ok := fb.operandTypes(tensor)
	if !ok {
		return fb.err
	}
	t := ts[0]
	if t.Kind != ir.TypeTensor {
		return fmt.Errorf("operand is %s, not a tensor", t)
	}
	if len(offsets) != len(t.Shape) {
		return fmt.Errorf("%d offsets for rank %d", len(offsets), len(t.Shape))
	}
	if lengths != nil && len(lengths) != len(t.Shape) {
		return fmt.Errorf("%d lengths for rank %d", len(lengths), len(t.Shape))
	}
	all := append(append([]ir.ValueID(nil), offsets...), lengths...)
	idx, ok := fb.operandTypes(all...)
	if !ok {
		return fb.err
	}
	for i, it := range idx {
		if it.Kind != ir.TypeIndex {
			return fmt.Errorf("index operand %d is %s", i, it)
		}
	}
	return nil
}

func segmentsAttr(sizes ...int) ir.NamedAttr {
	elems := make([]ir.Attr, len(sizes))
	for i, n := range sizes {
		elems[i] = ir.IntAttr(ir.Int(32), int64(n))
	}
	return ir.NamedAttr{Name: "operand_segment_sizes", Value: ir.ArrayAttr(elems...)}
}

// ErrAlreadyReturned reports a second terminator on one body.
var ErrAlreadyReturned = errors.New("body already terminated")

// Return terminates the body and reports the first error seen while building.
func (fb *FunctionBuilder) Return(values ...ir.ValueID) error {
	if fb.err != nil {
		return fb.err
	}
	entry := fb.def.EntryBlock()
	if n := len(entry.Ops); n > 0 && entry.Ops[n-1].IsTerminator() {
		return fmt.Errorf("%v: %w", fb.def, ErrAlreadyReturned)
	}
	if _, ok := fb.operandTypes(values...); !ok {
		return fb.err
	}
	if fb.def.Kind == ir.DefInitializer {
		if len(values) != 0 {
			return fmt.Errorf("%v: initializers return no values", fb.def)
		}
		fb.emit(ir.OpReturn, nil, nil)
		return nil
	}
	if want := len(fb.def.Signature.Results); len(values) != want {
		return fmt.Errorf("%v: returning %d values, signature has %d results", fb.def, len(values), want)
	}
	fb.emit(ir.OpFuncReturn, nil, values)
	return nil
}
