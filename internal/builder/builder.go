// Package builder synthesizes new definitions inside a fragment.
package builder

import (
	"fmt"

	"ace/internal/ir"
)

// Builder creates top-level definitions in one fragment.
type Builder struct {
	frag *ir.Fragment
}

// New returns a builder appending to frag.
func New(frag *ir.Fragment) *Builder {
	return &Builder{frag: frag}
}

// Fragment returns the fragment being built.
func (b *Builder) Fragment() *ir.Fragment { return b.frag }

// IntegerType returns a signless integer type.
func (b *Builder) IntegerType(bits uint16) ir.Type { return ir.Int(bits) }

// IndexType returns the index type.
func (b *Builder) IndexType() ir.Type { return ir.Index() }

// TensorType returns a tensor type.
func (b *Builder) TensorType(elem ir.Type, dims ...int64) ir.Type { return ir.Tensor(elem, dims...) }

// DefineGlobal inserts an uninitialized private global at the start of the fragment.
func (b *Builder) DefineGlobal(name string, t ir.Type, mutable bool) (*ir.Def, error) {
	g := ir.NewGlobal(name, t, mutable, nil)
	if err := b.frag.Prepend(g); err != nil {
		return nil, fmt.Errorf("define global @%s: %w", name, err)
	}
	return g, nil
}

// DefineConstant inserts an immutable private global holding value. The
// global's type is the value's type.
func (b *Builder) DefineConstant(name string, value ir.Attr) (*ir.Def, error) {
	switch value.Kind {
	case ir.AttrInt, ir.AttrFloat, ir.AttrDense:
	default:
		return nil, fmt.Errorf("define constant @%s: %s attribute has no value type", name, value.Kind)
	}
	g := ir.NewGlobal(name, value.Type, false, &value)
	if err := b.frag.Prepend(g); err != nil {
		return nil, fmt.Errorf("define constant @%s: %w", name, err)
	}
	return g, nil
}

// DefineInitializer appends an initializer and returns a builder for its body.
func (b *Builder) DefineInitializer() (*FunctionBuilder, error) {
	d := ir.NewInitializer()
	if err := b.frag.Append(d); err != nil {
		return nil, fmt.Errorf("define initializer: %w", err)
	}
	return newFunctionBuilder(d), nil
}

// DefineFunction appends a function and returns a builder for its body.
// Functions are private unless public is set.
func (b *Builder) DefineFunction(name string, inputs, results []ir.Type, public bool) (*FunctionBuilder, error) {
	vis := ir.Private
	if public {
		vis = ir.Public
	}
	d := ir.NewFunction(name, ir.FuncType{Inputs: inputs, Results: results}, vis)
	if err := b.frag.Append(d); err != nil {
		return nil, fmt.Errorf("define function @%s: %w", name, err)
	}
	return newFunctionBuilder(d), nil
}
