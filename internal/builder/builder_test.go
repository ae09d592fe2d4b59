package builder_test

import (
	"errors"
	"strings"
	"testing"

	"ace/internal/builder"
	"ace/internal/ir"
)

func TestDefineGlobalPrepends(t *testing.T) {
	f := ir.NewFragment("f")
	b := builder.New(f)
	if _, err := b.DefineFunction("fn", nil, nil, true); err != nil {
		t.Fatal(err)
	}
	if _, err := b.DefineGlobal("first", b.IntegerType(32), true); err != nil {
		t.Fatal(err)
	}
	if _, err := b.DefineGlobal("second", b.IndexType(), false); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range f.Defs() {
		names = append(names, d.Name())
	}
	if got := strings.Join(names, ","); got != "second,first,fn" {
		t.Fatalf("order = %s", got)
	}
	if g, _ := f.Lookup("first"); g.Visibility != ir.Private {
		t.Fatalf("globals are private")
	}
}

func TestDuplicateNamesReturnErrors(t *testing.T) {
	f := ir.NewFragment("f")
	b := builder.New(f)
	if _, err := b.DefineGlobal("x", ir.Int(32), true); err != nil {
		t.Fatal(err)
	}
	if _, err := b.DefineConstant("x", ir.IntAttr(ir.Int(32), 1)); err == nil {
		t.Fatalf("duplicate constant accepted")
	}
	if _, err := b.DefineFunction("x", nil, nil, false); err == nil {
		t.Fatalf("duplicate function accepted")
	}
	if _, err := b.DefineConstant("y", ir.StringAttr("nope")); err == nil {
		t.Fatalf("string constant accepted")
	}
}

func TestFunctionBuilderOps(t *testing.T) {
	f := ir.NewFragment("f")
	b := builder.New(f)
	dynamic := b.TensorType(ir.Float(32), ir.DynamicDim)
	state, err := b.DefineGlobal("state", dynamic, true)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := b.DefineFunction("advance", []ir.Type{ir.Int(32), dynamic}, []ir.Type{dynamic}, true)
	if err != nil {
		t.Fatal(err)
	}
	args := fb.Arguments()
	offset := fb.CastToIndex(fb.AddIImm(args[0], 1))
	zero := fb.ConstantIndex(0)
	size := fb.TensorDim(args[1], zero)
	current := fb.LoadGlobal(state)
	slice := fb.TensorSlice(current, []ir.ValueID{offset}, []ir.ValueID{size}, []ir.ValueID{size}, dynamic)
	updated := fb.TensorUpdate(current, slice, []ir.ValueID{zero})
	fb.StoreGlobal(state, updated)
	if err := fb.Return(updated); err != nil {
		t.Fatalf("return: %v", err)
	}
	if got, ok := fb.TypeOf(offset); !ok || got.Kind != ir.TypeIndex {
		t.Fatalf("offset type = %v", got)
	}
	if err := ir.Verify(f); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := fb.Return(updated); !errors.Is(err, builder.ErrAlreadyReturned) {
		t.Fatalf("second return: %v", err)
	}
}

func TestCallsBetweenFunctions(t *testing.T) {
	f := ir.NewFragment("f")
	b := builder.New(f)
	callee, _ := b.DefineFunction("callee", []ir.Type{ir.Int(32)}, []ir.Type{ir.Int(32)}, false)
	if err := callee.Return(callee.Arguments()[0]); err != nil {
		t.Fatal(err)
	}
	fb, _ := b.DefineFunction("caller", nil, []ir.Type{ir.Int(32)}, true)
	res := fb.Call(callee.Def(), fb.ConstantInt(3, 32))
	if err := fb.Return(res...); err != nil {
		t.Fatal(err)
	}
	if err := ir.Verify(f); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestStickyErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *builder.Builder, fb *builder.FunctionBuilder)
		want  string
	}{
		{
			name: "store to constant",
			build: func(b *builder.Builder, fb *builder.FunctionBuilder) {
				c, _ := b.DefineConstant("c", ir.IntAttr(ir.Int(32), 1))
				fb.StoreGlobal(c, fb.ConstantInt(2, 32))
			},
			want: "immutable",
		},
		{
			name: "call arity",
			build: func(b *builder.Builder, fb *builder.FunctionBuilder) {
				fb.Call(fb.Def())
			},
			want: "operands",
		},
		{
			name: "unknown value",
			build: func(b *builder.Builder, fb *builder.FunctionBuilder) {
				fb.CastToIndex(ir.ValueID(99))
			},
			want: "unknown value",
		},
		{
			name: "slice of scalar",
			build: func(b *builder.Builder, fb *builder.FunctionBuilder) {
				v := fb.ConstantIndex(0)
				fb.TensorSlice(v, nil, nil, nil, ir.Tensor(ir.Float(32), 1))
			},
			want: "not a tensor",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ir.NewFragment("f")
			b := builder.New(f)
			fb, err := b.DefineFunction("fn", []ir.Type{ir.Int(32)}, nil, false)
			if err != nil {
				t.Fatal(err)
			}
			tt.build(b, fb)
			if fb.Err() == nil {
				t.Fatalf("expected a builder error")
			}
			if got := fb.ConstantInt(1, 32); got != ir.NoValueID {
				t.Fatalf("builder kept emitting after an error")
			}
			err = fb.Return()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Return() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestInitializerReturnsNothing(t *testing.T) {
	f := ir.NewFragment("f")
	b := builder.New(f)
	init, err := b.DefineInitializer()
	if err != nil {
		t.Fatal(err)
	}
	if err := init.Return(init.ConstantInt(1, 32)); err == nil {
		t.Fatalf("initializer returned a value")
	}
	if err := init.Return(); err != nil {
		t.Fatal(err)
	}
	if f.Symbols.Len() != 0 {
		t.Fatalf("initializers must not take a name")
	}
}
