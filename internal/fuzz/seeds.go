package fuzztests

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"ace/internal/builder"
	"ace/internal/ir"
	"ace/internal/irfile"
)

const maxFuzzInput = 64 << 10

// seedFragment builds a small fragment touching every definition kind.
func seedFragment(names ...string) (*ir.Fragment, error) {
	f := ir.NewFragment("seed")
	b := builder.New(f)
	var globals []*ir.Def
	for i, name := range names {
		g, err := b.DefineConstant(name, ir.IntAttr(ir.Int(32), int64(i%3)))
		if err != nil {
			// Duplicate names collapse onto the first definition.
			continue
		}
		globals = append(globals, g)
	}
	state, err := b.DefineGlobal("state", ir.Int(32), true)
	if err != nil {
		return nil, err
	}
	init, err := b.DefineInitializer()
	if err != nil {
		return nil, err
	}
	init.StoreGlobal(state, init.ConstantInt(0, 32))
	if err := init.Return(); err != nil {
		return nil, err
	}
	fb, err := b.DefineFunction("forward", nil, []ir.Type{ir.Int(32)}, true)
	if err != nil {
		return nil, err
	}
	acc := fb.LoadGlobal(state)
	for _, g := range globals {
		fb.StoreGlobal(state, fb.LoadGlobal(g))
	}
	if err := fb.Return(acc); err != nil {
		return nil, err
	}
	return f, nil
}

func addFileSeeds(f *testing.F) {
	for _, names := range [][]string{nil, {"c0"}, {"a", "b", "a$1"}} {
		frag, err := seedFragment(names...)
		if err != nil {
			f.Fatal(err)
		}
		var buf bytes.Buffer
		if err := irfile.Encode(&buf, frag); err != nil {
			f.Fatal(err)
		}
		f.Add(buf.Bytes())
	}
	nilOp := map[string]any{
		"Magic": "ace-fragment", "Schema": 1, "Count": 1,
		"Defs": []any{map[string]any{
			"Kind": uint8(ir.DefInitializer),
			"Body": map[string]any{"Blocks": []any{map[string]any{"Ops": []any{nil}}}},
		}},
	}
	raw, err := msgpack.Marshal(nilOp)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(raw)
	f.Add([]byte{})
	f.Add([]byte{0x80})
}
