package irfile_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"ace/internal/builder"
	"ace/internal/ir"
	"ace/internal/irfile"
)

func sample(t *testing.T) *ir.Fragment {
	t.Helper()
	f := ir.NewFragment("sample")
	b := builder.New(f)
	c, _ := b.DefineConstant("c0", ir.FloatAttr(ir.Float(32), 1.5))
	state, _ := b.DefineGlobal("state", ir.Float(32), true)
	init, _ := b.DefineInitializer()
	init.StoreGlobal(state, init.LoadGlobal(c))
	if err := init.Return(); err != nil {
		t.Fatal(err)
	}
	fb, _ := b.DefineFunction("forward", []ir.Type{ir.Int(32)}, []ir.Type{ir.Index()}, true)
	if err := fb.Return(fb.CastToIndex(fb.AddIImm(fb.Arguments()[0], 2))); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestWriteRead(t *testing.T) {
	f := sample(t)
	path := filepath.Join(t.TempDir(), "nested", "sample"+irfile.Ext)
	if err := irfile.Write(path, f); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := irfile.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want, have := ir.DumpString(f, ir.DumpOptions{}), ir.DumpString(got, ir.DumpOptions{}); want != have {
		t.Fatalf("round trip changed the fragment:\n%s\nwant:\n%s", have, want)
	}
	if err := ir.Verify(got); err != nil {
		t.Fatalf("decoded fragment does not verify: %v", err)
	}
	fn, _ := got.Lookup("forward")
	if fn.ValueCount() != 4 {
		t.Fatalf("value allocator not restored: %d", fn.ValueCount())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestDecodeRejectsSchemaMismatch(t *testing.T) {
	var buf bytes.Buffer
	bad := map[string]any{"Magic": "ace-fragment", "Schema": 99, "Name": "x"}
	if err := msgpack.NewEncoder(&buf).Encode(bad); err != nil {
		t.Fatal(err)
	}
	if _, err := irfile.Decode(&buf); !errors.Is(err, irfile.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestDecodeRejectsForeignData(t *testing.T) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(map[string]any{"Magic": "other"}); err != nil {
		t.Fatal(err)
	}
	if _, err := irfile.Decode(&buf); err == nil {
		t.Fatalf("foreign payload accepted")
	}
	if _, err := irfile.Decode(bytes.NewReader([]byte{0xc1})); err == nil {
		t.Fatalf("garbage accepted")
	}
}

func TestDecodeRejectsDuplicateNames(t *testing.T) {
	f := ir.NewFragment("dup")
	b := builder.New(f)
	b.DefineGlobal("a", ir.Int(32), true)
	b.DefineGlobal("b", ir.Int(32), true)
	var buf bytes.Buffer
	if err := irfile.Encode(&buf, f); err != nil {
		t.Fatal(err)
	}
	raw := bytes.Replace(buf.Bytes(), []byte("\xa1b"), []byte("\xa1a"), 1)
	if _, err := irfile.Decode(bytes.NewReader(raw)); err == nil {
		t.Fatalf("duplicate names accepted")
	}
}

func TestDecodeRejectsNilOps(t *testing.T) {
	nested := map[string]any{"Name": "util.region", "Regions": []any{
		map[string]any{"Blocks": []any{map[string]any{"Ops": []any{nil}}}},
	}}
	tests := []struct {
		name string
		ops  []any
	}{
		{"top level", []any{nil}},
		{"nested region", []any{nested}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			bad := map[string]any{
				"Magic": "ace-fragment", "Schema": 1, "Count": 1,
				"Defs": []any{map[string]any{
					"Kind": uint8(ir.DefInitializer),
					"Body": map[string]any{"Blocks": []any{map[string]any{"Ops": tt.ops}}},
				}},
			}
			if err := msgpack.NewEncoder(&buf).Encode(bad); err != nil {
				t.Fatal(err)
			}
			_, err := irfile.Decode(&buf)
			if !errors.Is(err, ir.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := irfile.Read(filepath.Join(t.TempDir(), "missing.irf")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
