package workspace_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ace/internal/builder"
	"ace/internal/ir"
	"ace/internal/irfile"
	"ace/internal/merge"
	"ace/internal/workspace"
)

// writeFragment stores a fragment with one public function @forward that
// returns a dense constant.
func writeFragment(t *testing.T, dir, name string, fill byte) string {
	t.Helper()
	tensor := ir.Tensor(ir.Float(32), 2)
	f := ir.NewFragment(name)
	fb, err := builder.New(f).DefineFunction("forward", nil, []ir.Type{tensor}, true)
	if err != nil {
		t.Fatal(err)
	}
	raw := []byte{fill, fill, fill, fill, fill, fill, fill, fill}
	if err := fb.Return(fb.Constant(ir.DenseAttr(tensor, raw))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+irfile.Ext)
	if err := irfile.Write(path, f); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReserveIdentifiers(t *testing.T) {
	ws := workspace.New()
	var got []string
	for _, ident := range []string{"", "input0", "input0", "model", "model", "model", "x9"} {
		got = append(got, ws.AttachInput(ident, ir.NewFragment("f")).Ident)
	}
	got = append(got, ws.AttachInput("x9", ir.NewFragment("f")).Ident)
	want := "input0,input1,input2,model,model1,model2,x9,x10"
	if strings.Join(got, ",") != want {
		t.Fatalf("idents = %s, want %s", strings.Join(got, ","), want)
	}
	if out := ws.CreateEmpty(""); out.Ident != workspace.DefaultOutput {
		t.Fatalf("output ident = %s", out.Ident)
	}
}

func TestIdentifiersAreNFC(t *testing.T) {
	ws := workspace.New()
	composed := ws.AttachInput("caf\u00e9", ir.NewFragment("f"))
	if _, err := ws.Input("cafe\u0301"); err != nil {
		t.Fatalf("decomposed lookup failed: %v", err)
	}
	if again := ws.AttachInput("cafe\u0301", ir.NewFragment("g")); again.Ident == composed.Ident {
		t.Fatalf("equivalent identifiers were not reserved apart")
	}
}

func TestUnknownModule(t *testing.T) {
	ws := workspace.New()
	ws.CreateEmpty("out")
	if _, err := ws.Output("nope"); !errors.Is(err, workspace.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
	if _, err := ws.Input("out"); !errors.Is(err, workspace.ErrUnknownModule) {
		t.Fatalf("inputs and outputs must not share a namespace: %v", err)
	}
	in := ws.AttachInput("in", ir.NewFragment("in"))
	if _, err := in.MergeTo(context.Background(), "missing", nil); !errors.Is(err, workspace.ErrUnknownModule) {
		t.Fatalf("merge into unknown output: %v", err)
	}
}

func TestOpenNormalizeMergeSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := writeFragment(t, dir, "first", 1)
	second := writeFragment(t, dir, "second", 1)

	ws := workspace.New()
	mods, err := ws.OpenInputs(ctx, []workspace.InputSpec{{Path: first}, {Path: second}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if mods[0].Ident != "input0" || mods[1].Ident != "input1" {
		t.Fatalf("idents = %s, %s", mods[0].Ident, mods[1].Ident)
	}
	if fns := mods[0].PublicFunctions(); len(fns) != 1 || fns[0].Name() != "forward" {
		t.Fatalf("public functions = %v", fns)
	}

	out := ws.CreateEmpty("")
	for _, m := range mods {
		if err := m.Normalize(ctx); err != nil {
			t.Fatalf("normalize: %v", err)
		}
	}
	if _, err := mods[0].MergeTo(ctx, out.Ident, map[string]string{"forward": "first_forward"}); err != nil {
		t.Fatalf("merge first: %v", err)
	}
	res, err := mods[1].MergeTo(ctx, out.Ident, map[string]string{"forward": "second_forward"})
	if err != nil {
		t.Fatalf("merge second: %v", err)
	}
	if len(res.Aliases) != 1 {
		t.Fatalf("equal outlined constants were not shared: %+v", res.Aliases)
	}

	path := filepath.Join(dir, "merged"+irfile.Ext)
	if err := ws.Save(ctx, out.Ident, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	merged, err := irfile.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(merged.Symbols.Names(), ","); got != "__constant_tensor_2xf32,first_forward,second_forward" {
		t.Fatalf("merged symbols = %s", got)
	}
	if ws.Timer().Len() == 0 || !strings.Contains(ws.Timer().Summary(), "merge input1 -> output0") {
		t.Fatalf("steps not timed:\n%s", ws.Timer().Summary())
	}
}

func TestOpenInputsFailsAtomically(t *testing.T) {
	dir := t.TempDir()
	good := writeFragment(t, dir, "good", 1)
	ws := workspace.New()
	_, err := ws.OpenInputs(context.Background(), []workspace.InputSpec{
		{Path: good, Ident: "a"},
		{Path: filepath.Join(dir, "missing.irf"), Ident: "b"},
	})
	if err == nil {
		t.Fatalf("missing file accepted")
	}
	if len(ws.Inputs()) != 0 {
		t.Fatalf("partial open registered inputs: %v", ws.Inputs())
	}
	m, err := ws.OpenInput(context.Background(), good, "a")
	if err != nil {
		t.Fatal(err)
	}
	if m.Ident != "a" {
		t.Fatalf("identifier not released after failure: %s", m.Ident)
	}
}

func TestMergeConflictSurfaces(t *testing.T) {
	ws := workspace.New()
	out := ws.CreateEmpty("out")
	if _, err := builder.New(out.Fragment).DefineGlobal("taken", ir.Int(32), true); err != nil {
		t.Fatal(err)
	}
	src := ir.NewFragment("src")
	if _, err := builder.New(src).DefineGlobal("g", ir.Int(32), true); err != nil {
		t.Fatal(err)
	}
	in := ws.AttachInput("in", src)
	_, err := in.MergeTo(context.Background(), "out", map[string]string{"g": "taken"})
	var conflict *merge.RenameConflictError
	if !errors.As(err, &conflict) || conflict.Requested != "taken" {
		t.Fatalf("expected rename conflict, got %v", err)
	}
	if src.Len() != 1 {
		t.Fatalf("source changed by a failed merge")
	}
}

func TestMergeToKeepsOutputWhenVerifyFails(t *testing.T) {
	ws := workspace.New()
	out := ws.CreateEmpty("out")
	if _, err := builder.New(out.Fragment).DefineGlobal("kept", ir.Int(32), true); err != nil {
		t.Fatal(err)
	}
	src := ir.NewFragment("src")
	b := builder.New(src)
	helper, err := b.DefineFunction("helper", nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := helper.Return(); err != nil {
		t.Fatal(err)
	}
	fb, err := b.DefineFunction("f", nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	fb.Call(helper.Def())
	if err := fb.Return(); err != nil {
		t.Fatal(err)
	}
	// Leave @f calling a symbol that no longer exists.
	if _, err := src.Detach(helper.Def()); err != nil {
		t.Fatal(err)
	}

	in := ws.AttachInput("in", src)
	beforeOut := ir.DumpString(out.Fragment, ir.DumpOptions{})
	beforeIn := ir.DumpString(in.Fragment, ir.DumpOptions{})
	_, err = in.MergeTo(context.Background(), "out", nil)
	if !errors.Is(err, ir.ErrMalformed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	if got := ir.DumpString(out.Fragment, ir.DumpOptions{}); got != beforeOut {
		t.Fatalf("failed merge changed the output:\n%s", got)
	}
	if got := ir.DumpString(in.Fragment, ir.DumpOptions{}); got != beforeIn {
		t.Fatalf("failed merge changed the input:\n%s", got)
	}
	if err := ir.Verify(out.Fragment); err != nil {
		t.Fatalf("output no longer verifies: %v", err)
	}
}
