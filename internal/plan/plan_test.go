package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ace/internal/builder"
	"ace/internal/ir"
	"ace/internal/irfile"
	"ace/internal/plan"
	"ace/internal/workspace"
)

const tomlPlan = `
[output]
name = "combined"
path = "out/merged.irf"

[[inputs]]
ident = "first"
path  = "a.irf"
normalize = true
[inputs.renames]
forward = "initialize"

[[inputs]]
path = "b.irf"
[inputs.renames]
forward = "step"
`

const yamlPlan = `
output:
  path: out/merged.irf
inputs:
  - ident: first
    path: a.irf
    normalize: true
    renames:
      forward: initialize
  - path: b.irf
    renames:
      forward: step
`

func writePlan(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file       string
		body       string
		wantOutput string
	}{
		{"plan.toml", tomlPlan, "combined"},
		{"plan.yaml", yamlPlan, workspace.DefaultOutput},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p, err := plan.Load(writePlan(t, dir, tt.file, tt.body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if p.Output.Name != tt.wantOutput {
				t.Errorf("output name = %q", p.Output.Name)
			}
			if p.Output.Path != filepath.Join(dir, "out", "merged.irf") {
				t.Errorf("output path not resolved: %s", p.Output.Path)
			}
			if len(p.Inputs) != 2 {
				t.Fatalf("inputs = %+v", p.Inputs)
			}
			first := p.Inputs[0]
			if first.Ident != "first" || !first.Normalize || first.Renames["forward"] != "initialize" {
				t.Errorf("first input = %+v", first)
			}
			if p.Inputs[1].Path != filepath.Join(dir, "b.irf") || p.Inputs[1].Normalize {
				t.Errorf("second input = %+v", p.Inputs[1])
			}
		})
	}
}

func TestLoadRejectsInvalidPlans(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"missing output", "a.toml", "[[inputs]]\npath = \"a.irf\"\n", "missing [output]"},
		{"missing output path", "b.toml", "[output]\nname = \"x\"\n[[inputs]]\npath = \"a.irf\"\n", "missing [output].path"},
		{"no inputs", "c.toml", "[output]\npath = \"o.irf\"\n", "missing [[inputs]]"},
		{"unknown key", "d.toml", "[output]\npath = \"o.irf\"\ncolour = 1\n[[inputs]]\npath = \"a.irf\"\n", "unknown key"},
		{"input without path", "e.yaml", "output: {path: o.irf}\ninputs:\n  - ident: x\n", "missing path"},
		{"empty rename", "f.yaml", "output: {path: o.irf}\ninputs:\n  - path: a.irf\n    renames: {forward: \"\"}\n", "empty side"},
		{"unknown yaml field", "g.yaml", "output: {path: o.irf}\nextra: 1\ninputs:\n  - path: a.irf\n", "field extra not found"},
		{"empty yaml", "h.yml", "", "empty plan"},
		{"bad extension", "plan.json", "{}", "must be a .toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan.Load(writePlan(t, dir, tt.file, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func writeInput(t *testing.T, path string, value int64) {
	t.Helper()
	f := ir.NewFragment(filepath.Base(path))
	b := builder.New(f)
	c, err := b.DefineConstant("k", ir.IntAttr(ir.Int(32), value))
	if err != nil {
		t.Fatal(err)
	}
	fb, err := b.DefineFunction("forward", nil, []ir.Type{ir.Int(32)}, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := fb.Return(fb.LoadGlobal(c)); err != nil {
		t.Fatal(err)
	}
	if err := irfile.Write(path, f); err != nil {
		t.Fatal(err)
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, filepath.Join(dir, "a.irf"), 1)
	writeInput(t, filepath.Join(dir, "b.irf"), 1)
	p, err := plan.Load(writePlan(t, dir, "plan.toml", tomlPlan))
	if err != nil {
		t.Fatal(err)
	}

	report, err := plan.Execute(context.Background(), workspace.New(), p)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(report.Results) != 2 || len(report.Results[1].Aliases) != 1 {
		t.Fatalf("results = %+v", report.Results)
	}
	merged, err := irfile.Read(p.Output.Path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(merged.Symbols.Names(), ","); got != "initialize,k,step" {
		t.Fatalf("merged symbols = %s", got)
	}
	step, _ := merged.Lookup("step")
	if uses := ir.SymbolUses(step); len(uses) != 1 || uses[0].Name != "k" {
		t.Fatalf("step uses = %+v", uses)
	}
}

func TestExecuteStopsOnConflict(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, filepath.Join(dir, "a.irf"), 1)
	writeInput(t, filepath.Join(dir, "b.irf"), 2)
	body := strings.Replace(tomlPlan, `forward = "step"`, `forward = "initialize"`, 1)
	p, err := plan.Load(writePlan(t, dir, "plan.toml", body))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Execute(context.Background(), workspace.New(), p); err == nil {
		t.Fatalf("conflicting renames accepted")
	}
	if _, err := os.Stat(p.Output.Path); !os.IsNotExist(err) {
		t.Fatalf("output written despite the failure: %v", err)
	}
}
