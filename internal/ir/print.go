package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpOptions configures fragment dumping.
type DumpOptions struct {
	// SymbolsOnly prints definition headers without bodies.
	SymbolsOnly bool
}

// Dump writes a human-readable representation of a fragment.
func Dump(w io.Writer, f *Fragment, opts DumpOptions) error {
	if w == nil || f == nil {
		return nil
	}
	p := &printer{w: w}
	p.linef(0, "fragment @%s {", f.Name)
	for _, d := range f.defs {
		p.def(d, opts)
	}
	p.linef(0, "}")
	return p.err
}

// DumpString renders a fragment to a string.
func DumpString(f *Fragment, opts DumpOptions) string {
	var sb strings.Builder
	_ = Dump(&sb, f, opts)
	return sb.String()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) linef(indent int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", indent), fmt.Sprintf(format, args...))
}

func (p *printer) def(d *Def, opts DumpOptions) {
	switch d.Kind {
	case DefGlobal:
		flags := ""
		if d.Mutable {
			flags = " mutable"
		}
		line := fmt.Sprintf("util.global %s%s @%s : %s", d.Visibility, flags, d.name, d.Type)
		if d.Initial != nil {
			line += " = " + d.Initial.String()
		}
		p.linef(1, "%s", line)
	case DefInitializer:
		if opts.SymbolsOnly {
			p.linef(1, "util.initializer")
			return
		}
		p.linef(1, "util.initializer {")
		p.region(&d.Body, 2)
		p.linef(1, "}")
	case DefFunction:
		args := ""
		if entry := d.EntryBlock(); entry != nil {
			args = formatArgs(entry.Args)
		}
		header := fmt.Sprintf("func.func %s @%s(%s) -> (%s)", d.Visibility, d.name, args, joinTypes(d.Signature.Results))
		if opts.SymbolsOnly {
			p.linef(1, "%s", header)
			return
		}
		p.linef(1, "%s {", header)
		p.region(&d.Body, 2)
		p.linef(1, "}")
	}
}

func (p *printer) region(r *Region, indent int) {
	for bi := range r.Blocks {
		b := &r.Blocks[bi]
		if len(r.Blocks) > 1 || bi > 0 {
			p.linef(indent-1, "^bb%d(%s):", bi, formatArgs(b.Args))
		}
		for _, op := range b.Ops {
			p.op(op, indent)
		}
	}
}

func (p *printer) op(op *Op, indent int) {
	var sb strings.Builder
	if len(op.Results) > 0 {
		ids := make([]string, len(op.Results))
		for i, v := range op.Results {
			ids[i] = fmt.Sprintf("%%%d", v.ID)
		}
		sb.WriteString(strings.Join(ids, ", "))
		sb.WriteString(" = ")
	}
	sb.WriteString(op.Name)
	if len(op.Operands) > 0 {
		ops := make([]string, len(op.Operands))
		for i, id := range op.Operands {
			ops[i] = fmt.Sprintf("%%%d", id)
		}
		sb.WriteString(" ")
		sb.WriteString(strings.Join(ops, ", "))
	}
	if len(op.Attrs) > 0 {
		attrs := make([]string, len(op.Attrs))
		for i := range op.Attrs {
			attrs[i] = op.Attrs[i].Name + " = " + op.Attrs[i].Value.String()
		}
		sb.WriteString(" {")
		sb.WriteString(strings.Join(attrs, ", "))
		sb.WriteString("}")
	}
	if len(op.Results) > 0 {
		types := make([]Type, len(op.Results))
		for i, v := range op.Results {
			types[i] = v.Type
		}
		sb.WriteString(" : ")
		sb.WriteString(joinTypes(types))
	}
	if len(op.Regions) == 0 {
		p.linef(indent, "%s", sb.String())
		return
	}
	p.linef(indent, "%s (", sb.String())
	for ri := range op.Regions {
		p.linef(indent+1, "{")
		p.region(&op.Regions[ri], indent+2)
		p.linef(indent+1, "}")
	}
	p.linef(indent, ")")
}

func formatArgs(args []Value) string {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = fmt.Sprintf("%%%d: %s", v.ID, v.Type)
	}
	return strings.Join(parts, ", ")
}
