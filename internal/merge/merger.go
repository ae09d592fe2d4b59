package merge

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"ace/internal/ir"
	"ace/internal/trace"
)

// Alias records a source global dropped in favour of an existing target global.
type Alias struct {
	From string
	To   string
}

// Result summarizes a completed merge.
type Result struct {
	// Renames holds every non-identity rename, aliases included.
	Renames *RenameMap
	// Imported lists the final names of moved globals and functions in move order.
	Imported []string
	// Aliases lists the dropped source globals in source order.
	Aliases []Alias

	Globals      int
	Initializers int
	Functions    int

	// Rewritten counts symbol references updated by the deferred pass.
	Rewritten int
	// UnusedRenames lists requested renames whose key named nothing in the source.
	UnusedRenames []string
}

type stepKind uint8

const (
	stepImport stepKind = iota
	stepAlias
	stepInitializer
)

// step is one planned movement of a source definition.
type step struct {
	kind  stepKind
	def   *ir.Def
	final string
}

// Merger moves the definitions of one fragment into another.
type Merger struct {
	source      *ir.Fragment
	target      *ir.Fragment
	userRenames map[string]string
	done        bool
}

// New binds a merger to source, target and the caller's rename requests
// (original name -> requested name). The rename table is copied.
func New(source, target *ir.Fragment, userRenames map[string]string) (*Merger, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("merge: nil fragment")
	}
	if source == target {
		return nil, fmt.Errorf("merge %s: %w", source.Name, ErrSelfMerge)
	}
	return &Merger{
		source:      source,
		target:      target,
		userRenames: maps.Clone(userRenames),
	}, nil
}

// Merge performs the merge. On success the source is empty and the target
// holds every moved definition with references rewritten to final names. A
// RenameConflictError leaves both fragments untouched.
func (m *Merger) Merge(ctx context.Context) (*Result, error) {
	if m.done {
		return nil, ErrAlreadyMerged
	}
	m.done = true

	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeMerge, "merge", trace.CurrentSpan(ctx))
	span.WithExtra("source", m.source.Name).WithExtra("target", m.target.Name)

	index, err := BuildAliasIndex(m.target)
	if err != nil {
		span.End("error")
		return nil, err
	}

	steps, err := m.plan(index, tr, span.ID())
	if err != nil {
		span.End("conflict")
		return nil, err
	}

	res := &Result{Renames: NewRenameMap(), UnusedRenames: m.unusedRenames()}
	var pending []*ir.Def
	for _, st := range steps {
		moved, err := m.apply(st, res, tr, span.ID())
		if err != nil {
			span.End("error")
			return nil, err
		}
		if moved != nil && moved.Kind != ir.DefGlobal {
			pending = append(pending, moved)
		}
	}

	trace.Pointf(tr, trace.ScopeStep, "renames", span.ID(), "the following symbol renames will be made: %s", res.Renames)
	mapping := res.Renames.Map()
	for _, d := range pending {
		res.Rewritten += ir.RemapSymbolUses(d, mapping)
	}

	span.WithExtra("imported", strconv.Itoa(len(res.Imported))).
		WithExtra("aliased", strconv.Itoa(len(res.Aliases))).
		WithExtra("renames", strconv.Itoa(res.Renames.Len())).
		End("ok")
	return res, nil
}

// plan decides the fate of every source definition without mutating either
// fragment. Names are resolved in move order against the target's names plus
// those claimed earlier in the plan, which is exactly the table state the
// apply stage will see.
func (m *Merger) plan(index *AliasIndex, tr trace.Tracer, parent uint64) ([]step, error) {
	names := newOverlay(m.target.Symbols)
	var steps []step

	resolve := func(d *ir.Def) error {
		final, err := Resolve(d.Name(), m.userRenames, names)
		if err != nil {
			var conflict *RenameConflictError
			if errors.As(err, &conflict) {
				if by, claimed := names.holder(conflict.Requested); claimed {
					conflict.Holder = by
				}
			}
			return err
		}
		names.claim(final, d.Name())
		steps = append(steps, step{kind: stepImport, def: d, final: final})
		return nil
	}

	for _, g := range m.source.Globals() {
		if g.IsImmutableInitialized() {
			if alias, ok := index.Find(*g.Initial); ok {
				steps = append(steps, step{kind: stepAlias, def: g, final: alias.Name()})
				continue
			}
		}
		if err := resolve(g); err != nil {
			return nil, err
		}
	}
	for _, init := range m.source.Initializers() {
		steps = append(steps, step{kind: stepInitializer, def: init})
	}
	for _, fn := range m.source.Functions() {
		if err := resolve(fn); err != nil {
			return nil, err
		}
	}
	trace.Pointf(tr, trace.ScopeStep, "plan", parent, "%d steps, %d indexed constants", len(steps), index.Len())
	return steps, nil
}

// apply executes one planned step and returns the moved definition, or nil
// for a dropped alias.
func (m *Merger) apply(st step, res *Result, tr trace.Tracer, parent uint64) (*ir.Def, error) {
	d, err := m.source.Detach(st.def)
	if err != nil {
		return nil, err
	}
	switch st.kind {
	case stepAlias:
		from := d.Name()
		trace.Pointf(tr, trace.ScopeStep, "alias", parent, "aliasing imported global @%s -> @%s", from, st.final)
		if _, err := res.Renames.Record(from, st.final); err != nil {
			return nil, err
		}
		res.Aliases = append(res.Aliases, Alias{From: from, To: st.final})
		return nil, nil

	case stepInitializer:
		if err := m.target.Append(d); err != nil {
			return nil, err
		}
		trace.Point(tr, trace.ScopeDef, "import", "initializer", parent)
		res.Initializers++
		return d, nil
	}

	orig := d.Name()
	if st.final != orig {
		if requested := m.userRenames[orig]; requested != "" {
			trace.Pointf(tr, trace.ScopeStep, "rename", parent, "requested rename @%s -> @%s", orig, st.final)
		} else {
			trace.Pointf(tr, trace.ScopeStep, "rename", parent, "implicit rename of conflicting symbol: @%s -> @%s", orig, st.final)
		}
		if err := d.Rename(st.final); err != nil {
			return nil, err
		}
		if _, err := res.Renames.Record(orig, st.final); err != nil {
			return nil, err
		}
	}
	if err := m.target.Append(d); err != nil {
		return nil, err
	}
	trace.Pointf(tr, trace.ScopeDef, "import", parent, "%v", d)
	res.Imported = append(res.Imported, d.Name())
	if d.Kind == ir.DefGlobal {
		res.Globals++
	} else {
		res.Functions++
	}
	return d, nil
}

func (m *Merger) unusedRenames() []string {
	var unused []string
	for _, from := range slices.Sorted(maps.Keys(m.userRenames)) {
		if _, ok := m.source.Lookup(from); !ok {
			unused = append(unused, from)
		}
	}
	return unused
}

// Merge is a convenience wrapper: it binds a Merger and runs it once.
func Merge(ctx context.Context, source, target *ir.Fragment, userRenames map[string]string) (*Result, error) {
	m, err := New(source, target, userRenames)
	if err != nil {
		return nil, err
	}
	return m.Merge(ctx)
}
