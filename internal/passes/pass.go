// Package passes runs named fragment transformations in pipelines.
package passes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"ace/internal/ir"
	"ace/internal/trace"
)

// Pass transforms one fragment in place.
type Pass interface {
	Run(ctx context.Context, f *ir.Fragment) error
}

// Func adapts a function to Pass.
type Func func(ctx context.Context, f *ir.Fragment) error

// Run implements Pass.
func (fn Func) Run(ctx context.Context, f *ir.Fragment) error { return fn(ctx, f) }

// ErrUnknownPass reports a pipeline naming an unregistered pass.
var ErrUnknownPass = errors.New("unknown pass")

var (
	mu       sync.RWMutex
	registry = map[string]Pass{
		"outline-constants": Func(OutlineConstants),
		"symbol-dce":        Func(SymbolDCE),
		"verify":            Func(verify),
	}
)

// Register adds a pass under name. Registering a taken name fails.
func Register(name string, p Pass) error {
	name = strings.TrimSpace(name)
	if name == "" || p == nil {
		return fmt.Errorf("register pass %q: empty name or nil pass", name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("register pass %q: already registered", name)
	}
	registry[name] = p
	return nil
}

// Names lists the registered passes in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type stage struct {
	name string
	pass Pass
}

// Parse splits a comma separated pipeline and resolves every pass name.
func Parse(pipeline string) ([]string, error) {
	stages, err := parse(pipeline)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.name
	}
	return names, nil
}

func parse(pipeline string) ([]stage, error) {
	mu.RLock()
	defer mu.RUnlock()
	var stages []stage
	for _, part := range strings.Split(pipeline, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		p, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownPass, name, strings.Join(namesLocked(), ", "))
		}
		stages = append(stages, stage{name: name, pass: p})
	}
	return stages, nil
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RunPipeline runs the passes named in pipeline over f in order. Every name
// is resolved before the first pass runs. The first failing pass stops the
// pipeline.
func RunPipeline(ctx context.Context, f *ir.Fragment, pipeline string) error {
	stages, err := parse(pipeline)
	if err != nil {
		return err
	}
	ctx, span := trace.BeginCtx(ctx, trace.ScopeMerge, "pipeline")
	span.WithExtra("fragment", f.Name).WithExtra("pipeline", pipeline)
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			span.End("cancelled")
			return err
		}
		_, ps := trace.BeginCtx(ctx, trace.ScopeStep, "pass:"+st.name)
		if err := st.pass.Run(ctx, f); err != nil {
			ps.End("error")
			span.End("error")
			return fmt.Errorf("pass %s on %s: %w", st.name, f.Name, err)
		}
		ps.End("")
	}
	span.End("")
	return nil
}

func verify(_ context.Context, f *ir.Fragment) error {
	return ir.Verify(f)
}
