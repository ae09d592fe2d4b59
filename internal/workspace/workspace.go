// Package workspace is the editing session around merges: it opens input
// fragments, creates outputs, normalizes and merges inputs into outputs,
// and saves the results.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"ace/internal/ir"
	"ace/internal/observ"
	"ace/internal/trace"
)

// Default identifiers for the first input and output.
const (
	DefaultInput  = "input0"
	DefaultOutput = "output0"
)

// ErrUnknownModule reports a lookup of an identifier the workspace never issued.
var ErrUnknownModule = errors.New("unknown module")

// Role tells inputs from outputs.
type Role uint8

const (
	// RoleInput marks a module opened or attached as merge source.
	RoleInput Role = iota + 1
	// RoleOutput marks a module created as merge target.
	RoleOutput
)

func (r Role) String() string {
	if r == RoleOutput {
		return "output"
	}
	return "input"
}

// Workspace holds named input and output modules. It is safe for
// concurrent use.
type Workspace struct {
	mu      sync.Mutex
	inputs  namespace
	outputs namespace
	timer   *observ.Timer
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{
		inputs:  namespace{role: RoleInput},
		outputs: namespace{role: RoleOutput},
		timer:   observ.NewTimer(),
	}
}

// Timer returns the timer recording every workspace step.
func (ws *Workspace) Timer() *observ.Timer { return ws.timer }

// timed records fn as one timer phase.
func (ws *Workspace) timed(name string, fn func() error) error {
	ws.mu.Lock()
	idx := ws.timer.Begin(name)
	ws.mu.Unlock()
	err := fn()
	note := ""
	if err != nil {
		note = "error"
	}
	ws.mu.Lock()
	ws.timer.End(idx, note)
	ws.mu.Unlock()
	return err
}

// CreateEmpty adds an empty output module. The identifier is reserved with
// the usual numbering scheme when taken.
func (ws *Workspace) CreateEmpty(ident string) *Module {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ident = ws.outputs.reserve(NormalizeIdent(ident, DefaultOutput))
	m := &Module{ws: ws, Ident: ident, Role: RoleOutput, Fragment: ir.NewFragment(ident)}
	ws.outputs.add(m)
	return m
}

// AttachInput registers an in-memory fragment as an input module.
func (ws *Workspace) AttachInput(ident string, f *ir.Fragment) *Module {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ident = ws.inputs.reserve(NormalizeIdent(ident, DefaultInput))
	m := &Module{ws: ws, Ident: ident, Role: RoleInput, Fragment: f}
	ws.inputs.add(m)
	return m
}

// Input returns the input module named ident.
func (ws *Workspace) Input(ident string) (*Module, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.inputs.get(NormalizeIdent(ident, DefaultInput))
}

// Output returns the output module named ident.
func (ws *Workspace) Output(ident string) (*Module, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.outputs.get(NormalizeIdent(ident, DefaultOutput))
}

// Inputs lists the input modules in registration order.
func (ws *Workspace) Inputs() []*Module {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.inputs.list()
}

// Outputs lists the output modules in registration order.
func (ws *Workspace) Outputs() []*Module {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.outputs.list()
}

// spanFor begins a session-level span for one workspace step.
func spanFor(ctx context.Context, scope trace.Scope, name string, kv ...string) (context.Context, *trace.Span) {
	ctx, span := trace.BeginCtx(ctx, scope, name)
	for i := 0; i+1 < len(kv); i += 2 {
		span.WithExtra(kv[i], kv[i+1])
	}
	return ctx, span
}

// NormalizeIdent trims and NFC-normalizes a module identifier, so visually
// identical identifiers compare equal. An empty identifier becomes def.
func NormalizeIdent(ident, def string) string {
	ident = norm.NFC.String(strings.TrimSpace(ident))
	if ident == "" {
		return def
	}
	return ident
}

type namespace struct {
	role    Role
	order   []string
	modules map[string]*Module
	pending map[string]bool
}

func (ns *namespace) taken(ident string) bool {
	_, ok := ns.modules[ident]
	return ok || ns.pending[ident]
}

// reserve returns requested when free. Otherwise a trailing digit is split
// off as the starting index (input0 -> stem input, index 0) and the first
// free stem+index wins; names without a trailing digit start at 1.
func (ns *namespace) reserve(requested string) string {
	if !ns.taken(requested) {
		return requested
	}
	stem, index := requested, 1
	if r := []rune(requested); len(r) > 1 && r[len(r)-1] >= '0' && r[len(r)-1] <= '9' {
		stem = string(r[:len(r)-1])
		index = int(r[len(r)-1] - '0')
	}
	for ; ; index++ {
		candidate := stem + strconv.Itoa(index)
		if !ns.taken(candidate) {
			return candidate
		}
	}
}

// hold marks ident as in use until add or release.
func (ns *namespace) hold(ident string) {
	if ns.pending == nil {
		ns.pending = make(map[string]bool)
	}
	ns.pending[ident] = true
}

func (ns *namespace) release(ident string) { delete(ns.pending, ident) }

func (ns *namespace) add(m *Module) {
	if ns.modules == nil {
		ns.modules = make(map[string]*Module)
	}
	delete(ns.pending, m.Ident)
	ns.modules[m.Ident] = m
	ns.order = append(ns.order, m.Ident)
}

func (ns *namespace) get(ident string) (*Module, error) {
	if m, ok := ns.modules[ident]; ok {
		return m, nil
	}
	known := slices.Clone(ns.order)
	return nil, fmt.Errorf("%s %q: %w (known: %s)", ns.role, ident, ErrUnknownModule, strings.Join(known, ", "))
}

func (ns *namespace) list() []*Module {
	out := make([]*Module, len(ns.order))
	for i, ident := range ns.order {
		out[i] = ns.modules[ident]
	}
	return out
}
