package loader

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Module is a registered unit of code.
//
// A Module is created once with its resolved Links and never destroyed.
// Its state advances monotonically; link, instantiate and evaluate each run
// at most once.
type Module struct {
	base       *Scope
	bindings   *Scope
	ns         *Namespace
	exports    *Context
	body       Body
	compiled   Body
	err        error
	id         string
	source     []byte
	links      []Link
	linkOp     op[struct{}]
	instOp     op[struct{}]
	evalOp     op[*Namespace]
	env        sync.Once
	mu         sync.Mutex
	state      atomic.Int32
}

func newModule(id string, source []byte, links []Link, base *Scope, body Body) *Module {
	return &Module{
		id:     id,
		source: source,
		links:  links,
		base:   base,
		body:   body,
	}
}

// Identifier returns the module's canonical identifier.
func (m *Module) Identifier() string {
	return m.id
}

// Source returns the module's source text.
func (m *Module) Source() []byte {
	return m.source
}

// Links returns the module's resolved import and export-from links.
func (m *Module) Links() []Link {
	return slices.Clone(m.links)
}

// Dependencies returns the distinct identifiers the module links to, in declaration order.
func (m *Module) Dependencies() []string {
	var deps []string
	for _, l := range m.links {
		if !slices.Contains(deps, l.Identifier) {
			deps = append(deps, l.Identifier)
		}
	}
	return deps
}

// State returns the current lifecycle state.
func (m *Module) State() State {
	return State(m.state.Load())
}

// Err returns the recorded failure cause, or nil.
func (m *Module) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Bindings returns the module's local binding table, chained onto its base scope.
func (m *Module) Bindings() *Scope {
	m.environment()
	return m.bindings
}

// Namespace returns the module's exports once it is Evaluated, nil otherwise.
func (m *Module) Namespace() *Namespace {
	if m.State() != StateEvaluated {
		return nil
	}
	return m.ns
}

// environment creates the Bindings, Namespace and export Context.
func (m *Module) environment() {
	m.env.Do(func() {
		m.bindings = NewScope(m.base)
		m.ns = newNamespace(m.id)
		m.exports = &Context{
			Scope:  m.bindings,
			Meta:   Meta{URL: m.id},
			module: m,
		}
	})
}

// advance moves the module to state to unless it is already there, past it, or terminal.
func (m *Module) advance(to State) bool {
	for {
		cur := State(m.state.Load())
		if cur.Terminal() || cur >= to {
			return false
		}
		if m.state.CompareAndSwap(int32(cur), int32(to)) {
			return true
		}
	}
}

// fail records cause (the first one wins) and moves the module to Failed.
func (m *Module) fail(cause error) {
	m.mu.Lock()
	if m.err == nil {
		m.err = cause
	}
	m.mu.Unlock()
	m.advance(StateFailed)
}
