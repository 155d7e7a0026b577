package loader

import (
	"cmp"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/modloader/errors"
)

// Registry maps identifiers to modules and folds concurrent imports of the
// same identifier into one in-flight request.
//
// The in-flight cache is append-only and doubles as the completed-result
// cache: once an identifier's import has settled, every later request
// observes the same Namespace or the same failure.
//
// Registry is thread-safe.
type Registry struct {
	modules  map[string]*Module
	inflight map[string]*op[*Namespace]
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = Logger()
	}
	return &Registry{
		modules:  make(map[string]*Module),
		inflight: make(map[string]*op[*Namespace]),
		log:      log,
	}
}

// Register stores m under its identifier, overwriting any previous module.
// Overwriting does not reset an import already in flight or settled for that
// identifier; later imports keep observing the earlier result.
func (r *Registry) Register(m *Module) (replaced bool) {
	r.mu.Lock()
	prev, replaced := r.modules[m.id]
	r.modules[m.id] = m
	_, requested := r.inflight[m.id]
	r.mu.Unlock()

	if replaced && prev != m {
		r.log.Warn("module re-registered",
			zap.String("module", m.id),
			zap.Stringer("previous_state", prev.State()),
			zap.Bool("import_cached", requested))
	}
	return replaced
}

// Lookup returns the module registered under id.
func (r *Registry) Lookup(id string) (*Module, error) {
	r.mu.RLock()
	m, ok := r.modules[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseRegistry, "module", id)
	}
	return m, nil
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// Modules returns all registered modules sorted by identifier.
func (r *Registry) Modules() []*Module {
	r.mu.RLock()
	mods := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		mods = append(mods, m)
	}
	r.mu.RUnlock()

	slices.SortFunc(mods, func(a, b *Module) int {
		return cmp.Compare(a.id, b.id)
	})
	return mods
}

// request returns the shared in-flight handle for id, creating it on first use.
func (r *Registry) request(id string) *op[*Namespace] {
	r.mu.RLock()
	p, ok := r.inflight[id]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.inflight[id]; ok {
		return p
	}
	p = &op[*Namespace]{}
	r.inflight[id] = p
	return p
}
