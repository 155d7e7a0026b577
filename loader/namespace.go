package loader

import (
	"slices"
	"sync"

	"github.com/wippyai/modloader/errors"
)

// Accessor reads the current value of an export or binding.
type Accessor func() (any, error)

// Namespace is a module's public export surface.
//
// Every entry is an accessor, never a stored value, so reads observe the
// exporting module's current state. Defining a name again replaces its
// accessor; the last exporter wins, including for "default". A Namespace's
// identity never changes once created.
//
// Namespace is thread-safe.
type Namespace struct {
	entries map[string]Accessor
	id      string
	mu      sync.RWMutex
}

func newNamespace(id string) *Namespace {
	return &Namespace{
		id:      id,
		entries: make(map[string]Accessor),
	}
}

// Identifier returns the identifier of the owning module.
func (ns *Namespace) Identifier() string {
	return ns.id
}

// define installs or replaces the accessor for name.
func (ns *Namespace) define(name string, a Accessor) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.entries[name] = a
}

func (ns *Namespace) remove(names ...string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, name := range names {
		delete(ns.entries, name)
	}
}

// Accessor returns the accessor for name.
func (ns *Namespace) Accessor(name string) (Accessor, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	a, ok := ns.entries[name]
	return a, ok
}

// Get reads the current value of the export name.
func (ns *Namespace) Get(name string) (any, error) {
	a, ok := ns.Accessor(name)
	if !ok {
		return nil, errors.New(errors.PhaseBinding, errors.KindMissingExport).
			Path(ns.id).
			Value(name).
			Detail("no export named %q", name).
			Build()
	}
	return a()
}

// Has reports whether name is exported.
func (ns *Namespace) Has(name string) bool {
	_, ok := ns.Accessor(name)
	return ok
}

// Keys returns the export names in sorted order.
func (ns *Namespace) Keys() []string {
	ns.mu.RLock()
	keys := make([]string, 0, len(ns.entries))
	for k := range ns.entries {
		keys = append(keys, k)
	}
	ns.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// Len returns the number of exports.
func (ns *Namespace) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.entries)
}

// Snapshot reads every export once. Exports that fail to read map to their error.
// Snapshot is for diagnostics; it does not preserve liveness.
func (ns *Namespace) Snapshot() map[string]any {
	keys := ns.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, err := ns.Get(k)
		if err != nil {
			out[k] = err
			continue
		}
		out[k] = v
	}
	return out
}
