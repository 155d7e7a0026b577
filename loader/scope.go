package loader

import (
	"sync"

	"github.com/wippyai/modloader/errors"
)

// slot holds one binding. A slot with a getter forwards reads to another
// module (import bindings) and cannot be assigned.
type slot struct {
	value  any
	getter Accessor
	init   bool
}

// Scope is an ordered symbol table chained onto an optional parent.
// Lookups walk from the innermost scope outward.
//
// A module's Bindings are a Scope whose parent is the base scope supplied at
// construction. Reading a declared but unassigned binding fails with
// errors.KindUninitialized.
//
// Scope is thread-safe.
type Scope struct {
	parent *Scope
	slots  map[string]*slot
	order  []string
	mu     sync.RWMutex
}

// NewScope creates an empty scope chained onto parent (which may be nil).
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent: parent,
		slots:  make(map[string]*slot),
	}
}

// ScopeOf creates a root scope holding the given values.
func ScopeOf(values map[string]any) *Scope {
	s := NewScope(nil)
	for name, v := range values {
		s.Define(name, v)
	}
	return s
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Declare creates an unassigned binding in this scope.
// Declare is a no-op if the name already exists here.
func (s *Scope) Declare(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[name]; !ok {
		s.slots[name] = &slot{}
		s.order = append(s.order, name)
	}
}

// Define creates or replaces a binding in this scope and assigns v.
func (s *Scope) Define(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[name]; !ok {
		s.order = append(s.order, name)
	}
	s.slots[name] = &slot{value: v, init: true}
}

// Set assigns v to the nearest binding named name.
// If no scope in the chain declares it, it is defined here.
// Assigning to an import binding fails.
func (s *Scope) Set(name string, v any) error {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		sl, ok := cur.slots[name]
		if ok {
			if sl.getter != nil {
				cur.mu.Unlock()
				return errors.New(errors.PhaseBinding, errors.KindInvalidInput).
					Value(name).
					Detail("assignment to import binding %q", name).
					Build()
			}
			sl.value = v
			sl.init = true
			cur.mu.Unlock()
			return nil
		}
		cur.mu.Unlock()
	}
	s.Define(name, v)
	return nil
}

// Get returns the current value of the nearest binding named name.
func (s *Scope) Get(name string) (any, error) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		sl, ok := cur.slots[name]
		var (
			value  any
			getter Accessor
			init   bool
		)
		if ok {
			value, getter, init = sl.value, sl.getter, sl.init
		}
		cur.mu.RUnlock()

		if !ok {
			continue
		}
		if getter != nil {
			return getter()
		}
		if !init {
			return nil, errors.Uninitialized(name)
		}
		return value, nil
	}
	return nil, errors.NotFound(errors.PhaseBinding, "binding", name)
}

// Has reports whether any scope in the chain declares name.
func (s *Scope) Has(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		_, ok := cur.slots[name]
		cur.mu.RUnlock()
		if ok {
			return true
		}
	}
	return false
}

// Names returns the names declared directly in this scope, in declaration order.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Accessor returns a live reader of name, resolved through the chain at call time.
func (s *Scope) Accessor(name string) Accessor {
	return func() (any, error) {
		return s.Get(name)
	}
}

// bind installs a read-only binding whose reads are forwarded to get.
func (s *Scope) bind(name string, get Accessor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[name]; !ok {
		s.order = append(s.order, name)
	}
	s.slots[name] = &slot{getter: get}
}

func (s *Scope) remove(names ...string) {
	if len(names) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		delete(s.slots, name)
		drop[name] = true
	}
	kept := s.order[:0]
	for _, name := range s.order {
		if !drop[name] {
			kept = append(kept, name)
		}
	}
	s.order = kept
}
