// Package specifier canonicalizes module specifiers into absolute identifiers.
//
// Resolution is pure string algebra: a specifier is resolved as a URL
// reference against its referrer (or a default root), dot segments are
// removed, and the fragment is dropped. No filesystem or network access
// takes place.
package specifier

import (
	"net/url"
	"sync"

	"github.com/wippyai/modloader/errors"
)

// DefaultRoot is the base used when neither specifier nor referrer carries an origin.
const DefaultRoot = "file:///"

type cacheKey struct {
	referrer  string
	specifier string
}

// Resolver maps (specifier, referrer) pairs to identifiers.
// Results are memoized per pair. Resolver is thread-safe.
type Resolver struct {
	root  *url.URL
	cache map[cacheKey]string
	mu    sync.RWMutex
}

// New creates a resolver whose default root is root.
// The root must be an absolute, hierarchical URL.
func New(root string) (*Resolver, error) {
	u, err := url.Parse(root)
	if err != nil {
		return nil, errors.InvalidSpecifier(root, "", err)
	}
	if !u.IsAbs() || u.Opaque != "" {
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidSpecifier).
			Value(root).
			Detail("root %q must be an absolute hierarchical URL", root).
			Build()
	}
	return &Resolver{
		root:  u,
		cache: make(map[cacheKey]string),
	}, nil
}

// NewDefault creates a resolver rooted at DefaultRoot.
func NewDefault() *Resolver {
	r, err := New(DefaultRoot)
	if err != nil {
		panic(err)
	}
	return r
}

// Root returns the default root as a string.
func (r *Resolver) Root() string {
	return r.root.String()
}

// Resolve canonicalizes specifier relative to referrer.
//
// A specifier with a scheme is taken as absolute. Otherwise it is resolved
// against referrer, or against the default root when referrer is empty.
// A referrer that is not absolute is itself resolved against the root first.
// The empty specifier resolves to the referrer.
func (r *Resolver) Resolve(specifier, referrer string) (string, error) {
	key := cacheKey{referrer: referrer, specifier: specifier}

	r.mu.RLock()
	id, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.resolve(specifier, referrer)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
	return id, nil
}

// Cached returns the number of memoized pairs.
func (r *Resolver) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) resolve(specifier, referrer string) (string, error) {
	base := r.root
	if referrer != "" {
		ref, err := url.Parse(referrer)
		if err != nil {
			return "", errors.InvalidSpecifier(specifier, referrer, err)
		}
		if !ref.IsAbs() {
			ref = r.root.ResolveReference(ref)
		}
		base = ref
	}

	if specifier == "" {
		return canonical(base), nil
	}

	u, err := url.Parse(specifier)
	if err != nil {
		return "", errors.InvalidSpecifier(specifier, referrer, err)
	}
	if u.IsAbs() {
		return canonical(base.ResolveReference(u)), nil
	}

	// Relative references have no meaning against "data:" or "mailto:" style bases.
	if base.Opaque != "" {
		return "", errors.New(errors.PhaseResolve, errors.KindInvalidSpecifier).
			Value(specifier).
			Detail("cannot resolve %q against opaque referrer %q", specifier, referrer).
			Build()
	}

	return canonical(base.ResolveReference(u)), nil
}

func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
