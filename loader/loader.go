package loader

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/modloader/errors"
	"github.com/wippyai/modloader/specifier"
)

// Options configures loader behavior.
type Options struct {
	// Scanner extracts declarations from source passed to NewModule.
	Scanner Scanner

	// Evaluator compiles source for modules that have no Go body.
	Evaluator Evaluator

	// Logger overrides the package logger for this loader.
	Logger *zap.Logger

	// Root is the default origin for specifiers without one.
	Root string
}

// DefaultOptions returns default loader configuration.
func DefaultOptions() Options {
	return Options{
		Root: specifier.DefaultRoot,
	}
}

// Loader owns a registry, an in-flight import cache and a specifier resolver,
// and runs the module lifecycle against them. Independent loaders share no state.
//
// Loader is thread-safe.
type Loader struct {
	resolver *specifier.Resolver
	registry *Registry
	log      *zap.Logger
	options  Options
}

// New creates a loader with the given options.
func New(opts Options) (*Loader, error) {
	if opts.Root == "" {
		opts.Root = specifier.DefaultRoot
	}
	res, err := specifier.New(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = Logger()
	}

	return &Loader{
		resolver: res,
		registry: NewRegistry(log),
		log:      log,
		options:  opts,
	}, nil
}

// NewWithDefaults creates a loader with default options.
func NewWithDefaults() *Loader {
	l, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return l
}

// Options returns the configuration.
func (l *Loader) Options() Options {
	return l.options
}

// Registry returns the loader's module registry.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Resolve canonicalizes specifier against referrer.
func (l *Loader) Resolve(spec, referrer string) (string, error) {
	return l.resolver.Resolve(spec, referrer)
}

// NewModule scans source with the configured Scanner, resolves its
// declarations, and registers the resulting module under the canonical form of id.
// The module's body is compiled by the configured Evaluator at instantiation.
func (l *Loader) NewModule(id string, source []byte, scope *Scope) (*Module, error) {
	if l.options.Scanner == nil {
		return nil, errors.InvalidInput(errors.PhaseScan, "loader has no scanner configured")
	}
	decls, err := l.options.Scanner.Scan(source)
	if err != nil {
		return nil, errors.New(errors.PhaseScan, errors.KindInvalidDeclaration).
			Path(id).
			Detail("scan module source").
			Cause(err).
			Build()
	}
	return l.construct(id, source, decls, scope, nil)
}

// Define registers a module whose declarations are already known and whose
// body is a Go function. A nil body evaluates to nothing, which suits modules
// that only re-export.
func (l *Loader) Define(id string, decls []Decl, body Body, scope *Scope) (*Module, error) {
	if body == nil {
		body = func(context.Context, *Context) error { return nil }
	}
	return l.construct(id, nil, decls, scope, body)
}

func (l *Loader) construct(id string, source []byte, decls []Decl, scope *Scope, body Body) (*Module, error) {
	canon, err := l.resolver.Resolve(id, "")
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(decls))
	for _, d := range decls {
		target, err := l.resolver.Resolve(d.Specifier, canon)
		if err != nil {
			return nil, err
		}
		links = append(links, Link{Identifier: target, Decl: d})
	}

	m := newModule(canon, source, links, scope, body)
	l.Register(m)
	return m, nil
}

// Register stores m in the registry, overwriting any module with the same identifier.
func (l *Loader) Register(m *Module) {
	l.registry.Register(m)
	l.log.Debug("module registered",
		zap.String("module", m.id),
		zap.Int("links", len(m.links)))
}

// Lookup returns the module registered under the canonical form of id.
func (l *Loader) Lookup(id string) (*Module, error) {
	canon, err := l.resolver.Resolve(id, "")
	if err != nil {
		return nil, err
	}
	return l.registry.Lookup(canon)
}

// Modules returns all registered modules sorted by identifier.
func (l *Loader) Modules() []*Module {
	return l.registry.Modules()
}

// Import returns the Namespace of the module registered under id, evaluating
// it and its dependencies first if needed. Concurrent and repeated imports of
// the same identifier share one evaluation and one result.
//
// Import waits until the module settles or ctx ends. Ending ctx only stops
// the wait; the module's evaluation continues and its outcome is kept.
// Modules that need each other's evaluation to finish (true import cycles)
// never settle.
func (l *Loader) Import(ctx context.Context, id string) (*Namespace, error) {
	canon, err := l.resolver.Resolve(id, "")
	if err != nil {
		return nil, err
	}
	return l.requestImport(ctx, canon)
}

// requestImport returns the shared handle's eventual Namespace for id.
// Unregistered identifiers fail without creating a cache entry.
func (l *Loader) requestImport(ctx context.Context, id string) (*Namespace, error) {
	m, err := l.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	if m.State() == StateEvaluated {
		return m.ns, nil
	}

	return l.registry.request(id).do(ctx, func(ctx context.Context) (*Namespace, error) {
		return l.Evaluate(ctx, m)
	})
}

// Link wires m's imports and re-exports to its dependencies' namespaces.
// Each dependency is imported concurrently; the first failure fails the link
// and discards every binding the link installed.
func (l *Loader) Link(ctx context.Context, m *Module) error {
	_, err := m.linkOp.do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.link(ctx, m)
	})
	return err
}

func (l *Loader) link(ctx context.Context, m *Module) error {
	m.environment()
	m.advance(StateLinking)
	l.log.Debug("linking", zap.String("module", m.id), zap.Int("links", len(m.links)))

	for _, ln := range m.links {
		if ln.Intent == IntentImport && ln.LocalName != "" {
			m.bindings.Declare(ln.LocalName)
		}
	}

	var (
		mu         sync.Mutex
		reexported []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ln := range m.links {
		g.Go(func() error {
			dep, err := l.requestImport(gctx, ln.Identifier)
			if err != nil {
				return linkError(m, ln, "dependency failed", err)
			}

			switch ln.Intent {
			case IntentImport:
				if err := bindImport(m, ln, dep); err != nil {
					return linkError(m, ln, "import", err)
				}
			case IntentExportFrom:
				names, err := m.exports.exportFrom(ln, dep)
				if err != nil {
					return linkError(m, ln, "re-export", err)
				}
				mu.Lock()
				reexported = append(reexported, names...)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var locals []string
		for _, ln := range m.links {
			if ln.Intent == IntentImport && ln.LocalName != "" {
				locals = append(locals, ln.LocalName)
			}
		}
		m.bindings.remove(locals...)
		m.ns.remove(reexported...)
		m.fail(err)
		l.log.Warn("link failed", zap.String("module", m.id), zap.Error(err))
		return err
	}

	m.advance(StateLinked)
	l.log.Debug("linked", zap.String("module", m.id))
	return nil
}

// bindImport installs a live binding in m for ln, reading dep at access time.
func bindImport(m *Module, ln Link, dep *Namespace) error {
	if ln.LocalName == "" {
		return nil
	}
	if ln.IsWildcard() {
		m.bindings.bind(ln.LocalName, func() (any, error) { return dep, nil })
		return nil
	}
	if !dep.Has(ln.ExternalName) {
		return errors.MissingExport(m.id, ln.Identifier, ln.ExternalName)
	}
	m.bindings.bind(ln.LocalName, forward(dep, ln.ExternalName))
	return nil
}

// Instantiate creates m's Namespace and Bindings, links m, and compiles its body.
// Linking completes before Instantiate returns, so every dependency's
// Namespace exists before m's body can run.
func (l *Loader) Instantiate(ctx context.Context, m *Module) error {
	_, err := m.instOp.do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.instantiate(ctx, m)
	})
	return err
}

func (l *Loader) instantiate(ctx context.Context, m *Module) error {
	m.environment()

	if err := l.Link(ctx, m); err != nil {
		m.fail(err)
		return err
	}

	m.advance(StateInstantiating)

	body := m.body
	if body == nil {
		if l.options.Evaluator == nil {
			err := errors.New(errors.PhaseInstantiate, errors.KindUnsupported).
				Path(m.id).
				Detail("no evaluator configured for source module").
				Build()
			m.fail(err)
			return err
		}
		compiled, err := l.options.Evaluator.Compile(ctx, m, m.bindings)
		if err != nil {
			err = errors.New(errors.PhaseInstantiate, errors.KindInvalidInput).
				Path(m.id).
				Detail("compile module body").
				Cause(err).
				Build()
			m.fail(err)
			return err
		}
		body = compiled
	}

	m.mu.Lock()
	m.compiled = body
	m.mu.Unlock()

	m.advance(StateInstantiated)
	return nil
}

// Evaluate instantiates m and runs its body once. A body that returns an error
// or panics leaves m permanently Failed; the failure is returned to every
// caller and never retried.
func (l *Loader) Evaluate(ctx context.Context, m *Module) (*Namespace, error) {
	return m.evalOp.do(ctx, func(ctx context.Context) (*Namespace, error) {
		return l.evaluate(ctx, m)
	})
}

func (l *Loader) evaluate(ctx context.Context, m *Module) (*Namespace, error) {
	if err := l.Instantiate(ctx, m); err != nil {
		m.fail(err)
		return nil, err
	}

	m.advance(StateEvaluating)
	l.log.Debug("evaluating", zap.String("module", m.id))

	m.mu.Lock()
	body := m.compiled
	m.mu.Unlock()

	if err := runBody(ctx, body, m.exports); err != nil {
		failure := errors.Evaluation(m.id, err)
		m.fail(failure)
		l.log.Warn("module failed", zap.String("module", m.id), zap.Error(err))
		return nil, failure
	}

	m.advance(StateEvaluated)
	l.log.Debug("evaluated",
		zap.String("module", m.id),
		zap.Int("exports", m.ns.Len()))
	return m.ns, nil
}

func runBody(ctx context.Context, body Body, c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return body(ctx, c)
}
