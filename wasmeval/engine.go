// Package wasmeval runs WebAssembly core modules as loader modules.
//
// An Engine is both a loader.Scanner and a loader.Evaluator. Scanning reads
// a binary's function imports: the import module name is the specifier and
// the field is the imported export. Evaluating instantiates the binary on
// wazero with every import served by a host function that reads the
// importing module's binding when called, so imports stay live.
//
// A host function forwards to an imported *Func, or returns an imported
// number encoded as the declared result type. Exported functions become
// *Func values and exported globals become accessors over the global's
// current value. A function exported as "_default" is also the default export.
package wasmeval

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/modloader/errors"
	"github.com/wippyai/modloader/loader"
)

// Options configures an Engine.
type Options struct {
	Logger *zap.Logger

	// CacheDir persists compiled code across processes when set.
	CacheDir string

	// MemoryLimitPages caps each instance's memory in 64KiB pages.
	// 0 keeps the wazero default.
	MemoryLimitPages uint32
}

// Engine compiles and instantiates WebAssembly modules for a loader.
// Each module gets its own wazero runtime; compiled code is shared through
// one compilation cache.
//
// Engine is thread-safe.
type Engine struct {
	cache    wazero.CompilationCache
	scan     wazero.Runtime
	log      *zap.Logger
	runtimes []wazero.Runtime
	opts     Options
	mu       sync.Mutex
	closed   bool
}

var (
	_ loader.Scanner   = (*Engine)(nil)
	_ loader.Evaluator = (*Engine)(nil)
)

// New creates an engine.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cache := wazero.NewCompilationCache()
	if opts.CacheDir != "" {
		c, err := wazero.NewCompilationCacheWithDir(opts.CacheDir)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindInvalidInput, err, "open compilation cache")
		}
		cache = c
	}

	log := opts.Logger
	if log == nil {
		log = Logger()
	}

	e := &Engine{
		cache: cache,
		log:   log,
		opts:  opts,
	}
	e.scan = wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())
	return e, nil
}

func (e *Engine) runtimeConfig() wazero.RuntimeConfig {
	cfg := wazero.NewRuntimeConfig().WithCompilationCache(e.cache)
	if e.opts.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(e.opts.MemoryLimitPages)
	}
	return cfg
}

// Scan implements loader.Scanner. Each imported function becomes an import
// declaration bound to the local name "module#field".
func (e *Engine) Scan(source []byte) ([]loader.Decl, error) {
	ctx := context.Background()
	compiled, err := e.scan.CompileModule(ctx, source)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScan, errors.KindInvalidDeclaration, err, "compile wasm module")
	}
	defer compiled.Close(ctx)

	var decls []loader.Decl
	seen := make(map[string]bool)
	for _, fn := range compiled.ImportedFunctions() {
		mod, name, _ := fn.Import()
		local := LocalName(mod, name)
		if seen[local] {
			continue
		}
		seen[local] = true
		decls = append(decls, loader.Decl{
			Intent:       loader.IntentImport,
			Specifier:    mod,
			ExternalName: name,
			LocalName:    local,
		})
	}
	return decls, nil
}

// LocalName is the binding name under which an imported function is visible
// in the importing module's Bindings.
func LocalName(module, field string) string {
	return module + "#" + field
}

// Compile implements loader.Evaluator.
func (e *Engine) Compile(ctx context.Context, m *loader.Module, _ *loader.Scope) (loader.Body, error) {
	rt, err := e.newRuntime(ctx)
	if err != nil {
		return nil, err
	}

	compiled, err := rt.CompileModule(ctx, m.Source())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindInvalidInput, err, "compile wasm module")
	}
	globals, err := exportedGlobals(m.Source())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindInvalidInput, err, "read export section")
	}

	e.log.Debug("compiled wasm module",
		zap.String("module", m.Identifier()),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(compiled.ExportedFunctions())+len(globals)))

	return func(ctx context.Context, c *loader.Context) error {
		if err := instantiateHosts(ctx, rt, compiled, c.Scope); err != nil {
			return err
		}

		mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(c.Identifier()))
		if err != nil {
			return err
		}

		for name, def := range compiled.ExportedFunctions() {
			f := &Func{mod: mod, def: def, name: name}
			get := func() (any, error) { return f, nil }
			c.Export(name, get)
			if name == "_default" {
				c.Export("default", get)
			}
		}
		for _, name := range globals {
			g := mod.ExportedGlobal(name)
			if g == nil {
				continue
			}
			c.Export(name, func() (any, error) {
				return decode(g.Get(), g.Type()), nil
			})
		}
		return nil
	}, nil
}

// instantiateHosts builds one host module per imported module name.
func instantiateHosts(ctx context.Context, rt wazero.Runtime, compiled wazero.CompiledModule, scope *loader.Scope) error {
	builders := make(map[string]wazero.HostModuleBuilder)
	var order []string
	for _, fn := range compiled.ImportedFunctions() {
		mod, name, _ := fn.Import()
		b, ok := builders[mod]
		if !ok {
			b = rt.NewHostModuleBuilder(mod)
			builders[mod] = b
			order = append(order, mod)
		}
		b.NewFunctionBuilder().
			WithGoModuleFunction(hostFunc(scope, LocalName(mod, name), len(fn.ParamTypes()), fn.ResultTypes()),
				fn.ParamTypes(), fn.ResultTypes()).
			Export(name)
	}

	for _, mod := range order {
		if _, err := builders[mod].Instantiate(ctx); err != nil {
			return errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate host module "+mod)
		}
	}
	return nil
}

// hostFunc serves an import by reading its binding at call time.
// Failures panic, which wazero surfaces as an error from the guest call.
func hostFunc(scope *loader.Scope, local string, nparams int, results []api.ValueType) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		v, err := scope.Get(local)
		if err != nil {
			panic(err)
		}

		if f, ok := v.(*Func); ok {
			out, err := f.Call(ctx, stack[:nparams]...)
			if err != nil {
				panic(err)
			}
			copy(stack, out)
			return
		}

		switch len(results) {
		case 0:
			return
		case 1:
			raw, err := encode(v, results[0])
			if err != nil {
				panic(err)
			}
			stack[0] = raw
		default:
			panic(errors.TypeMismatch(errors.PhaseHost, []string{local}, "function", v))
		}
	}
}

func (e *Engine) newRuntime(ctx context.Context) (wazero.Runtime, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "engine is closed")
	}
	rt := wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())
	e.runtimes = append(e.runtimes, rt)
	return rt, nil
}

// Runtimes returns the number of module runtimes created so far.
func (e *Engine) Runtimes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runtimes)
}

// Close releases every runtime and the compilation cache. Functions exported
// by evaluated modules fail after Close.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	runtimes := e.runtimes
	e.runtimes = nil
	e.mu.Unlock()

	var first error
	for _, rt := range append(runtimes, e.scan) {
		if err := rt.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	if err := e.cache.Close(ctx); err != nil && first == nil {
		first = err
	}
	return first
}
