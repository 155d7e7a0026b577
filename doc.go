// Package modloader is a userland module loader with ECMAScript module
// semantics: specifier resolution, a registry of modules, and a lifecycle of
// link, instantiate and evaluate with live bindings between modules.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	modloader/
//	├── specifier/       Specifier resolution into canonical identifiers
//	├── loader/          Registry, lifecycle, Namespace and Scope
//	├── decl/            Import/export-from scanner for module text
//	├── wasmeval/        WebAssembly core modules as loader modules (wazero)
//	├── driver/          Loading module graphs from an fs.FS
//	├── errors/          Structured error types for debugging
//	└── cmd/modrun/      Command line runner and registry browser
//
// # Quick Start
//
// Define two modules in Go and import one:
//
//	l := loader.NewWithDefaults()
//
//	l.Define("a.js", nil, func(ctx context.Context, c *loader.Context) error {
//	    c.Scope.Define("ONE", 1)
//	    c.ExportBinding("ONE", "ONE")
//	    return nil
//	}, nil)
//
//	l.Define("b.js", []loader.Decl{{
//	    Intent: loader.IntentImport, Specifier: "./a.js",
//	    ExternalName: "ONE", LocalName: "ONE",
//	}}, func(ctx context.Context, c *loader.Context) error {
//	    one, _ := c.Scope.Get("ONE")
//	    c.ExportDefault(one.(int) + 1)
//	    return nil
//	}, nil)
//
//	ns, err := l.Import(ctx, "b.js")
//	two, _ := ns.Get("default") // 2
//
// # Module Sources
//
// A Loader turns source text into modules through two collaborators: a
// Scanner that reports a module's import and export-from declarations, and
// an Evaluator that compiles the module into a body. decl.Scanner handles
// ECMAScript-style text, wasmeval.Engine handles WebAssembly binaries, and
// driver.Mux routes between them by content.
//
// # Thread Safety
//
// Loader, Registry, Module, Namespace and Scope are safe for concurrent use.
// Concurrent imports of one module share a single evaluation.
//
// # Import Cycles
//
// Modules that import each other never finish linking. A caller sees this
// only as its context ending; Loader.Cycles reports the groups involved.
package modloader
