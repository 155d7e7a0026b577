// Package loader implements a module lifecycle with ECMAScript-module-like
// semantics: named exports, a default export, wildcard re-exports and live
// bindings between modules registered under canonical identifiers.
//
// # Main Types
//
//   - Loader: owns a Registry, an in-flight import cache and a resolver
//   - Module: a registered unit of code with resolved Links
//   - Namespace: a module's exports, each read through an accessor
//   - Scope: an ordered symbol table; a module's Bindings chain onto a base scope
//   - Context: what a module Body receives (Scope plus the export capability)
//
// # Lifecycle
//
// Every module moves through
//
//	Unlinked -> Linking -> Linked -> Instantiating -> Instantiated -> Evaluating -> Evaluated | Failed
//
// Link, Instantiate and Evaluate each run at most once per module.
// Instantiate links first, so every dependency's Namespace exists before the
// module's body runs. Failures are recorded on the module, returned to each
// caller waiting on it, and never retried.
//
// # Thread Safety
//
// Loader, Registry, Namespace and Scope are safe for concurrent use. Each
// memoized operation runs on its own goroutine; callers only wait on it.
//
// # Cycles
//
// Import settles only after the target has fully evaluated. Modules that
// import each other therefore never settle; a caller observes this through
// its own context deadline. Loader.Cycles reports such groups.
//
// # Example
//
//	l := loader.NewWithDefaults()
//	l.Define("a", nil, func(ctx context.Context, c *loader.Context) error {
//	    c.Scope.Define("ONE", 1)
//	    c.ExportBinding("ONE", "ONE")
//	    return nil
//	}, nil)
//	l.Define("b", []loader.Decl{{Intent: loader.IntentImport, Specifier: "a", ExternalName: "ONE", LocalName: "ONE"}},
//	    func(ctx context.Context, c *loader.Context) error {
//	        one, err := c.Scope.Get("ONE")
//	        if err != nil {
//	            return err
//	        }
//	        c.Scope.Define("TWO", one.(int)+1)
//	        c.ExportBinding("TWO", "TWO")
//	        return nil
//	    }, nil)
//	ns, _ := l.Import(ctx, "b")
//	two, _ := ns.Get("TWO") // 2
package loader
