// Package errors provides structured error types for the module loader.
//
// Errors are categorized by Phase (which lifecycle step failed) and Kind
// (error category). The Error type carries the module identifier path, a
// human-readable detail, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindMissingExport).
//		Path("file:///app/main.js", "file:///app/util.js").
//		Detail("no export named %q", "helper").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseRegistry, "module", id)
//	err := errors.InvalidSpecifier("%zz", "", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
