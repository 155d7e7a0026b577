package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve     Phase = "resolve"     // specifier resolution
	PhaseScan        Phase = "scan"        // declaration scanning
	PhaseRegistry    Phase = "registry"    // registration and lookup
	PhaseLink        Phase = "link"        // dependency wiring
	PhaseInstantiate Phase = "instantiate" // namespace and body compilation
	PhaseEvaluate    Phase = "evaluate"    // body execution
	PhaseBinding     Phase = "binding"     // scope and namespace reads
	PhaseLoad        Phase = "load"        // source loading by a driver
	PhaseHost        Phase = "host"        // host function synthesis
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidSpecifier   Kind = "invalid_specifier"
	KindInvalidDeclaration Kind = "invalid_declaration"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindMissingExport      Kind = "missing_export"
	KindUninitialized      Kind = "uninitialized"
	KindLinkFailure        Kind = "link_failure"
	KindEvaluation         Kind = "evaluation"
	KindTypeMismatch       Kind = "type_mismatch"
	KindUnsupported        Kind = "unsupported"
)

// Error is the structured error type used throughout the loader
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, " -> "))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the identifier path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidSpecifier creates a resolution error for a malformed specifier or referrer
func InvalidSpecifier(specifier, referrer string, cause error) *Error {
	detail := fmt.Sprintf("cannot resolve %q", specifier)
	if referrer != "" {
		detail += fmt.Sprintf(" against %q", referrer)
	}
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindInvalidSpecifier,
		Detail: detail,
		Value:  specifier,
		Cause:  cause,
	}
}

// InvalidDeclaration creates a scan error for a malformed import or export statement
func InvalidDeclaration(line int, detail string) *Error {
	return &Error{
		Phase:  PhaseScan,
		Kind:   KindInvalidDeclaration,
		Detail: fmt.Sprintf("line %d: %s", line, detail),
		Value:  line,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// MissingExport creates an error for an import naming an export the dependency lacks
func MissingExport(importer, dependency, name string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindMissingExport,
		Path:   []string{importer, dependency},
		Detail: fmt.Sprintf("no export named %q", name),
		Value:  name,
	}
}

// Uninitialized creates an error for a binding read before its first assignment
func Uninitialized(name string) *Error {
	return &Error{
		Phase:  PhaseBinding,
		Kind:   KindUninitialized,
		Detail: fmt.Sprintf("binding %q read before initialization", name),
		Value:  name,
	}
}

// Evaluation creates an error recording a failed module body
func Evaluation(id string, cause error) *Error {
	return &Error{
		Phase:  PhaseEvaluate,
		Kind:   KindEvaluation,
		Path:   []string{id},
		Detail: "module body failed",
		Cause:  cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want string, got any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("want %s, got %T", want, got),
		Value:  got,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
