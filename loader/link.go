package loader

import (
	"context"
	"strings"
)

// Intent distinguishes imports from re-exports.
type Intent uint8

const (
	IntentImport Intent = iota
	IntentExportFrom
)

func (i Intent) String() string {
	if i == IntentExportFrom {
		return "export-from"
	}
	return "import"
}

// Wildcard is the ExternalName of namespace imports and star re-exports.
const Wildcard = "*"

// Decl is one import or export-from statement as reported by a Scanner.
//
//	import {a as b} from "./x"   Decl{IntentImport, "./x", "a", "b"}
//	import * as ns from "./x"    Decl{IntentImport, "./x", "*", "ns"}
//	import "./x"                 Decl{IntentImport, "./x", "", ""}
//	export {a as b} from "./x"   Decl{IntentExportFrom, "./x", "a", "b"}
//	export * as ns from "./x"    Decl{IntentExportFrom, "./x", "*", "ns"}
//	export * from "./x"          Decl{IntentExportFrom, "./x", "*", ""}
type Decl struct {
	Specifier    string
	ExternalName string
	LocalName    string
	Intent       Intent
}

// Link is a Decl whose specifier has been resolved against the declaring module.
// Links are immutable once the module is constructed.
type Link struct {
	Identifier string
	Decl
}

// IsWildcard reports whether the link refers to the whole dependency namespace.
func (l Link) IsWildcard() bool {
	return l.ExternalName == Wildcard
}

func (l Link) String() string {
	var b strings.Builder
	b.WriteString(l.Intent.String())
	b.WriteByte(' ')
	switch {
	case l.ExternalName == "" && l.LocalName == "":
		b.WriteString("(side effect)")
	case l.ExternalName == l.LocalName:
		b.WriteString(l.LocalName)
	case l.LocalName == "":
		b.WriteString(l.ExternalName)
	default:
		b.WriteString(l.ExternalName)
		b.WriteString(" as ")
		b.WriteString(l.LocalName)
	}
	b.WriteString(" from ")
	b.WriteString(l.Identifier)
	return b.String()
}

// Scanner extracts a module's import and export-from declarations from its source.
type Scanner interface {
	Scan(source []byte) ([]Decl, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(source []byte) ([]Decl, error)

// Scan implements Scanner.
func (f ScannerFunc) Scan(source []byte) ([]Decl, error) {
	return f(source)
}

// Body executes a module once its dependencies are linked.
// It publishes exports through c and reads or writes locals through c.Scope.
type Body func(ctx context.Context, c *Context) error

// Evaluator compiles a module's source into a Body bound to scope.
type Evaluator interface {
	Compile(ctx context.Context, m *Module, scope *Scope) (Body, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, m *Module, scope *Scope) (Body, error)

// Compile implements Evaluator.
func (f EvaluatorFunc) Compile(ctx context.Context, m *Module, scope *Scope) (Body, error) {
	return f(ctx, m, scope)
}
