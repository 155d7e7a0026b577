// Package decl extracts import and export-from declarations from
// ECMAScript-style module source.
//
// The scanner recognizes these statements outside comments and strings:
//
//	import d from "s"
//	import {a, b as c} from "s"
//	import * as ns from "s"
//	import d, {a} from "s"
//	import d, * as ns from "s"
//	import "s"
//	export {a, b as c} from "s"
//	export * from "s"
//	export * as ns from "s"
//
// Local exports (export const, export function, export {a}) and dynamic
// import() calls are not declarations and are skipped. The scanner is not a
// parser: it does not understand regular expression literals or the rest of
// the language grammar.
package decl

import (
	"fmt"

	"github.com/wippyai/modloader/errors"
	"github.com/wippyai/modloader/loader"
)

// Scanner implements loader.Scanner for ECMAScript-style module text.
type Scanner struct{}

// New creates a scanner.
func New() *Scanner {
	return &Scanner{}
}

// Scan implements loader.Scanner.
func (*Scanner) Scan(source []byte) ([]loader.Decl, error) {
	return Scan(source)
}

// Scan returns the declarations in source in the order they appear.
// A malformed import or export-from statement fails with
// errors.KindInvalidDeclaration naming its line.
func Scan(source []byte) ([]loader.Decl, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	for !p.at(tokEOF) {
		t := p.next()
		if t.typ != tokIdent || p.afterDot() {
			continue
		}
		switch t.text {
		case "import":
			err = p.parseImport(t.line)
		case "export":
			err = p.parseExport(t.line)
		}
		if err != nil {
			return nil, err
		}
	}
	return p.decls, nil
}

type parser struct {
	toks  []token
	decls []loader.Decl
	pos   int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(typ tokenType) bool {
	return p.peek().typ == typ
}

// afterDot reports whether the token just consumed follows a ".", as in obj.import.
func (p *parser) afterDot() bool {
	return p.pos >= 2 && p.toks[p.pos-2].is(tokPunct, ".")
}

func (p *parser) accept(typ tokenType, text string) bool {
	if p.peek().is(typ, text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectIdent(line int, what string) (string, error) {
	t := p.peek()
	if t.typ != tokIdent {
		return "", p.errorf(line, "expected %s, found %s", what, describe(t))
	}
	p.next()
	return t.text, nil
}

func (p *parser) expectFrom(line int) (string, error) {
	if !p.accept(tokIdent, "from") {
		return "", p.errorf(line, "expected \"from\", found %s", describe(p.peek()))
	}
	t := p.peek()
	if t.typ != tokString {
		return "", p.errorf(line, "expected module specifier string, found %s", describe(t))
	}
	p.next()
	return t.text, nil
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return errors.InvalidDeclaration(line, fmt.Sprintf(format, args...))
}

func (p *parser) parseImport(line int) error {
	t := p.peek()
	if t.typ == tokPunct && t.text != "{" && t.text != "*" {
		// import(...), import.meta, or a property named import
		return nil
	}
	if t.typ == tokString {
		p.next()
		p.decls = append(p.decls, loader.Decl{Intent: loader.IntentImport, Specifier: t.text})
		return nil
	}

	var decls []loader.Decl
	if p.at(tokIdent) && !p.peek().is(tokIdent, "from") {
		d := p.next().text
		decls = append(decls, loader.Decl{ExternalName: "default", LocalName: d})
		if !p.accept(tokPunct, ",") {
			return p.finishImport(line, decls)
		}
	}

	switch {
	case p.accept(tokPunct, "*"):
		if !p.accept(tokIdent, "as") {
			return p.errorf(line, "expected \"as\" after \"*\"")
		}
		ns, err := p.expectIdent(line, "namespace name")
		if err != nil {
			return err
		}
		decls = append(decls, loader.Decl{ExternalName: loader.Wildcard, LocalName: ns})
	case p.accept(tokPunct, "{"):
		specs, err := p.parseSpecifiers(line)
		if err != nil {
			return err
		}
		for _, s := range specs {
			decls = append(decls, loader.Decl{ExternalName: s.name, LocalName: s.alias})
		}
	default:
		return p.errorf(line, "expected import clause, found %s", describe(p.peek()))
	}
	return p.finishImport(line, decls)
}

func (p *parser) finishImport(line int, decls []loader.Decl) error {
	spec, err := p.expectFrom(line)
	if err != nil {
		return err
	}
	for _, d := range decls {
		d.Intent = loader.IntentImport
		d.Specifier = spec
		p.decls = append(p.decls, d)
	}
	return nil
}

func (p *parser) parseExport(line int) error {
	switch {
	case p.accept(tokPunct, "*"):
		var ns string
		if p.accept(tokIdent, "as") {
			name, err := p.expectNameOrString(line, "namespace name")
			if err != nil {
				return err
			}
			ns = name
		}
		spec, err := p.expectFrom(line)
		if err != nil {
			return err
		}
		p.decls = append(p.decls, loader.Decl{
			Intent:       loader.IntentExportFrom,
			Specifier:    spec,
			ExternalName: loader.Wildcard,
			LocalName:    ns,
		})
		return nil

	case p.accept(tokPunct, "{"):
		specs, err := p.parseSpecifiers(line)
		if err != nil {
			return err
		}
		if !p.peek().is(tokIdent, "from") {
			// export {a, b}: a local export list
			return nil
		}
		spec, err := p.expectFrom(line)
		if err != nil {
			return err
		}
		for _, s := range specs {
			p.decls = append(p.decls, loader.Decl{
				Intent:       loader.IntentExportFrom,
				Specifier:    spec,
				ExternalName: s.name,
				LocalName:    s.alias,
			})
		}
		return nil
	}
	return nil
}

type specifier struct {
	name  string
	alias string
}

// parseSpecifiers reads "a, b as c, }" after the opening brace.
func (p *parser) parseSpecifiers(line int) ([]specifier, error) {
	var specs []specifier
	for !p.accept(tokPunct, "}") {
		name, err := p.expectNameOrString(line, "binding name")
		if err != nil {
			return nil, err
		}
		alias := name
		if p.accept(tokIdent, "as") {
			if alias, err = p.expectNameOrString(line, "alias"); err != nil {
				return nil, err
			}
		}
		specs = append(specs, specifier{name: name, alias: alias})

		if p.accept(tokPunct, ",") {
			continue
		}
		if !p.peek().is(tokPunct, "}") {
			return nil, p.errorf(line, "expected \",\" or \"}\", found %s", describe(p.peek()))
		}
	}
	return specs, nil
}

func (p *parser) expectNameOrString(line int, what string) (string, error) {
	if t := p.peek(); t.typ == tokString {
		p.next()
		return t.text, nil
	}
	return p.expectIdent(line, what)
}

func describe(t token) string {
	switch t.typ {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}
