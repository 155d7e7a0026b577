package decl

import (
	"strings"

	"github.com/wippyai/modloader/errors"
)

type tokenType uint8

const (
	tokEOF tokenType = iota
	tokIdent
	tokString
	tokPunct
)

type token struct {
	text string
	line int
	typ  tokenType
}

func (t token) is(typ tokenType, text string) bool {
	return t.typ == typ && t.text == text
}

// lexer splits source into identifiers, string literals and single-byte
// punctuation. Comments and template literals are skipped. Number literals
// come out as identifiers, which is enough to step over them.
type lexer struct {
	src    []byte
	tokens []token
	cur    int
	line   int
}

func lex(src []byte) ([]token, error) {
	l := &lexer{src: src, line: 1}
	for {
		l.skipSpaceAndComments()
		if l.isAtEnd() {
			l.tokens = append(l.tokens, token{typ: tokEOF, line: l.line})
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
	}
	return ch
}

func (l *lexer) skipSpaceAndComments() {
	for !l.isAtEnd() {
		switch ch := l.peekN(0); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekN(1) == '/':
			for !l.isAtEnd() && l.peekN(0) != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekN(1) == '*':
			l.advance()
			l.advance()
			for !l.isAtEnd() && !(l.peekN(0) == '*' && l.peekN(1) == '/') {
				l.advance()
			}
			if !l.isAtEnd() {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) scanToken() error {
	line := l.line
	ch := l.peekN(0)
	switch {
	case ch == '"' || ch == '\'':
		s, err := l.scanString(ch)
		if err != nil {
			return err
		}
		l.tokens = append(l.tokens, token{typ: tokString, text: s, line: line})
	case ch == '`':
		return l.skipTemplate()
	case isIdentByte(ch):
		start := l.cur
		for !l.isAtEnd() && isIdentByte(l.peekN(0)) {
			l.advance()
		}
		l.tokens = append(l.tokens, token{typ: tokIdent, text: string(l.src[start:l.cur]), line: line})
	default:
		l.advance()
		l.tokens = append(l.tokens, token{typ: tokPunct, text: string(ch), line: line})
	}
	return nil
}

func (l *lexer) scanString(quote byte) (string, error) {
	line := l.line
	l.advance()

	var b strings.Builder
	for !l.isAtEnd() {
		ch := l.advance()
		switch ch {
		case quote:
			return b.String(), nil
		case '\n':
			return "", errors.InvalidDeclaration(line, "unterminated string literal")
		case '\\':
			if l.isAtEnd() {
				return "", errors.InvalidDeclaration(line, "unfinished escape sequence")
			}
			switch esc := l.advance(); esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\n':
				// line continuation
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(ch)
		}
	}
	return "", errors.InvalidDeclaration(line, "unterminated string literal")
}

// skipTemplate steps over a template literal, including nested substitutions.
func (l *lexer) skipTemplate() error {
	line := l.line
	l.advance()
	depth := 0
	for !l.isAtEnd() {
		ch := l.advance()
		switch {
		case ch == '\\' && !l.isAtEnd():
			l.advance()
		case ch == '`' && depth == 0:
			return nil
		case ch == '$' && l.peekN(0) == '{':
			l.advance()
			depth++
		case ch == '}' && depth > 0:
			depth--
		}
	}
	return errors.InvalidDeclaration(line, "unterminated template literal")
}

func isIdentByte(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_' || b == '$' || b >= 0x80
}
