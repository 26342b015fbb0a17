package template

import "strings"

// The lexer splits template source into literal text and directive markers.
// Directive bodies are returned with the delimiters stripped; the compiler
// interprets them.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokText
	tokDirective
)

type token struct {
	kind tokenKind
	val  string
	pos  Pos
}

type lexer struct {
	src        string
	left       string
	right      string
	off        int
	line       int
	lineOffset int // offset of the first byte of the current line
}

func newLexer(src, left, right string) *lexer {
	return &lexer{src: src, left: left, right: right, line: 1}
}

func (l *lexer) pos() Pos {
	return Pos{Offset: l.off, Line: l.line, Column: l.off - l.lineOffset + 1}
}

// advance moves to offset to, keeping line bookkeeping current.
func (l *lexer) advance(to int) {
	for i := l.off; i < to; i++ {
		if l.src[i] == '\n' {
			l.line++
			l.lineOffset = i + 1
		}
	}
	l.off = to
}

// next returns the next token. An unterminated directive marker is an
// error reported at its opening delimiter.
func (l *lexer) next() (token, error) {
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos()}, nil
	}

	start := l.pos()
	open := strings.Index(l.src[l.off:], l.left)
	switch {
	case open < 0:
		text := l.src[l.off:]
		l.advance(len(l.src))
		return token{kind: tokText, val: text, pos: start}, nil
	case open > 0:
		text := l.src[l.off : l.off+open]
		l.advance(l.off + open)
		return token{kind: tokText, val: text, pos: start}, nil
	}

	bodyStart := l.off + len(l.left)
	end := strings.Index(l.src[bodyStart:], l.right)
	if end < 0 {
		return token{}, &SyntaxError{
			Pos: start,
			Msg: "unterminated directive: missing " + l.right,
			Err: ErrMalformedDirective,
		}
	}
	body := l.src[bodyStart : bodyStart+end]
	l.advance(bodyStart + end + len(l.right))
	return token{kind: tokDirective, val: body, pos: start}, nil
}
