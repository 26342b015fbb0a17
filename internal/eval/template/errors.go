package template

import (
	"errors"
	"fmt"
)

// Sentinels wrapped by SyntaxError.
var (
	// ErrUnterminatedBlock is reported at the opener of a block that is
	// still open at the end of the source.
	ErrUnterminatedBlock = errors.New("unterminated block")

	// ErrUnmatchedClose is reported for a close marker (or else/elseif)
	// with no matching opener.
	ErrUnmatchedClose = errors.New("unmatched close")

	// ErrUnknownDirective is reported for a "#keyword" the compiler does
	// not recognise.
	ErrUnknownDirective = errors.New("unknown directive")

	// ErrMalformedDirective covers empty or unterminated markers, bad
	// paths, bad predicates and bad options.
	ErrMalformedDirective = errors.New("malformed directive")
)

// Pos is a location in template source. Line and Column are 1-based; Column
// counts bytes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports malformed template source.
type SyntaxError struct {
	Name string
	Pos  Pos
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s:%s: %s", e.Name, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// FormatterError wraps a failure returned by a Formatter during expansion.
type FormatterError struct {
	Format string
	Value  string
	Pos    Pos
	Err    error
}

func (e *FormatterError) Error() string {
	return fmt.Sprintf("format %q failed at %s: %v", e.Format, e.Pos, e.Err)
}

func (e *FormatterError) Unwrap() error { return e.Err }

// directiveError carries a sentinel and message up to the compiler, which
// attaches the directive position.
type directiveError struct {
	err error
	msg string
}

func (e *directiveError) Error() string { return e.msg }

func malformed(format string, args ...any) error {
	return &directiveError{err: ErrMalformedDirective, msg: fmt.Sprintf(format, args...)}
}
