package document

import (
	"errors"
	"fmt"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("document parse error")

var (
	// ErrTooDeep is reported for documents nested deeper than MaxDepth.
	ErrTooDeep = errors.New("document nested too deeply")

	// ErrRecursiveAlias is reported for a YAML alias naming one of its own
	// enclosing anchors.
	ErrRecursiveAlias = errors.New("recursive alias")

	// ErrAliasExpansion is reported when YAML aliases expand to far more
	// nodes than the document holds.
	ErrAliasExpansion = errors.New("excessive alias expansion")
)

// MaxDepth bounds the nesting of arrays, objects, mappings and sequences in
// any document. It matches the limit encoding/json applies when decoding.
const MaxDepth = 10000

// ParseError reports a malformed input document. Offset is a byte offset
// into the input; Line and Column are 1-based and zero when unknown.
type ParseError struct {
	Format Kind
	Offset int64
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s: line %d, column %d: %v", e.Format, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %v", e.Format, e.Line, e.Err)
	default:
		return fmt.Sprintf("%s: offset %d: %v", e.Format, e.Offset, e.Err)
	}
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
