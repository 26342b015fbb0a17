package template

import (
	"bytes"
	"io"
	"strings"

	"github.com/rinehimer/jxtl/internal/value"
)

// Expand renders the template against root. f may be nil, in which case
// format names are ignored. Missing data and values of the wrong shape
// produce no output; the only failure is a formatter error, returned as a
// *FormatterError together with an empty string.
func (t *Template) Expand(root value.Value, f Formatter) (string, error) {
	var b strings.Builder
	if err := t.expand(&b, root, f); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Execute renders the template into w. Output is buffered so nothing is
// written when expansion fails.
func (t *Template) Execute(w io.Writer, root value.Value, f Formatter) error {
	var buf bytes.Buffer
	if err := t.expand(&buf, root, f); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

type writer interface {
	io.Writer
	io.StringWriter
}

type expander struct {
	out   writer
	f     Formatter
	scope scope
}

func (t *Template) expand(out writer, root value.Value, f Formatter) error {
	e := &expander{
		out:   out,
		f:     f,
		scope: scope{stack: []value.Value{root}, eval: t.eval},
	}
	return e.nodes(t.nodes, "")
}

// nodes expands a body; format is the name inherited from enclosing loops.
func (e *expander) nodes(nodes []node, format string) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case *literalNode:
			e.out.WriteString(n.text)
		case *interpolateNode:
			err = e.interpolate(n, format)
		case *iterateNode:
			err = e.iterate(n, format)
		case *conditionalNode:
			err = e.conditional(n, format)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *expander) interpolate(n *interpolateNode, format string) error {
	v, ok := n.path.resolve(e.scope.stack)
	if !ok {
		return nil
	}
	if n.format != "" {
		format = n.format
	}

	switch v := v.(type) {
	case value.Scalar:
		return e.scalar(n.pos, string(v), format)
	case value.Sequence:
		if !n.hasSep {
			return nil
		}
		first := true
		for _, el := range v {
			s, ok := el.(value.Scalar)
			if !ok {
				continue
			}
			if !first {
				e.out.WriteString(n.separator)
			}
			first = false
			if err := e.scalar(n.pos, string(s), format); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *expander) scalar(pos Pos, s, format string) error {
	if format == "" || e.f == nil {
		e.out.WriteString(s)
		return nil
	}
	out, err := e.f.Format(s, format, &e.scope)
	if err != nil {
		return &FormatterError{Format: format, Value: s, Pos: pos, Err: err}
	}
	e.out.WriteString(out)
	return nil
}

func (e *expander) iterate(n *iterateNode, format string) error {
	v, ok := n.path.resolve(e.scope.stack)
	if !ok {
		return nil
	}
	seq, ok := v.(value.Sequence)
	if !ok {
		return nil
	}
	if n.format != "" {
		format = n.format
	}

	for i, el := range seq {
		if i > 0 && n.hasSep {
			e.out.WriteString(n.separator)
		}
		e.scope.push(el)
		err := e.nodes(n.body, format)
		e.scope.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *expander) conditional(n *conditionalNode, format string) error {
	for _, b := range n.branches {
		if e.truth(b.path) != b.negate {
			return e.nodes(b.body, format)
		}
	}
	return e.nodes(n.elseBody, format)
}

// truth is true for any present value except an empty sequence.
func (e *expander) truth(p *Path) bool {
	v, ok := p.resolve(e.scope.stack)
	if !ok {
		return false
	}
	if seq, ok := v.(value.Sequence); ok {
		return len(seq) > 0
	}
	return true
}
