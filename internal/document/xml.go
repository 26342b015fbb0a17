package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rinehimer/jxtl/internal/value"
)

const (
	// AttrPrefix marks mapping keys that came from XML attributes.
	AttrPrefix = "@"

	// TextKey holds character data of elements that also carry attributes
	// or child elements, and the text of repeated text-only elements.
	TextKey = "#text"
)

type xmlOptions struct {
	skipRoot bool
}

// XMLOption configures ParseXML.
type XMLOption func(*xmlOptions)

// SkipRoot makes ParseXML return the root element's value instead of a
// mapping keyed by the root tag.
func SkipRoot() XMLOption {
	return func(o *xmlOptions) { o.skipRoot = true }
}

// element accumulates one open XML element while its children are decoded.
type element struct {
	name     string
	attrs    []xml.Attr
	order    []string
	children map[string][]value.Value
	text     strings.Builder
}

func newElement(start xml.StartElement) *element {
	e := &element{name: start.Name.Local, children: make(map[string][]value.Value)}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		e.attrs = append(e.attrs, a)
	}
	return e
}

func (e *element) addChild(name string, v value.Value) {
	if _, ok := e.children[name]; !ok {
		e.order = append(e.order, name)
	}
	e.children[name] = append(e.children[name], v)
}

// collapse converts the element into the data model.
func (e *element) collapse() value.Value {
	text := e.text.String()
	if len(e.attrs) == 0 && len(e.order) == 0 {
		if strings.TrimSpace(text) == "" {
			return value.Scalar("")
		}
		return value.Scalar(text)
	}

	m := value.NewMapping()
	// Attributes are keyed by local name; when namespaced attributes share
	// one, the first in document order is kept.
	for _, a := range e.attrs {
		key := AttrPrefix + a.Name.Local
		if _, dup := m.Get(key); dup {
			continue
		}
		m.Set(key, value.Scalar(a.Value))
	}
	for _, name := range e.order {
		vals := e.children[name]
		if len(vals) == 1 {
			m.Set(name, vals[0])
			continue
		}
		seq := make(value.Sequence, len(vals))
		for i, v := range vals {
			if s, ok := v.(value.Scalar); ok {
				v = value.MappingOf(value.P(TextKey, s))
			}
			seq[i] = v
		}
		m.Set(name, seq)
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		m.Set(TextKey, value.Scalar(trimmed))
	}
	return m
}

// ParseXML converts an XML document into a value tree. The result is a
// mapping holding the root element under its tag unless SkipRoot is given.
func ParseXML(data []byte, opts ...XMLOption) (value.Value, error) {
	var o xmlOptions
	for _, opt := range opts {
		opt(&o)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		stack    []*element
		rootName string
		root     value.Value
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xmlError(data, dec, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, xmlError(data, dec, errors.New("multiple root elements"))
			}
			if len(stack) >= MaxDepth {
				return nil, xmlError(data, dec, fmt.Errorf("%w: more than %d levels", ErrTooDeep, MaxDepth))
			}
			stack = append(stack, newElement(t))
		case xml.EndElement:
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			v := e.collapse()
			if len(stack) == 0 {
				rootName, root = e.name, v
				continue
			}
			stack[len(stack)-1].addChild(e.name, v)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
				continue
			}
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, xmlError(data, dec, errors.New("character data outside the root element"))
			}
		}
	}

	if root == nil {
		return nil, xmlError(data, dec, errors.New("no root element"))
	}
	if o.skipRoot {
		return root, nil
	}
	return value.MappingOf(value.P(rootName, root)), nil
}

func xmlError(data []byte, dec *xml.Decoder, err error) error {
	offset := dec.InputOffset()
	line, col := lineCol(data, offset)
	var syn *xml.SyntaxError
	if errors.As(err, &syn) && syn.Line > 0 && syn.Line != line {
		line, col = syn.Line, 0
	}
	return &ParseError{Format: XML, Offset: offset, Line: line, Column: col, Err: err}
}
