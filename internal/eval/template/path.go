package template

import (
	"strings"

	"github.com/rinehimer/jxtl/internal/eval/cel"
	"github.com/rinehimer/jxtl/internal/value"
)

// Path addresses a value relative to the scope stack.
//
//	name.child        search scopes innermost first for name, then descend
//	this / .          the innermost scope value
//	../name           start the search one scope further out
//	..                the parent scope value
//	/name             look only at the root
//	beer[it.abv > 5]  keep elements matching a predicate
//	info.*            every value of a mapping
//
// A segment applied to a sequence is applied to each element and the
// results are collected into one flat sequence, so beers.name lists the
// name of every beer.
type Path struct {
	src  string
	root bool
	up   int
	segs []segment
}

type segment struct {
	name string
	self bool
	all  bool
	pred *cel.Predicate
}

func (p *Path) String() string { return p.src }

// parsePath reads a path from the front of s and returns what follows it.
func parsePath(s string, eval *cel.Evaluator) (*Path, string, error) {
	p := &Path{}
	i := 0

	if strings.HasPrefix(s, "/") {
		p.root = true
		i = 1
	} else {
		for strings.HasPrefix(s[i:], "../") {
			p.up++
			i += 3
		}
		if strings.HasPrefix(s[i:], "..") && (i+2 == len(s) || !isNameByte(s[i+2]) && s[i+2] != '.') {
			p.up++
			i += 2
			p.segs = append(p.segs, segment{self: true})
			if i < len(s) && s[i] == '.' && i+1 < len(s) && isNameByte(s[i+1]) {
				i++
			} else {
				p.src = s[:i]
				return p, s[i:], nil
			}
		}
	}

	for {
		start := i
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		seg := segment{name: s[start:i]}

		switch {
		case len(p.segs) == 0 && seg.name == "this":
			seg = segment{self: true}
		case seg.name == "*":
			seg.all = true
		case len(p.segs) == 0 && seg.name == "" && i < len(s) && s[i] == '.':
			i++
			seg = segment{self: true}
		case seg.name == "":
			if i < len(s) {
				return nil, "", malformed("bad path %q: unexpected %q", s, s[i])
			}
			return nil, "", malformed("bad path %q: missing name", s)
		}

		if i < len(s) && s[i] == '[' {
			end, err := predicateEnd(s, i)
			if err != nil {
				return nil, "", err
			}
			expr := strings.TrimSpace(s[i+1 : end])
			if expr == "" {
				return nil, "", malformed("bad path %q: empty predicate", s)
			}
			pred, err := eval.Compile(expr)
			if err != nil {
				return nil, "", malformed("bad predicate [%s]: %v", expr, err)
			}
			seg.pred = pred
			i = end + 1
		}
		p.segs = append(p.segs, seg)

		if i+1 < len(s) && s[i] == '.' && isNameByte(s[i+1]) {
			i++
			continue
		}
		break
	}

	p.src = s[:i]
	return p, s[i:], nil
}

// predicateEnd returns the index of the ']' closing the predicate opened
// at s[open], skipping brackets inside quoted strings.
func predicateEnd(s string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, malformed("unterminated predicate in %q", s)
}

func isNameByte(c byte) bool {
	switch c {
	case '.', '[', ']', '|', ';', ',', '=', '"', '\'', '/', '!', '{', '}', ' ', '\t', '\r', '\n':
		return false
	}
	return true
}

// resolve looks the path up against the scope stack, innermost scope last.
func (p *Path) resolve(scopes []value.Value) (value.Value, bool) {
	if len(scopes) == 0 {
		return nil, false
	}

	var v value.Value
	first := p.segs[0]
	switch {
	case p.root:
		v = scopes[0]
		if !first.self {
			var ok bool
			if v, ok = step(v, first); !ok {
				return nil, false
			}
		}
	default:
		start := len(scopes) - 1 - p.up
		if start < 0 {
			return nil, false
		}
		if first.self {
			v = scopes[start]
			break
		}
		if first.all {
			var ok bool
			if v, ok = step(scopes[start], first); !ok {
				return nil, false
			}
			break
		}
		found := false
		for i := start; i >= 0; i-- {
			if c, ok := child(scopes[i], first.name); ok {
				v, found = c, true
				break
			}
		}
		if !found {
			return nil, false
		}
	}

	v, ok := filter(v, first.pred)
	if !ok {
		return nil, false
	}

	for _, seg := range p.segs[1:] {
		if v, ok = step(v, seg); !ok {
			return nil, false
		}
		if v, ok = filter(v, seg.pred); !ok {
			return nil, false
		}
	}
	return v, true
}

// step applies one segment to v. Sequences are mapped element by element
// and the results flattened; nothing matching in any element is a miss.
func step(v value.Value, seg segment) (value.Value, bool) {
	switch t := v.(type) {
	case value.Sequence:
		var out value.Sequence
		for _, e := range t {
			if c, ok := step(e, seg); ok {
				out = appendFlat(out, c)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case *value.Mapping:
		if !seg.all {
			return t.Get(seg.name)
		}
		out := value.Sequence{}
		for _, c := range t.All() {
			out = appendFlat(out, c)
		}
		return out, true
	default:
		return nil, false
	}
}

func appendFlat(out value.Sequence, v value.Value) value.Sequence {
	if seq, ok := v.(value.Sequence); ok {
		return append(out, seq...)
	}
	return append(out, v)
}

func child(v value.Value, name string) (value.Value, bool) {
	m, ok := v.(*value.Mapping)
	if !ok {
		return nil, false
	}
	return m.Get(name)
}

// filter applies a predicate: sequences keep matching elements, anything
// else is kept only when it matches itself.
func filter(v value.Value, pred *cel.Predicate) (value.Value, bool) {
	if pred == nil {
		return v, true
	}
	if seq, ok := v.(value.Sequence); ok {
		out := value.Sequence{}
		for _, e := range seq {
			if pred.Match(e) {
				out = append(out, e)
			}
		}
		return out, true
	}
	if pred.Match(v) {
		return v, true
	}
	return nil, false
}
