package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rinehimer/jxtl/internal/eval/cel"
)

// Template is a compiled template. It is immutable and safe for
// concurrent use.
type Template struct {
	name  string
	src   string
	nodes []node
	eval  *cel.Evaluator
}

// Name returns the name given with WithName.
func (t *Template) Name() string { return t.name }

// Source returns the text the template was compiled from.
func (t *Template) Source() string { return t.src }

type node interface{ node() }

type literalNode struct {
	text string
}

type interpolateNode struct {
	pos Pos
	target
}

type iterateNode struct {
	pos Pos
	target
	body []node
}

type branch struct {
	path   *Path
	negate bool
	body   []node
}

type conditionalNode struct {
	pos      Pos
	branches []branch
	elseBody []node
}

func (*literalNode) node()     {}
func (*interpolateNode) node() {}
func (*iterateNode) node()     {}
func (*conditionalNode) node() {}

type config struct {
	name      string
	left      string
	right     string
	trimBlock bool
	eval      *cel.Evaluator
}

// Option configures Compile.
type Option func(*config)

// WithName names the template in syntax errors.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithDelims replaces the default "{{" and "}}" directive delimiters.
func WithDelims(left, right string) Option {
	return func(c *config) { c.left, c.right = left, right }
}

// WithTrimBlockNewlines drops one newline at the start and one at the end
// of every block body, so block markers on their own lines leave no blank
// lines behind.
func WithTrimBlockNewlines() Option {
	return func(c *config) { c.trimBlock = true }
}

// WithEvaluator sets the evaluator used to compile path predicates.
func WithEvaluator(e *cel.Evaluator) Option {
	return func(c *config) { c.eval = e }
}

func newConfig(opts []Option) config {
	c := config{left: "{{", right: "}}"}
	for _, opt := range opts {
		opt(&c)
	}
	if c.eval == nil {
		c.eval = cel.Default()
	}
	return c
}

// frame is an open block on the compile stack.
type frame struct {
	keyword string // "" for the top level
	pos     Pos
	body    []node

	iter *iterateNode

	cond   *conditionalNode
	cur    branch
	inElse bool
}

// Compile parses src in a single pass. On error no template is returned
// and the error is a *SyntaxError.
func Compile(src string, opts ...Option) (*Template, error) {
	cfg := newConfig(opts)
	if cfg.left == "" || cfg.right == "" {
		return nil, fmt.Errorf("invalid delimiters %q %q", cfg.left, cfg.right)
	}

	c := &compiler{cfg: cfg, lex: newLexer(src, cfg.left, cfg.right)}
	nodes, err := c.run()
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Name = cfg.name
		}
		return nil, err
	}
	return &Template{name: cfg.name, src: src, nodes: nodes, eval: cfg.eval}, nil
}

type compiler struct {
	cfg   config
	lex   *lexer
	stack []*frame
}

func (c *compiler) top() *frame { return c.stack[len(c.stack)-1] }

func (c *compiler) run() ([]node, error) {
	c.stack = []*frame{{}}
	for {
		tok, err := c.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			if len(c.stack) > 1 {
				open := c.top()
				return nil, &SyntaxError{
					Pos: open.pos,
					Msg: fmt.Sprintf("unterminated #%s block", open.keyword),
					Err: ErrUnterminatedBlock,
				}
			}
			return c.top().body, nil
		case tokText:
			c.emit(&literalNode{text: tok.val})
		case tokDirective:
			if err := c.directive(tok); err != nil {
				var de *directiveError
				if errors.As(err, &de) {
					return nil, &SyntaxError{Pos: tok.pos, Msg: de.msg, Err: de.err}
				}
				return nil, err
			}
		}
	}
}

// emit appends n to the innermost body, merging adjacent literals.
func (c *compiler) emit(n node) {
	f := c.top()
	if lit, ok := n.(*literalNode); ok && len(f.body) > 0 {
		if prev, ok := f.body[len(f.body)-1].(*literalNode); ok {
			f.body[len(f.body)-1] = &literalNode{text: prev.text + lit.text}
			return
		}
	}
	f.body = append(f.body, n)
}

func (c *compiler) directive(tok token) error {
	d, err := parseDirective(tok.val, c.cfg.eval)
	if err != nil {
		return err
	}

	switch d.kind {
	case dirComment:
	case dirInterpolate:
		c.emit(&interpolateNode{pos: tok.pos, target: d.target})
	case dirOpen:
		f := &frame{keyword: d.keyword, pos: tok.pos}
		if d.keyword == "if" {
			f.cond = &conditionalNode{pos: tok.pos}
			f.cur = branch{path: d.target.path, negate: d.negate}
		} else {
			f.iter = &iterateNode{pos: tok.pos, target: d.target}
		}
		c.stack = append(c.stack, f)
	case dirElseIf, dirElse:
		f := c.top()
		name := "else"
		if d.kind == dirElseIf {
			name = "#elseif"
		}
		if f.cond == nil {
			return &directiveError{err: ErrUnmatchedClose, msg: name + " outside #if"}
		}
		if f.inElse {
			return malformed("%s after else", name)
		}
		c.finishBranch(f)
		if d.kind == dirElse {
			f.inElse = true
		} else {
			f.cur = branch{path: d.target.path, negate: d.negate}
		}
	case dirClose:
		f := c.top()
		if f.keyword == "" || !closes(f.keyword, d.keyword) {
			msg := "/" + d.keyword + " without matching opener"
			if f.keyword != "" {
				msg = fmt.Sprintf("/%s closes #%s opened at %s", d.keyword, f.keyword, f.pos)
			}
			return &directiveError{err: ErrUnmatchedClose, msg: msg}
		}
		c.stack = c.stack[:len(c.stack)-1]
		if f.cond != nil {
			c.finishBranch(f)
			c.emit(f.cond)
		} else {
			f.iter.body = c.trim(f.body)
			c.emit(f.iter)
		}
	}
	return nil
}

// closes reports whether a close keyword ends a block opened with open.
// each and section are interchangeable.
func closes(open, end string) bool {
	if isLoopKeyword(open) {
		return isLoopKeyword(end)
	}
	return open == end
}

func (c *compiler) finishBranch(f *frame) {
	body := c.trim(f.body)
	f.body = nil
	if f.inElse {
		f.cond.elseBody = body
		return
	}
	f.cur.body = body
	f.cond.branches = append(f.cond.branches, f.cur)
}

// trim removes one leading newline from the first literal and one trailing
// newline from the last literal of a block body.
func (c *compiler) trim(body []node) []node {
	if !c.cfg.trimBlock || len(body) == 0 {
		return body
	}
	if lit, ok := body[0].(*literalNode); ok {
		text := strings.TrimPrefix(lit.text, "\r\n")
		if len(text) == len(lit.text) {
			text = strings.TrimPrefix(text, "\n")
		}
		body[0] = &literalNode{text: text}
	}
	if lit, ok := body[len(body)-1].(*literalNode); ok {
		text := strings.TrimSuffix(lit.text, "\r\n")
		if len(text) == len(lit.text) {
			text = strings.TrimSuffix(text, "\n")
		}
		body[len(body)-1] = &literalNode{text: text}
	}

	out := body[:0]
	for _, n := range body {
		if lit, ok := n.(*literalNode); ok && lit.text == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
