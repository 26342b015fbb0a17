package template

import (
	"strings"

	"github.com/rinehimer/jxtl/internal/eval/cel"
	"github.com/rinehimer/jxtl/internal/value"
)

// Scope is a read-only view of the scope stack at the point a formatter is
// called.
type Scope interface {
	// Current is the innermost scope value: the loop element, or the root
	// outside any loop.
	Current() value.Value
	// Root is the value the expansion started from.
	Root() value.Value
	// Depth is the number of loop scopes above the root.
	Depth() int
	// Lookup resolves a path the same way an interpolation would.
	Lookup(path string) (value.Value, bool)
}

type scope struct {
	stack []value.Value
	eval  *cel.Evaluator
}

func (s *scope) push(v value.Value) { s.stack = append(s.stack, v) }

func (s *scope) pop() { s.stack = s.stack[:len(s.stack)-1] }

func (s *scope) Current() value.Value { return s.stack[len(s.stack)-1] }

func (s *scope) Root() value.Value { return s.stack[0] }

func (s *scope) Depth() int { return len(s.stack) - 1 }

func (s *scope) Lookup(path string) (value.Value, bool) {
	p, rest, err := parsePath(strings.TrimSpace(path), s.eval)
	if err != nil || strings.TrimSpace(rest) != "" {
		return nil, false
	}
	return p.resolve(s.stack)
}
