package cel

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/rinehimer/jxtl/internal/value"
)

// ElementVar is the variable a predicate sees the candidate element as.
const ElementVar = "it"

// Evaluator compiles path predicates written in CEL
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new CEL evaluator
func NewEvaluator() *Evaluator {
	// The element is dynamically typed: a string, a list or a string-keyed map
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar(ElementVar, decls.Dyn),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL environment: %v", err))
	}

	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}
}

var (
	defaultOnce      sync.Once
	defaultEvaluator *Evaluator
)

// Default returns a process-wide evaluator shared by template compilation.
func Default() *Evaluator {
	defaultOnce.Do(func() { defaultEvaluator = NewEvaluator() })
	return defaultEvaluator
}

// Predicate is a compiled boolean expression over one element.
type Predicate struct {
	src     string
	program cel.Program
}

// String returns the expression source.
func (p *Predicate) String() string { return p.src }

// Match reports whether v satisfies the predicate. Evaluation errors, such
// as selecting a field the element does not have, and non-boolean results
// count as no match.
func (p *Predicate) Match(v value.Value) bool {
	ok, err := p.eval(context.Background(), v)
	return err == nil && ok
}

func (p *Predicate) eval(ctx context.Context, v value.Value) (bool, error) {
	out, _, err := p.program.ContextEval(ctx, map[string]any{ElementVar: value.Native(v)})
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %s, not bool", p.src, out.Type().TypeName())
	}
	return b, nil
}

// Compile returns the predicate for expression, reusing a cached program
// when the same source was compiled before.
func (e *Evaluator) Compile(expression string) (*Predicate, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}
	return &Predicate{src: expression, program: program}, nil
}

// Evaluate compiles expression and evaluates it against v
func (e *Evaluator) Evaluate(ctx context.Context, expression string, v value.Value) (bool, error) {
	p, err := e.Compile(expression)
	if err != nil {
		return false, err
	}
	return p.eval(ctx, v)
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string) (cel.Program, error) {
	e.mu.RLock()
	if program, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache[expression]; ok {
		return program, nil
	}

	ast, err := e.check(expression)
	if err != nil {
		return nil, err
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	e.cache[expression] = program

	return program, nil
}

func (e *Evaluator) check(expression string) (*cel.Ast, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	// it is dyn, so most selections type-check as dyn and are only known
	// to be boolean at evaluation time
	switch out := ast.OutputType().String(); out {
	case "bool", "dyn":
	default:
		return nil, fmt.Errorf("expression must be boolean, got %s", out)
	}
	return ast, nil
}

// ValidateExpression validates a CEL expression without evaluating it
func (e *Evaluator) ValidateExpression(expression string) error {
	_, err := e.check(expression)
	return err
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}
