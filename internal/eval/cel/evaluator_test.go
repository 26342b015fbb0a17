package cel

import (
	"context"
	"testing"

	"github.com/rinehimer/jxtl/internal/value"
)

func beer(name, abv string) value.Value {
	return value.MappingOf(value.P("name", value.Scalar(name)), value.P("abv", value.Scalar(abv)))
}

func TestPredicateMatch(t *testing.T) {
	e := NewEvaluator()

	cases := []struct {
		expr string
		v    value.Value
		want bool
	}{
		{`it.name == "ale"`, beer("ale", "4.5"), true},
		{`it.name == "ale"`, beer("stout", "6"), false},
		{`double(it.abv) > 5.0`, beer("stout", "6"), true},
		{`it.startsWith("a")`, value.Scalar("ale"), true},
		{`size(it) == 2`, value.Sequence{value.Scalar("a"), value.Scalar("b")}, true},
		// missing field is an evaluation error, which does not match
		{`it.colour == "dark"`, beer("stout", "6"), false},
		// non-boolean result at runtime
		{`it.name`, beer("ale", "4.5"), false},
	}
	for _, c := range cases {
		p, err := e.Compile(c.expr)
		if err != nil {
			t.Fatalf("%s: compile: %v", c.expr, err)
		}
		if got := p.Match(c.v); got != c.want {
			t.Errorf("%s on %v = %v, want %v", c.expr, value.Native(c.v), got, c.want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	e := NewEvaluator()
	for _, expr := range []string{
		`it ==`,
		`1 + 2`,
		`"text"`,
		`unknown > 1`,
	} {
		if _, err := e.Compile(expr); err == nil {
			t.Errorf("%s: expected compile error", expr)
		}
		if err := e.ValidateExpression(expr); err == nil {
			t.Errorf("%s: expected validation error", expr)
		}
	}
}

func TestProgramCache(t *testing.T) {
	e := NewEvaluator()
	for range 3 {
		if _, err := e.Compile(`it == "x"`); err != nil {
			t.Fatal(err)
		}
	}
	if len(e.cache) != 1 {
		t.Fatalf("cache holds %d programs, want 1", len(e.cache))
	}
	e.ClearCache()
	if len(e.cache) != 0 {
		t.Fatalf("cache not cleared")
	}
}

func TestEvaluate(t *testing.T) {
	ok, err := Default().Evaluate(context.Background(), `it.name.endsWith("out")`, beer("stout", "6"))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected match")
	}
	if _, err := Default().Evaluate(context.Background(), `it.missing`, beer("stout", "6")); err == nil {
		t.Fatal("expected evaluation error")
	}
}
