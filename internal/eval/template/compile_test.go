package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnterminatedBlockReportsOpener(t *testing.T) {
	_, err := Compile("{{#each a}}no close")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("want SyntaxError, got %v", err)
	}
	if !errors.Is(err, ErrUnterminatedBlock) {
		t.Fatalf("want ErrUnterminatedBlock, got %v", err)
	}
	if diff := cmp.Diff(Pos{Offset: 0, Line: 1, Column: 1}, se.Pos); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(se.Error(), "each") {
		t.Fatalf("message does not name the block: %v", se)
	}

	// the innermost open block is reported
	_, err = Compile("head\n  {{#if x}}{{#each y}}{{/each}}\n", WithName("page.jxtl"))
	if !errors.As(err, &se) {
		t.Fatalf("want SyntaxError, got %v", err)
	}
	if diff := cmp.Diff(Pos{Offset: 7, Line: 2, Column: 3}, se.Pos); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(se.Error(), "page.jxtl:2:3: ") {
		t.Fatalf("unexpected message %q", se.Error())
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		src  string
		want error
		pos  Pos
	}{
		{"{{/each}}", ErrUnmatchedClose, Pos{0, 1, 1}},
		{"{{#each a}}{{/if}}", ErrUnmatchedClose, Pos{11, 1, 12}},
		{"{{#if a}}{{/each}}", ErrUnmatchedClose, Pos{9, 1, 10}},
		{"x{{else}}", ErrUnmatchedClose, Pos{1, 1, 2}},
		{"{{#each a}}{{#elseif b}}{{/each}}", ErrUnmatchedClose, Pos{11, 1, 12}},
		{"{{#foo a}}", ErrUnknownDirective, Pos{0, 1, 1}},
		{"a\n{{#with x}}{{/with}}", ErrUnknownDirective, Pos{2, 2, 1}},
		{"{{}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"ok {{ name", ErrMalformedDirective, Pos{3, 1, 4}},
		{"{{a b}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{a|}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{a.}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{#each}}{{/each}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{#if !}}{{/if}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{#if a b}}{{/if}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{`{{a; sep="x"}}`, ErrMalformedDirective, Pos{0, 1, 1}},
		{`{{a; format=upper}}`, ErrMalformedDirective, Pos{0, 1, 1}},
		{`{{a; format="x",}}`, ErrMalformedDirective, Pos{0, 1, 1}},
		{`{{a; format="x", format="y"}}`, ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{a[}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{a[]}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{a[it ==]}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{a[1 + 2]}}", ErrMalformedDirective, Pos{0, 1, 1}},
		{"{{#if a}}{{else}}{{else}}{{/if}}", ErrMalformedDirective, Pos{17, 1, 18}},
		{"{{#if a}}{{else}}{{#elseif b}}{{/if}}", ErrMalformedDirective, Pos{17, 1, 18}},
		{"{{/each x}}", ErrMalformedDirective, Pos{0, 1, 1}},
	}
	for _, c := range cases {
		tmpl, err := Compile(c.src)
		if tmpl != nil {
			t.Errorf("%q: template returned alongside error", c.src)
		}
		if !errors.Is(err, c.want) {
			t.Errorf("%q: got %v, want %v", c.src, err, c.want)
			continue
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: %T is not a SyntaxError", c.src, err)
			continue
		}
		if se.Pos != c.pos {
			t.Errorf("%q: position %+v, want %+v", c.src, se.Pos, c.pos)
		}
	}
}

func TestInvalidDelims(t *testing.T) {
	if _, err := Compile("x", WithDelims("", "}}")); err == nil {
		t.Fatal("empty delimiter accepted")
	}
}

func TestCompileMergesLiterals(t *testing.T) {
	tmpl, err := Compile("a{{! one }}b{{! two }}c")
	if err != nil {
		t.Fatal(err)
	}
	if len(tmpl.nodes) != 1 {
		t.Fatalf("want one literal node, got %d", len(tmpl.nodes))
	}
	if lit, ok := tmpl.nodes[0].(*literalNode); !ok || lit.text != "abc" {
		t.Fatalf("got %#v", tmpl.nodes[0])
	}
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		src  string
		root bool
		up   int
		segs []string
		rest string
	}{
		{"a.b.c", false, 0, []string{"a", "b", "c"}, ""},
		{"this", false, 0, []string{"."}, ""},
		{".", false, 0, []string{"."}, ""},
		{"this.name|upper", false, 0, []string{".", "name"}, "|upper"},
		{"..", false, 1, []string{"."}, ""},
		{"../..", false, 2, []string{"."}, ""},
		{"../../x.y", false, 2, []string{"x", "y"}, ""},
		{"/a", true, 0, []string{"a"}, ""},
		{"/this", true, 0, []string{"."}, ""},
		{"@id", false, 0, []string{"@id"}, ""},
		{"info.*.d", false, 0, []string{"info", "*", "d"}, ""},
		{"item.#text; separator=\",\"", false, 0, []string{"item", "#text"}, "; separator=\",\""},
	}
	for _, c := range cases {
		p, rest, err := parsePath(c.src, nil)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		var segs []string
		for _, s := range p.segs {
			if s.self {
				segs = append(segs, ".")
			} else {
				segs = append(segs, s.name)
			}
		}
		if p.root != c.root || p.up != c.up || rest != c.rest {
			t.Errorf("%q: root=%v up=%d rest=%q", c.src, p.root, p.up, rest)
		}
		if diff := cmp.Diff(c.segs, segs); diff != "" {
			t.Errorf("%q: segments (-want +got):\n%s", c.src, diff)
		}
	}
}
